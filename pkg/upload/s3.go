// Package upload 把导出的记录文件归档到S3
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

const (
	// PartSize 分片上传的分片大小
	PartSize = 5 * 1024 * 1024
	// Concurrency 并发上传的分片数
	Concurrency = 5
)

// S3Uploader 上传CSV记录文件，对象键为 <前缀>/<会话ID>/<文件名>
type S3Uploader struct {
	api    s3manageriface.UploaderAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// Option 上传器选项函数类型
type Option func(*S3Uploader)

// WithLogger 设置日志记录器
func WithLogger(logger *slog.Logger) Option {
	return func(u *S3Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewS3Uploader 使用给定的s3manager上传接口创建上传器
func NewS3Uploader(api s3manageriface.UploaderAPI, bucket, prefix string, opts ...Option) (*S3Uploader, error) {
	if api == nil {
		return nil, errors.New("S3上传接口不能为空")
	}
	if bucket == "" {
		return nil, errors.New("S3桶名不能为空")
	}

	u := &S3Uploader{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// NewS3UploaderForRegion 使用默认凭证链创建指定区域的上传器
func NewS3UploaderForRegion(region, bucket, prefix string, opts ...Option) (*S3Uploader, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg.WithRegion(region)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建AWS会话失败: %w", err)
	}

	uploader := s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
		u.PartSize = PartSize
		u.Concurrency = Concurrency
	})
	return NewS3Uploader(uploader, bucket, prefix, opts...)
}

// Key 返回文件在桶中的对象键
func (u *S3Uploader) Key(filePath, sessionID string) string {
	name := filepath.Base(filePath)
	if sessionID == "" {
		sessionID = "unknown"
	}
	if u.prefix == "" {
		return path.Join(sessionID, name)
	}
	return path.Join(u.prefix, sessionID, name)
}

// Upload 上传文件并返回对象的位置
func (u *S3Uploader) Upload(ctx context.Context, filePath, sessionID string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("打开文件 %s 失败: %w", filePath, err)
	}
	defer f.Close()

	key := u.Key(filePath, sessionID)
	out, err := u.api.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("上传 s3://%s/%s 失败: %w", u.bucket, key, err)
	}

	u.logger.Info("记录已上传", "bucket", u.bucket, "key", key, "location", out.Location)
	return out.Location, nil
}
