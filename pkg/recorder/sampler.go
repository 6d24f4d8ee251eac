// Package recorder 采样器
package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/spc"
	"golang.org/x/time/rate"
)

// unknownReadError 数据源返回空错误信息时使用，保证错误样本总有说明
const unknownReadError = "读取失败(无错误信息)"

// Sampler 周期性读取数据源的生产者
type Sampler struct {
	source  core.AxisDataSource
	config  core.SessionConfig
	samples *SampleLog
	queue   *AnomalyQueue
	metrics *Metrics
	logger  *slog.Logger
	limiter *rate.Limiter // 限制读取失败日志的频率
}

// newSampler 创建采样器
func newSampler(source core.AxisDataSource, config core.SessionConfig, samples *SampleLog, queue *AnomalyQueue, metrics *Metrics, logger *slog.Logger, logInterval time.Duration) *Sampler {
	limit := rate.Inf
	if logInterval > 0 {
		limit = rate.Every(logInterval)
	}
	return &Sampler{
		source:  source,
		config:  config,
		samples: samples,
		queue:   queue,
		metrics: metrics,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run 每个轮询间隔读取一次数据源，直到ctx取消
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick 单次采样，读取失败记录为错误样本，不重试
func (s *Sampler) tick(ctx context.Context) {
	ts := time.Now()
	value, err := s.source.Read(ctx, s.config.Axis, s.config.PositionType)

	// 停止过程中完成或被中断的读取不算作样本
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = unknownReadError
		}
		s.samples.Append(core.Sample{Timestamp: ts, Axis: s.config.Axis, Error: msg})
		s.metrics.Samples.WithLabelValues("error").Inc()
		if s.limiter.Allow() {
			s.logger.Warn("读取轴数据失败", "axis", s.config.Axis, "position", s.config.PositionType.String(), "error", err)
		}
		return
	}

	s.samples.Append(core.Sample{Timestamp: ts, Axis: s.config.Axis, Value: value})
	s.metrics.Samples.WithLabelValues("ok").Inc()

	// 非阻塞地交给分析器，队列满时丢弃
	if !s.queue.TryPush(spc.Observation{Timestamp: ts, Value: value}) {
		s.metrics.QueueDropped.Inc()
	}
}
