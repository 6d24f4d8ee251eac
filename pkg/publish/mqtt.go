// Package publish 把SPC异常事件实时发布到MQTT
// 每个事件发布到 <前缀>/<轴>/events，负载为JSON
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/correlate"
	"github.com/eclipse/paho.golang/paho"
)

// Config MQTT事件发布器的配置结构
type Config struct {
	ClientID    string // MQTT客户端ID
	TopicPrefix string // 主题前缀
	Axis        string // 事件所属的轴
	QoS         byte   // 发布QoS
	KeepAlive   uint16 // 保活时间（秒）
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ClientID:    "goaxis-events",
		TopicPrefix: "goaxis",
		Axis:        "X",
		QoS:         1,
		KeepAlive:   30,
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("MQTT客户端ID不能为空")
	}

	if c.TopicPrefix == "" {
		return errors.New("MQTT主题前缀不能为空")
	}

	if c.Axis == "" {
		return errors.New("轴名称不能为空")
	}

	if c.QoS > 2 {
		return errors.New("QoS必须是0、1或2")
	}

	return nil
}

// Message 事件消息的JSON结构
type Message struct {
	Session   string         `json:"session"`
	Timestamp string         `json:"ts"`
	Kind      core.EventKind `json:"kind"`
	Detail    string         `json:"detail"`
}

// MQTTSink 通过MQTT发布异常事件
type MQTTSink struct {
	config *Config
	client *paho.Client
	topic  string
	logger *slog.Logger
}

// Option 发布器选项函数类型
type Option func(*MQTTSink)

// WithLogger 设置日志记录器
func WithLogger(logger *slog.Logger) Option {
	return func(s *MQTTSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// EventTopic 返回某个轴的事件主题
func EventTopic(prefix, axis string) string {
	return fmt.Sprintf("%s/%s/events", prefix, strings.ToUpper(axis))
}

// NewMQTTSink 在已建立的连接上完成MQTT握手
func NewMQTTSink(ctx context.Context, conn net.Conn, config *Config, opts ...Option) (*MQTTSink, error) {
	if conn == nil {
		return nil, errors.New("MQTT连接不能为空")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &MQTTSink{
		config: config,
		topic:  EventTopic(config.TopicPrefix, config.Axis),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = paho.NewClient(paho.ClientConfig{
		ClientID: config.ClientID,
		Conn:     conn,
		OnClientError: func(err error) {
			s.logger.Warn("MQTT客户端错误", "error", err)
		},
	})

	if _, err := s.client.Connect(ctx, &paho.Connect{
		ClientID:   config.ClientID,
		KeepAlive:  config.KeepAlive,
		CleanStart: true,
	}); err != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", err)
	}

	return s, nil
}

// Publish 发布单个事件，实现recorder.EventPublisher
func (s *MQTTSink) Publish(ctx context.Context, sessionID string, event core.AnomalyEvent) error {
	payload, err := json.Marshal(Message{
		Session:   sessionID,
		Timestamp: correlate.FormatTimestamp(event.Timestamp),
		Kind:      event.Kind,
		Detail:    event.Detail,
	})
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	if _, err := s.client.Publish(ctx, &paho.Publish{
		Topic:   s.topic,
		QoS:     s.config.QoS,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	}); err != nil {
		return fmt.Errorf("发布事件到 %s 失败: %w", s.topic, err)
	}
	return nil
}

// Topic 返回事件主题
func (s *MQTTSink) Topic() string {
	return s.topic
}

// Close 断开MQTT连接
func (s *MQTTSink) Close() error {
	return s.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}
