// Package recorder 选项模式支持
package recorder

import (
	"log/slog"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/spc"
	"github.com/prometheus/client_golang/prometheus"
)

// Option 配置选项函数类型
type Option func(*Config)

// WithQueueCapacity 设置队列容量
func WithQueueCapacity(capacity int) Option {
	return func(c *Config) {
		c.QueueCapacity = capacity
	}
}

// WithJoinTimeout 设置停止等待时间
func WithJoinTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.JoinTimeout = timeout
	}
}

// WithToleranceRatio 设置默认容差比例
func WithToleranceRatio(ratio float64) Option {
	return func(c *Config) {
		c.ToleranceRatio = ratio
	}
}

// WithRules 设置SPC规则
func WithRules(rules *spc.Config) Option {
	return func(c *Config) {
		c.Rules = rules
	}
}

// NewConfigWithOptions 使用选项模式创建配置
func NewConfigWithOptions(opts ...Option) *Config {
	config := DefaultConfig()

	// 应用所有选项
	for _, opt := range opts {
		opt(config)
	}

	return config
}

// SessionOption 会话依赖注入选项
type SessionOption func(*Session)

// WithLogger 设置日志记录器
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegisterer 在指定的注册表上注册Prometheus指标
func WithRegisterer(reg prometheus.Registerer) SessionOption {
	return func(s *Session) {
		s.metrics = NewMetrics(reg)
	}
}

// WithPublisher 设置异常事件的实时发布器
func WithPublisher(publisher EventPublisher) SessionOption {
	return func(s *Session) {
		s.publisher = publisher
	}
}
