// Package recorder 配置定义
package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/spc"
)

// Config recorder组件的配置结构
type Config struct {
	QueueCapacity   int           // 采样器到分析器的队列容量
	JoinTimeout     time.Duration // 停止时等待两个goroutine退出的最长时间
	ToleranceRatio  float64       // 默认关联容差 = 轮询间隔 * 此比例
	MinPollInterval time.Duration // 允许的最小轮询间隔
	PublishTimeout  time.Duration // 单个事件发布的超时时间
	LogInterval     time.Duration // 读取失败日志的最小间隔
	Rules           *spc.Config   // SPC规则配置
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		QueueCapacity:   10000,                 // 默认10000个待分析值
		JoinTimeout:     5 * time.Second,       // 默认5秒
		ToleranceRatio:  0.6,                   // 略大于半个轮询间隔
		MinPollInterval: 10 * time.Millisecond, // 默认最小10ms
		PublishTimeout:  2 * time.Second,       // 默认2秒
		LogInterval:     5 * time.Second,       // 每5秒最多一条读取失败日志
		Rules:           spc.DefaultConfig(),
	}
}

// DefaultTolerance 计算给定轮询间隔下的默认关联容差
func (c *Config) DefaultTolerance(pollInterval time.Duration) time.Duration {
	return time.Duration(float64(pollInterval) * c.ToleranceRatio)
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.QueueCapacity <= 0 {
		return errors.New("队列容量必须大于0")
	}

	if c.JoinTimeout <= 0 {
		return errors.New("停止等待时间必须大于0")
	}

	if c.ToleranceRatio <= 0 {
		return errors.New("容差比例必须大于0")
	}

	if c.MinPollInterval <= 0 {
		return errors.New("最小轮询间隔必须大于0")
	}

	if c.PublishTimeout <= 0 {
		return errors.New("发布超时时间必须大于0")
	}

	if c.LogInterval < 0 {
		return errors.New("日志间隔不能为负数")
	}

	if c.Rules == nil {
		return errors.New("缺少SPC规则配置")
	}

	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("SPC配置错误: %v", err)
	}

	return nil
}

// ValidateSession 验证单次会话的配置
func (c *Config) ValidateSession(sc core.SessionConfig) error {
	if sc.Axis == "" {
		return errors.New("轴名称不能为空")
	}

	if !sc.PositionType.Valid() {
		return fmt.Errorf("未知的位置类型: %v", sc.PositionType)
	}

	if sc.PollInterval <= 0 {
		return errors.New("轮询间隔必须大于0")
	}

	if sc.PollInterval < c.MinPollInterval {
		return fmt.Errorf("轮询间隔不能小于%v", c.MinPollInterval)
	}

	return nil
}
