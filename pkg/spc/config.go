// Package spc 配置定义
package spc

import (
	"errors"
)

// Config SPC分析器的配置结构
// 这些阈值是经验值，保留为可配置的默认值
type Config struct {
	WindowSize int // 滑动窗口容量
	TrendN     int // 趋势规则：连续严格单调的点数
	ShiftN     int // 偏移规则：连续位于均值同一侧的点数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		WindowSize: 50, // 默认50个点的窗口
		TrendN:     7,  // 7点趋势
		ShiftN:     8,  // 8点偏移
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.WindowSize <= 1 {
		return errors.New("窗口容量必须大于1")
	}

	if c.TrendN <= 1 {
		return errors.New("趋势规则点数必须大于1")
	}

	if c.ShiftN <= 1 {
		return errors.New("偏移规则点数必须大于1")
	}

	if c.TrendN > c.WindowSize {
		return errors.New("趋势规则点数不能超过窗口容量")
	}

	if c.ShiftN > c.WindowSize {
		return errors.New("偏移规则点数不能超过窗口容量")
	}

	return nil
}
