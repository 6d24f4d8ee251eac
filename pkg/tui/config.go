// Package tui 配置定义
package tui

import (
	"errors"
	"time"
)

// Config TUI组件的配置结构
type Config struct {
	RefreshInterval  time.Duration // UI刷新间隔
	EventListSize    int           // 事件列表显示的最近事件数量
	EventListHeight  int           // 事件列表占用的行数
	MinChartWidth    int           // 最小图表宽度
	MinChartHeight   int           // 最小图表高度
	MaxHistorySize   int           // 图表保留的样本数量
	ValueBufferRatio float64       // 值缓冲比例
	MaxChartSize     int           // 最大图表尺寸（防止极端值）
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:  200 * time.Millisecond, // 默认200ms刷新
		EventListSize:    50,                     // 与导出后打印的事件数一致
		EventListHeight:  8,                      // 默认8行
		MinChartWidth:    20,                     // 最小图表宽度
		MinChartHeight:   5,                      // 最小图表高度
		MaxHistorySize:   300,                    // 默认300个样本
		ValueBufferRatio: 0.1,                    // 10%缓冲
		MaxChartSize:     1000,                   // 最大图表尺寸
	}
}

// Validate 验证配置的合理性
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return errors.New("UI刷新间隔必须大于0")
	}

	if c.RefreshInterval < 10*time.Millisecond {
		return errors.New("UI刷新间隔不能小于10ms")
	}

	if c.EventListSize <= 0 {
		return errors.New("事件列表大小必须大于0")
	}

	if c.EventListHeight <= 0 {
		return errors.New("事件列表行数必须大于0")
	}

	if c.MinChartWidth <= 0 {
		return errors.New("最小图表宽度必须大于0")
	}

	if c.MinChartHeight <= 0 {
		return errors.New("最小图表高度必须大于0")
	}

	if c.MaxHistorySize <= 0 {
		return errors.New("历史缓冲区大小必须大于0")
	}

	if c.MaxHistorySize < 10 {
		return errors.New("历史缓冲区大小不能小于10")
	}

	if c.MaxHistorySize > 10000 {
		return errors.New("历史缓冲区大小不能超过10000")
	}

	if c.ValueBufferRatio < 0 {
		return errors.New("值缓冲比例不能为负数")
	}

	if c.MaxChartSize <= 0 {
		return errors.New("最大图表尺寸必须大于0")
	}

	return nil
}
