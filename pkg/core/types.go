// Package core 定义了轴数据记录框架的核心接口和数据结构
// 这些类型在采样器、SPC分析器、关联导出器和TUI之间共享
package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PositionType 控制器位置类型
type PositionType int

const (
	PositionAbsolute     PositionType = iota // 绝对坐标
	PositionMachine                          // 机械坐标
	PositionRelative                         // 相对坐标
	PositionDistanceToGo                     // 剩余移动量
)

var positionNames = map[PositionType]string{
	PositionAbsolute:     "ABSOLUTE",
	PositionMachine:      "MACHINE",
	PositionRelative:     "RELATIVE",
	PositionDistanceToGo: "DISTANCE_TO_GO",
}

// String 返回位置类型的名称
func (p PositionType) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("TYPE_%d", int(p))
}

// Valid 检查位置类型是否属于已知集合
func (p PositionType) Valid() bool {
	_, ok := positionNames[p]
	return ok
}

// ParsePositionType 从名称（不区分大小写）或数字解析位置类型
func ParsePositionType(s string) (PositionType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := PositionType(n)
		if !p.Valid() {
			return 0, fmt.Errorf("未知的位置类型编号: %d", n)
		}
		return p, nil
	}

	normalized := strings.ReplaceAll(strings.ToUpper(s), "-", "_")
	for p, name := range positionNames {
		if name == normalized {
			return p, nil
		}
	}
	return 0, fmt.Errorf("未知的位置类型: %q", s)
}

// EventKind SPC异常事件类型
type EventKind string

const (
	TrendUp   EventKind = "TREND_UP"
	TrendDown EventKind = "TREND_DOWN"
	ShiftUp   EventKind = "SHIFT_UP"
	ShiftDown EventKind = "SHIFT_DOWN"
)

// EventKinds 返回全部事件类型，顺序固定
func EventKinds() []EventKind {
	return []EventKind{TrendUp, TrendDown, ShiftUp, ShiftDown}
}

// Sample 单次采样的结果
// Value 与 Error 互斥：Error 为空表示读取成功
type Sample struct {
	Timestamp time.Time
	Axis      string
	Value     float64
	Error     string
}

// HasValue 判断该样本是否携带有效读数
func (s Sample) HasValue() bool {
	return s.Error == ""
}

// AnomalyEvent SPC规则命中的异常事件
// Timestamp 取自触发该事件的样本时间戳
type AnomalyEvent struct {
	Timestamp time.Time
	Kind      EventKind
	Detail    string
}

// SessionConfig 单次记录会话的配置，会话期间不可变
type SessionConfig struct {
	Axis         string
	PositionType PositionType
	PollInterval time.Duration
}

// DefaultSessionConfig 返回默认的会话配置
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Axis:         "X",
		PositionType: PositionAbsolute,
		PollInterval: 250 * time.Millisecond,
	}
}

// MergedRecord 导出文件中的一行
// 多个事件以竖线拼接，Kinds 与 Details 位置一一对应
type MergedRecord struct {
	Timestamp time.Time
	Axis      string
	Value     string
	Kinds     string
	Details   string
	Error     string
}

// AxisDataSource 定义了轴数据源的标准接口
// 任何控制器连接（FOCAS、ADS、Modbus、MQTT网关、模拟器等）都应该实现这个接口
type AxisDataSource interface {
	// Read 同步读取指定轴的当前值
	// 失败时应返回 *ReadError，调用方会把错误记录为样本而不是中断采样
	Read(ctx context.Context, axis string, positionType PositionType) (float64, error)
}

// ReadError 数据源读取失败
type ReadError struct {
	Axis    string
	Message string
}

// Error 实现error接口
func (e *ReadError) Error() string {
	if e.Axis == "" {
		return e.Message
	}
	return fmt.Sprintf("读取轴 %s 失败: %s", e.Axis, e.Message)
}

// NewReadError 创建读取错误
func NewReadError(axis, format string, args ...any) *ReadError {
	return &ReadError{Axis: axis, Message: fmt.Sprintf(format, args...)}
}
