// Package spc 实现了基于控制图规则的轴数据异常检测
// 分析器作为消费者从有界队列读取样本，命中规则后交给事件处理函数
package spc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// Observation 从采样器传递到分析器的单个值
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// EventHandler 处理命中的异常事件
// 返回的错误只会被记录，不会停止分析循环
type EventHandler func(event core.AnomalyEvent) error

// ErrNonFinite 值为NaN或无穷大，无法参与统计
var ErrNonFinite = errors.New("非有限数值")

// Analyzer SPC分析器
type Analyzer struct {
	config  *Config
	window  *Ring
	handler EventHandler
	logger  *slog.Logger

	skipped atomic.Uint64 // 被跳过的观测值数量
	onSkip  func(obs Observation, err error)
}

// AnalyzerOption 分析器选项函数类型
type AnalyzerOption func(*Analyzer)

// WithLogger 设置日志记录器
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSkipHook 设置观测值被跳过时的回调（用于指标统计）
func WithSkipHook(hook func(obs Observation, err error)) AnalyzerOption {
	return func(a *Analyzer) {
		a.onSkip = hook
	}
}

// NewAnalyzer 创建新的分析器实例
func NewAnalyzer(config *Config, handler EventHandler, opts ...AnalyzerOption) (*Analyzer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		config:  config,
		window:  NewRing(config.WindowSize),
		handler: handler,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Observe 把一个值放入窗口并评估规则
// 非有限数值不进入窗口，返回ErrNonFinite
func (a *Analyzer) Observe(obs Observation) (core.AnomalyEvent, bool, error) {
	if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
		return core.AnomalyEvent{}, false, fmt.Errorf("%w: %v", ErrNonFinite, obs.Value)
	}

	a.window.Push(obs.Value)

	kind, detail, matched := Evaluate(a.window.Values(), a.config)
	if !matched {
		return core.AnomalyEvent{}, false, nil
	}

	return core.AnomalyEvent{
		Timestamp: obs.Timestamp,
		Kind:      kind,
		Detail:    detail,
	}, true, nil
}

// Run 阻塞地从输入通道读取观测值，直到ctx取消或通道关闭
func (a *Analyzer) Run(ctx context.Context, in <-chan Observation) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs, ok := <-in:
			if !ok {
				return
			}
			a.handle(obs)
		}
	}
}

// handle 处理单个观测值，任何失败都只记录不传播
func (a *Analyzer) handle(obs Observation) {
	event, matched, err := a.Observe(obs)
	if err != nil {
		a.skipped.Add(1)
		a.logger.Warn("跳过无法分析的样本", "ts", obs.Timestamp, "error", err)
		if a.onSkip != nil {
			a.onSkip(obs, err)
		}
		return
	}
	if !matched || a.handler == nil {
		return
	}

	if err := a.handler(event); err != nil {
		a.logger.Warn("异常事件处理失败", "kind", event.Kind, "error", err)
	}
}

// Skipped 返回被跳过的观测值数量
func (a *Analyzer) Skipped() uint64 {
	return a.skipped.Load()
}

// WindowLen 返回当前窗口内的值数量
func (a *Analyzer) WindowLen() int {
	return a.window.Len()
}

// Reset 清空窗口
func (a *Analyzer) Reset() {
	a.window.Reset()
}
