// Package tui 数据处理模块
package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/recorder"
)

// pointStatus 图表数据点的状态
type pointStatus int

const (
	pointValue pointStatus = iota // 正常读数
	pointError                    // 读取失败，曲线在此断开
)

// dataPoint 图表上的一个数据点
type dataPoint struct {
	Timestamp time.Time
	Value     float64
	Status    pointStatus
}

// axisStats 单个轴的累计统计
type axisStats struct {
	Processed int // 已处理的快照样本数
	Samples   int
	Errors    int
	Min       float64
	Max       float64

	// Welford在线算法累加器
	WelfordCount int
	WelfordMean  float64
	WelfordM2    float64

	First   time.Time // 本会话第一个样本的时间，不受历史裁剪影响
	History []dataPoint
	Summary map[string]string
}

func newAxisStats() *axisStats {
	return &axisStats{
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Summary: make(map[string]string),
	}
}

// sessionInfo 状态栏显示的会话信息
type sessionInfo struct {
	ID        string
	Recording bool
	Config    core.SessionConfig
	Dropped   uint64
}

// summaryOrder 统计表的列顺序
var summaryOrder = []string{"样本", "错误", "当前", "平均", "最小", "最大", "标准差", "事件", "丢弃"}

// updateFromSnapshot 增量处理快照中的新样本
func (t *TUI) updateFromSnapshot(snap recorder.Snapshot, eventTotal int, events []core.AnomalyEvent) {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()

	// 新会话或样本被清空时重新统计
	if snap.SessionID != t.session.ID || len(snap.Samples) < t.stats.Processed {
		t.stats = newAxisStats()
		t.selectedRow = -1
	}

	for _, sample := range snap.Samples[t.stats.Processed:] {
		t.addSample(sample)
	}
	t.stats.Processed = len(snap.Samples)

	t.session = sessionInfo{
		ID:        snap.SessionID,
		Recording: snap.Recording,
		Config:    snap.Config,
		Dropped:   snap.Dropped,
	}
	t.events = events
	t.eventTotal = eventTotal
	if t.selectedRow >= len(t.events) {
		t.selectedRow = len(t.events) - 1
	}

	// 维护历史缓冲区大小
	t.dequeueOutOfWindow()

	// 更新汇总信息
	t.updateSummary()
}

// addSample 把单个样本计入统计和历史
func (t *TUI) addSample(sample core.Sample) {
	stats := t.stats
	stats.Samples++
	if stats.First.IsZero() {
		stats.First = sample.Timestamp
	}

	point := dataPoint{Timestamp: sample.Timestamp, Value: sample.Value, Status: pointValue}
	if !sample.HasValue() {
		stats.Errors++
		point.Value = math.NaN()
		point.Status = pointError
		stats.History = append(stats.History, point)
		return
	}

	stats.History = append(stats.History, point)
	if math.IsNaN(sample.Value) || math.IsInf(sample.Value, 0) {
		return
	}

	t.updateWelfordAccumulator(sample.Value)
	if sample.Value < stats.Min {
		stats.Min = sample.Value
	}
	if sample.Value > stats.Max {
		stats.Max = sample.Value
	}
}

// dequeueOutOfWindow 只保留最近MaxHistorySize个点
func (t *TUI) dequeueOutOfWindow() {
	if len(t.stats.History) > t.tuiConfig.MaxHistorySize {
		t.stats.History = t.stats.History[len(t.stats.History)-t.tuiConfig.MaxHistorySize:]
	}
}

// updateWelfordAccumulator 使用Welford在线算法更新统计累加器
func (t *TUI) updateWelfordAccumulator(newValue float64) {
	stats := t.stats
	stats.WelfordCount++
	delta := newValue - stats.WelfordMean
	stats.WelfordMean += delta / float64(stats.WelfordCount)
	delta2 := newValue - stats.WelfordMean
	stats.WelfordM2 += delta * delta2
}

// lastValue 返回最近一个有效读数
func (t *TUI) lastValue() (float64, bool) {
	for i := len(t.stats.History) - 1; i >= 0; i-- {
		if t.stats.History[i].Status == pointValue {
			return t.stats.History[i].Value, true
		}
	}
	return 0, false
}

// updateSummary 更新汇总统计信息
func (t *TUI) updateSummary() {
	stats := t.stats
	summary := make(map[string]string)

	summary["样本"] = fmt.Sprintf("%d", stats.Samples)
	summary["错误"] = fmt.Sprintf("%d", stats.Errors)
	summary["事件"] = fmt.Sprintf("%d", t.eventTotal)
	summary["丢弃"] = fmt.Sprintf("%d", t.session.Dropped)

	if v, ok := t.lastValue(); ok {
		summary["当前"] = formatValue(v)
	} else {
		summary["当前"] = "N/A"
	}

	if stats.WelfordCount > 0 {
		summary["平均"] = formatValue(stats.WelfordMean)
		summary["最小"] = formatValue(stats.Min)
		summary["最大"] = formatValue(stats.Max)
	} else {
		summary["平均"] = "N/A"
		summary["最小"] = "N/A"
		summary["最大"] = "N/A"
	}

	// 标准差
	if stats.WelfordCount > 1 {
		variance := stats.WelfordM2 / float64(stats.WelfordCount-1)
		summary["标准差"] = formatValue(math.Sqrt(variance))
	} else {
		summary["标准差"] = "N/A"
	}

	stats.Summary = summary
}
