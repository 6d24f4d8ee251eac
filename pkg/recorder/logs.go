// Package recorder 样本日志和事件日志
package recorder

import (
	"sync"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// SampleLog 只追加的样本序列
// 只有采样器写入，快照和导出可以并发读取
type SampleLog struct {
	mu      sync.RWMutex
	samples []core.Sample
}

// NewSampleLog 创建空的样本日志
func NewSampleLog() *SampleLog {
	return &SampleLog{samples: make([]core.Sample, 0, 256)}
}

// Append 追加一个样本
func (l *SampleLog) Append(s core.Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, s)
}

// Snapshot 返回当前全部样本的副本
func (l *SampleLog) Snapshot() []core.Sample {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

// Len 返回样本数量
func (l *SampleLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}

// EventLog 只追加的异常事件序列
// 只有分析器写入
type EventLog struct {
	mu     sync.RWMutex
	events []core.AnomalyEvent
}

// NewEventLog 创建空的事件日志
func NewEventLog() *EventLog {
	return &EventLog{events: make([]core.AnomalyEvent, 0, 32)}
}

// Append 追加一个事件
func (l *EventLog) Append(e core.AnomalyEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Snapshot 返回当前全部事件的副本
func (l *EventLog) Snapshot() []core.AnomalyEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.AnomalyEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Tail 返回事件总数和最近的limit个事件，limit<=0表示全部
func (l *EventLog) Tail(limit int) (int, []core.AnomalyEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := len(l.events)
	start := 0
	if limit > 0 && total > limit {
		start = total - limit
	}
	out := make([]core.AnomalyEvent, total-start)
	copy(out, l.events[start:])
	return total, out
}

// Len 返回事件数量
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
