// Package recorder 有界异常队列
package recorder

import (
	"sync/atomic"

	"github.com/Kevin-Rudy/goaxis/pkg/spc"
)

// AnomalyQueue 采样器到分析器的有界非阻塞通道
// 队列满时直接丢弃新值，采样节奏优先于分析完整性
type AnomalyQueue struct {
	ch      chan spc.Observation
	dropped atomic.Uint64
}

// NewAnomalyQueue 创建指定容量的队列
func NewAnomalyQueue(capacity int) *AnomalyQueue {
	return &AnomalyQueue{ch: make(chan spc.Observation, capacity)}
}

// TryPush 尝试入队，队列满时返回false并计数
func (q *AnomalyQueue) TryPush(obs spc.Observation) bool {
	select {
	case q.ch <- obs:
		return true
	default:
		// 通道满了，丢弃这个值
		q.dropped.Add(1)
		return false
	}
}

// C 返回只读通道，供分析器消费
func (q *AnomalyQueue) C() <-chan spc.Observation {
	return q.ch
}

// Len 当前排队的值数量
func (q *AnomalyQueue) Len() int {
	return len(q.ch)
}

// Cap 队列容量
func (q *AnomalyQueue) Cap() int {
	return cap(q.ch)
}

// Dropped 返回因队列满而丢弃的值数量
func (q *AnomalyQueue) Dropped() uint64 {
	return q.dropped.Load()
}
