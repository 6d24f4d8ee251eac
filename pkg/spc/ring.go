// Package spc 环形缓冲区
package spc

// Ring 固定容量的环形缓冲区，满时淘汰最旧的值
// 不是并发安全的，只由分析器goroutine持有
type Ring struct {
	buf  []float64
	head int // 下一个写入位置
	size int
}

// NewRing 创建指定容量的环形缓冲区
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Push 追加一个值
func (r *Ring) Push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// Len 当前缓冲的值数量
func (r *Ring) Len() int {
	return r.size
}

// Cap 缓冲区容量
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Values 按从旧到新的顺序返回缓冲内容的副本
func (r *Ring) Values() []float64 {
	out := make([]float64, r.size)
	start := (r.head - r.size + len(r.buf)) % len(r.buf)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Reset 清空缓冲区
func (r *Ring) Reset() {
	r.head = 0
	r.size = 0
}
