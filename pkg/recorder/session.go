// Package recorder 实现了轴数据的记录会话
// 会话成对地启动采样器和SPC分析器，并在停止后提供关联导出
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/correlate"
	"github.com/Kevin-Rudy/goaxis/pkg/spc"
	"github.com/google/uuid"
)

var (
	// ErrSessionAlreadyActive 已有会话在运行
	ErrSessionAlreadyActive = errors.New("记录会话已在运行")

	// ErrShutdownTimeout 停止时goroutine未能在限定时间内退出
	ErrShutdownTimeout = errors.New("等待采样/分析goroutine退出超时")
)

// EventPublisher 实时发布异常事件（例如MQTT）
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, event core.AnomalyEvent) error
}

// StopResult 停止会话的结果
type StopResult struct {
	Samples []core.Sample
	Count   int
}

// Snapshot 会话的非破坏性快照
type Snapshot struct {
	Recording bool
	SessionID string
	Config    core.SessionConfig
	Samples   []core.Sample
	Dropped   uint64
}

// Session 记录会话控制器：Idle -> Running -> Idle
type Session struct {
	config    *Config
	source    core.AxisDataSource
	logger    *slog.Logger
	metrics   *Metrics
	publisher EventPublisher

	lifecycle sync.Mutex // 串行化Start/Stop

	mu            sync.RWMutex // 保护以下字段
	running       bool
	id            string
	sessionConfig core.SessionConfig
	samples       *SampleLog
	events        *EventLog
	queue         *AnomalyQueue
	cancel        context.CancelFunc
	samplerDone   chan struct{}
	analyzerDone  chan struct{}
	startedAt     time.Time
	stoppedAt     time.Time
}

// NewSession 创建新的会话控制器
func NewSession(source core.AxisDataSource, config *Config, opts ...SessionOption) (*Session, error) {
	if source == nil {
		return nil, errors.New("必须指定数据源")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		config: config,
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s, nil
}

// Start 启动采样器和分析器
// 已在运行时返回ErrSessionAlreadyActive，且不修改现有会话的数据
// 运行中的检查先于配置校验，运行时任何启动请求都返回该错误
func (s *Session) Start(sc core.SessionConfig) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSessionAlreadyActive
	}

	if err := s.config.ValidateSession(sc); err != nil {
		return err
	}

	id := uuid.NewString()
	samples := NewSampleLog()
	events := NewEventLog()
	queue := NewAnomalyQueue(s.config.QueueCapacity)
	logger := s.logger.With("session", id, "axis", sc.Axis)

	ctx, cancel := context.WithCancel(context.Background())

	analyzer, err := spc.NewAnalyzer(s.config.Rules, s.eventHandler(ctx, id, events, logger),
		spc.WithLogger(logger),
		spc.WithSkipHook(func(spc.Observation, error) { s.metrics.Skipped.Inc() }),
	)
	if err != nil {
		cancel()
		return err
	}
	sampler := newSampler(s.source, sc, samples, queue, s.metrics, logger, s.config.LogInterval)

	// 新会话使用全新的日志对象，丢弃上一次未导出的数据
	s.id = id
	s.sessionConfig = sc
	s.samples = samples
	s.events = events
	s.queue = queue
	s.cancel = cancel
	s.samplerDone = make(chan struct{})
	s.analyzerDone = make(chan struct{})
	s.startedAt = time.Now()
	s.stoppedAt = time.Time{}
	s.running = true

	go func(done chan struct{}) {
		defer close(done)
		analyzer.Run(ctx, queue.C())
	}(s.analyzerDone)

	go func(done chan struct{}) {
		defer close(done)
		sampler.Run(ctx)
	}(s.samplerDone)

	s.metrics.Active.Set(1)
	logger.Info("记录会话已启动", "position", sc.PositionType.String(), "interval", sc.PollInterval)
	return nil
}

// eventHandler 分析器命中事件后的处理：写入事件日志、计数、可选发布
func (s *Session) eventHandler(ctx context.Context, id string, events *EventLog, logger *slog.Logger) spc.EventHandler {
	return func(event core.AnomalyEvent) error {
		events.Append(event)
		s.metrics.Events.WithLabelValues(string(event.Kind)).Inc()
		logger.Info("检测到SPC异常", "kind", event.Kind, "detail", event.Detail)

		if s.publisher == nil {
			return nil
		}
		pubCtx, cancel := context.WithTimeout(ctx, s.config.PublishTimeout)
		defer cancel()
		return s.publisher.Publish(pubCtx, id, event)
	}
}

// Stop 通知两个goroutine退出并在限定时间内等待
// 空闲时返回空结果；等待超时返回ErrShutdownTimeout，同时仍返回样本快照
func (s *Session) Stop() (StopResult, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.RLock()
	running := s.running
	cancel := s.cancel
	samplerDone, analyzerDone := s.samplerDone, s.analyzerDone
	samples, queue := s.samples, s.queue
	id := s.id
	s.mu.RUnlock()

	if !running {
		return StopResult{Samples: []core.Sample{}}, nil
	}

	cancel()

	timer := time.NewTimer(s.config.JoinTimeout)
	defer timer.Stop()

	var stuck []string
	timedOut := false
	for _, unit := range []struct {
		name string
		done chan struct{}
	}{{"sampler", samplerDone}, {"analyzer", analyzerDone}} {
		if timedOut {
			// 已经超时，剩余的单元只做非阻塞检查
			select {
			case <-unit.done:
			default:
				stuck = append(stuck, unit.name)
			}
			continue
		}
		select {
		case <-unit.done:
		case <-timer.C:
			timedOut = true
			stuck = append(stuck, unit.name)
		}
	}

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.stoppedAt = time.Now()
	s.mu.Unlock()
	s.metrics.Active.Set(0)

	snapshot := samples.Snapshot()
	result := StopResult{Samples: snapshot, Count: len(snapshot)}

	if len(stuck) > 0 {
		s.logger.Error("会话停止超时", "session", id, "units", stuck)
		return result, fmt.Errorf("%w: %v", ErrShutdownTimeout, stuck)
	}

	s.logger.Info("记录会话已停止", "session", id, "samples", result.Count, "dropped", queue.Dropped())
	return result, nil
}

// Snapshot 返回当前样本的副本，不影响运行中的会话
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Recording: s.running,
		SessionID: s.id,
		Config:    s.sessionConfig,
		Samples:   []core.Sample{},
	}
	if s.samples != nil {
		snap.Samples = s.samples.Snapshot()
	}
	if s.queue != nil {
		snap.Dropped = s.queue.Dropped()
	}
	return snap
}

// Events 返回事件总数和最近的limit个事件
func (s *Session) Events(limit int) (int, []core.AnomalyEvent) {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	if events == nil {
		return 0, []core.AnomalyEvent{}
	}
	return events.Tail(limit)
}

// Export 把样本和事件关联后写入CSV文件并返回实际路径
// tolerance<=0 表示未指定，使用最近一次会话的 轮询间隔*ToleranceRatio
// 关联要求 |Δt| < tolerance，零容差不会关联任何事件，因此不作为显式取值
func (s *Session) Export(path string, tolerance time.Duration) (string, error) {
	s.mu.RLock()
	samples, events := s.samples, s.events
	sc := s.sessionConfig
	s.mu.RUnlock()

	if samples == nil {
		return "", correlate.ErrNoSamples
	}
	if tolerance <= 0 {
		tolerance = s.config.DefaultTolerance(sc.PollInterval)
	}

	written, err := correlate.ExportFile(path, samples.Snapshot(), events.Snapshot(), tolerance)
	if err != nil {
		return "", err
	}
	s.logger.Info("记录已导出", "path", written, "tolerance", tolerance)
	return written, nil
}

// Running 判断是否有会话在运行
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SessionID 返回最近一次会话的ID
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Dropped 返回最近一次会话因队列满而丢弃的值数量
func (s *Session) Dropped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.queue == nil {
		return 0
	}
	return s.queue.Dropped()
}

// TimeRange 返回最近一次会话的开始和停止时间，运行中停止时间为零值
func (s *Session) TimeRange() (start, stop time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt, s.stoppedAt
}
