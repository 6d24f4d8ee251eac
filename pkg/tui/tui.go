// Package tui 提供记录会话的终端监控界面
// 周期性读取会话快照，显示轴数据统计、实时曲线和SPC异常事件
package tui

import (
	"sync"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/recorder"
	"github.com/rivo/tview"
)

// SessionView TUI所需的会话只读视图，由recorder.Session实现
type SessionView interface {
	Snapshot() recorder.Snapshot
	Events(limit int) (int, []core.AnomalyEvent)
}

// TUI 主界面结构
type TUI struct {
	app       *tview.Application
	rowFlexes []*tview.Flex
	status    *tview.TextView
	chart     *tview.TextView
	eventList *tview.TextView
	flex      *tview.Flex
	view      SessionView

	// 配置信息
	tuiConfig *Config

	// 数据存储
	stats      *axisStats
	session    sessionInfo
	events     []core.AnomalyEvent
	eventTotal int
	statsMu    sync.RWMutex

	// 界面状态
	selectedRow int // 选中的事件，-1表示未选中

	// 控制
	stopChan chan struct{}
	doneChan chan struct{}

	// 测试模式标志
	testMode bool

	now func() time.Time
}

// NewTUI 创建新的TUI实例
func NewTUI(view SessionView, tuiConfig *Config) *TUI {
	tui := newTUI(view, tuiConfig, false)
	tui.status = tview.NewTextView()
	tui.chart = tview.NewTextView()
	tui.eventList = tview.NewTextView()

	tui.setupUI()
	tui.setupKeyBindings()

	return tui
}

// NewTUIForTest 创建用于测试的TUI实例（不初始化图形组件）
func NewTUIForTest(view SessionView, tuiConfig *Config) *TUI {
	return newTUI(view, tuiConfig, true)
}

func newTUI(view SessionView, tuiConfig *Config, testMode bool) *TUI {
	if tuiConfig == nil {
		tuiConfig = DefaultConfig()
	}
	return &TUI{
		app:         tview.NewApplication(), // 测试模式下创建但不会运行
		view:        view,
		tuiConfig:   tuiConfig,
		stats:       newAxisStats(),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		testMode:    testMode,
		selectedRow: -1,
		now:         time.Now,
	}
}

// Run 启动TUI界面，按q或调用Stop后返回
func (t *TUI) Run() error {
	// 启动数据处理goroutine
	go t.processData()

	// 运行应用
	err := t.app.Run()

	// 应用异常退出时也要让processData退出
	t.Stop()
	<-t.doneChan

	return err
}

// Stop 停止TUI界面，可重复调用
func (t *TUI) Stop() {
	select {
	case <-t.stopChan:
		// stopChan已经关闭，避免重复关闭
		return
	default:
		close(t.stopChan)
	}

	if !t.testMode {
		t.app.Stop()
	}
}

// processData 周期性拉取会话快照并刷新界面
func (t *TUI) processData() {
	defer close(t.doneChan)

	uiTicker := time.NewTicker(t.tuiConfig.RefreshInterval)
	defer uiTicker.Stop()

	// 初始刷新
	t.refresh()

	for {
		select {
		case <-uiTicker.C:
			t.refresh()

		case <-t.stopChan:
			return
		}
	}
}

// refresh 拉取一次快照并重绘
func (t *TUI) refresh() {
	snap := t.view.Snapshot()
	total, events := t.view.Events(t.tuiConfig.EventListSize)
	t.updateFromSnapshot(snap, total, events)
	t.handleUIRefresh()
}

// handleUIRefresh 处理UI刷新
func (t *TUI) handleUIRefresh() {
	if !t.testMode && t.app != nil {
		t.safeUIUpdate(func() {
			t.rebuildUI()
			t.updateChart()
		})
	}
}
