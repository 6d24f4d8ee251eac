package tui

import (
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/recorder"
)

// mockSessionView 模拟会话视图，用于测试
type mockSessionView struct {
	mu     sync.Mutex
	snap   recorder.Snapshot
	events []core.AnomalyEvent
	calls  int
}

func (m *mockSessionView) Snapshot() recorder.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.snap
}

func (m *mockSessionView) Events(limit int) (int, []core.AnomalyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := len(m.events)
	if limit > 0 && total > limit {
		return total, m.events[total-limit:]
	}
	return total, m.events
}

var baseTime = time.Unix(1700000000, 0)

func testSessionConfig() core.SessionConfig {
	return core.SessionConfig{Axis: "X", PositionType: core.PositionAbsolute, PollInterval: 100 * time.Millisecond}
}

// makeSamples 生成从baseTime开始、间隔100ms的样本
func makeSamples(values ...float64) []core.Sample {
	samples := make([]core.Sample, len(values))
	for i, v := range values {
		samples[i] = core.Sample{
			Timestamp: baseTime.Add(time.Duration(i) * 100 * time.Millisecond),
			Axis:      "X",
			Value:     v,
		}
	}
	return samples
}

func newTestSnapshot(id string, samples []core.Sample) recorder.Snapshot {
	return recorder.Snapshot{
		Recording: false,
		SessionID: id,
		Config:    testSessionConfig(),
		Samples:   samples,
	}
}

// TestNewTUI 测试TUI实例创建
func TestNewTUI(t *testing.T) {
	view := &mockSessionView{}
	tuiConfig := DefaultConfig()
	tui := NewTUIForTest(view, tuiConfig)

	if tui == nil {
		t.Fatal("NewTUIForTest should return a valid TUI instance")
	}

	if tui.view == nil {
		t.Error("TUI should have a valid session view")
	}

	if tui.stats == nil {
		t.Error("TUI should have initialized stats")
	}

	if !tui.testMode {
		t.Error("TUI should be in test mode")
	}

	if tui.selectedRow != -1 {
		t.Errorf("Expected initial selectedRow=-1, got %d", tui.selectedRow)
	}

	if NewTUIForTest(view, nil).tuiConfig.MaxHistorySize != DefaultConfig().MaxHistorySize {
		t.Error("nil config should fall back to defaults")
	}
}

// TestUpdateFromSnapshot 测试增量处理快照
func TestUpdateFromSnapshot(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	samples := makeSamples(10, 20, 30)
	tui.updateFromSnapshot(newTestSnapshot("s1", samples), 0, nil)

	if tui.stats.Samples != 3 {
		t.Errorf("Expected 3 samples, got %d", tui.stats.Samples)
	}

	// 再次传入包含旧样本的快照，只处理新增部分
	samples = append(samples, makeSamples(10, 20, 30, 40)[3])
	tui.updateFromSnapshot(newTestSnapshot("s1", samples), 0, nil)

	if tui.stats.Samples != 4 {
		t.Errorf("Expected 4 samples after incremental update, got %d", tui.stats.Samples)
	}
	if len(tui.stats.History) != 4 {
		t.Errorf("Expected 4 history points, got %d", len(tui.stats.History))
	}
	if math.Abs(tui.stats.WelfordMean-25) > 0.001 {
		t.Errorf("Expected mean 25, got %.3f", tui.stats.WelfordMean)
	}
	if tui.stats.Min != 10 || tui.stats.Max != 40 {
		t.Errorf("Expected min 10 max 40, got %v %v", tui.stats.Min, tui.stats.Max)
	}
	if tui.stats.Summary["当前"] != "40.0000" {
		t.Errorf("Expected current 40.0000, got %s", tui.stats.Summary["当前"])
	}

	// 新会话重置统计
	tui.updateFromSnapshot(newTestSnapshot("s2", makeSamples(5)), 0, nil)
	if tui.stats.Samples != 1 {
		t.Errorf("Expected stats reset for new session, got %d samples", tui.stats.Samples)
	}
	if tui.session.ID != "s2" {
		t.Errorf("Expected session s2, got %s", tui.session.ID)
	}
}

// TestErrorSamples 测试读取失败的样本
func TestErrorSamples(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	samples := makeSamples(1, 0, 3)
	samples[1].Error = "读取轴 X 失败: 超时"
	snap := newTestSnapshot("s1", samples)
	snap.Dropped = 2
	tui.updateFromSnapshot(snap, 0, nil)

	if tui.stats.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", tui.stats.Errors)
	}
	if tui.stats.WelfordCount != 2 {
		t.Errorf("Expected 2 valid values, got %d", tui.stats.WelfordCount)
	}
	if tui.stats.History[1].Status != pointError {
		t.Error("Error sample should be marked as pointError")
	}
	if tui.stats.Summary["错误"] != "1" || tui.stats.Summary["丢弃"] != "2" {
		t.Errorf("Unexpected summary %v", tui.stats.Summary)
	}
}

// TestWelfordAlgorithm 测试Welford算法的正确性
func TestWelfordAlgorithm(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(10, 20, 30, 40, 50)), 0, nil)

	if math.Abs(tui.stats.WelfordMean-30) > 0.001 {
		t.Errorf("Expected mean 30.000, got %.3f", tui.stats.WelfordMean)
	}

	if tui.stats.WelfordCount != 5 {
		t.Errorf("Expected WelfordCount=5, got %d", tui.stats.WelfordCount)
	}

	// 样本标准差 sqrt(250) = 15.8114
	if tui.stats.Summary["标准差"] != "15.8114" {
		t.Errorf("Expected stddev 15.8114, got %s", tui.stats.Summary["标准差"])
	}
}

// TestHistoryBuffering 测试历史缓冲区大小限制
func TestHistoryBuffering(t *testing.T) {
	tuiConfig := NewConfigWithOptions(WithHistorySize(10))
	tui := NewTUIForTest(&mockSessionView{}, tuiConfig)

	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i)
	}
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(values...)), 0, nil)

	if len(tui.stats.History) != 10 {
		t.Errorf("Expected history size 10, got %d", len(tui.stats.History))
	}
	if tui.stats.History[0].Value != 15 {
		t.Errorf("Expected oldest retained value 15, got %v", tui.stats.History[0].Value)
	}
	if tui.stats.Samples != 25 {
		t.Errorf("Statistics should still count all samples, got %d", tui.stats.Samples)
	}
}

// TestTUINavigation 测试事件列表导航
func TestTUINavigation(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	// 没有事件时导航无效果
	tui.navigateDown()
	if tui.selectedRow != -1 {
		t.Errorf("Expected selectedRow=-1 without events, got %d", tui.selectedRow)
	}

	events := []core.AnomalyEvent{
		{Timestamp: baseTime, Kind: core.TrendUp, Detail: "n=7"},
		{Timestamp: baseTime.Add(time.Second), Kind: core.ShiftDown, Detail: "n=8,mean=1.000000"},
		{Timestamp: baseTime.Add(2 * time.Second), Kind: core.TrendDown, Detail: "n=7"},
	}
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(1)), 3, events)

	// 向下从最新的事件开始
	tui.navigateDown()
	if tui.selectedRow != 2 {
		t.Errorf("Expected selectedRow=2 after navigateDown, got %d", tui.selectedRow)
	}

	tui.navigateDown()
	tui.navigateDown()
	if tui.selectedRow != 0 {
		t.Errorf("Expected selectedRow=0, got %d", tui.selectedRow)
	}

	// 在最早的事件上按下键，取消选择
	tui.navigateDown()
	if tui.selectedRow != -1 {
		t.Errorf("Expected selectedRow=-1 after wrapping, got %d", tui.selectedRow)
	}

	// 向上从最早的事件开始
	tui.navigateUp()
	if tui.selectedRow != 0 {
		t.Errorf("Expected selectedRow=0 after navigateUp, got %d", tui.selectedRow)
	}

	// 事件减少时修正选择
	tui.selectedRow = 2
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(1)), 1, events[:1])
	if tui.selectedRow != 0 {
		t.Errorf("Expected selectedRow clamped to 0, got %d", tui.selectedRow)
	}
}

// TestEventListText 测试事件列表文本
func TestEventListText(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	if !strings.Contains(tui.eventListText(), "暂无异常事件") {
		t.Error("Empty list should show placeholder")
	}

	events := []core.AnomalyEvent{
		{Timestamp: baseTime, Kind: core.TrendUp, Detail: "n=7"},
		{Timestamp: baseTime.Add(time.Second), Kind: core.ShiftDown, Detail: "n=8,mean=1.000000"},
	}
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(1)), 60, events)
	tui.selectedRow = 0

	text := tui.eventListText()
	if !strings.Contains(text, "共 60 个事件") {
		t.Errorf("Expected total count header, got:\n%s", text)
	}
	lines := strings.Split(text, "\n")
	if !strings.Contains(lines[1], "SHIFT_DOWN") {
		t.Errorf("Newest event should be listed first, got %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "[::r]") || !strings.Contains(lines[2], "TREND_UP") {
		t.Errorf("Selected event should be highlighted, got %s", lines[2])
	}
}

// TestDrawChart 测试图表绘制
func TestDrawChart(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	values := make([]float64, 10)
	for i := range values {
		values[i] = float64(10 + i*5)
	}
	events := []core.AnomalyEvent{
		{Timestamp: baseTime.Add(600 * time.Millisecond), Kind: core.TrendUp, Detail: "n=7"},
	}
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(values...)), 1, events)

	chart := tui.drawChart(60, 12)
	if chart == "" {
		t.Fatal("Chart should not be empty")
	}

	t.Logf("Chart content:\n%s", chart)

	if !strings.Contains(chart, "└") {
		t.Error("Chart should contain the X axis")
	}
	if !strings.Contains(chart, "▲") {
		t.Error("Chart should contain the TREND_UP marker")
	}
	if !containsBraille(chart) {
		t.Error("Chart should contain braille dots")
	}
	if lines := strings.Split(chart, "\n"); len(lines) > 12 {
		t.Errorf("Chart should fit in 12 lines, got %d", len(lines))
	}
}

// TestDrawChartEdgeCases 测试图表的边界情况
func TestDrawChartEdgeCases(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	if got := tui.drawChart(60, 12); got != "没有数据" {
		t.Errorf("Expected '没有数据', got %q", got)
	}

	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(1, 2, 3)), 0, nil)

	if got := tui.drawChart(10, 3); got != "终端尺寸过小" {
		t.Errorf("Expected '终端尺寸过小', got %q", got)
	}
	if got := tui.drawChart(2000, 20); got != "终端尺寸过大" {
		t.Errorf("Expected '终端尺寸过大', got %q", got)
	}

	// 只有失败样本时没有有效数据
	samples := makeSamples(0, 0)
	samples[0].Error = "e"
	samples[1].Error = "e"
	tui.updateFromSnapshot(newTestSnapshot("s2", samples), 0, nil)
	if got := tui.drawChart(60, 12); got != "当前窗口内没有有效数据" {
		t.Errorf("Expected no valid data message, got %q", got)
	}
}

// TestCalculateValueRange 测试负值和常量值的范围计算
func TestCalculateValueRange(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	points := []dataPoint{
		{Timestamp: baseTime, Value: -10},
		{Timestamp: baseTime.Add(time.Second), Value: 10},
		{Timestamp: baseTime.Add(2 * time.Second), Value: math.NaN(), Status: pointError},
	}
	minVal, maxVal, valueRange, errMsg := tui.calculateValueRange(points, baseTime, baseTime.Add(time.Minute))
	if errMsg != "" {
		t.Fatalf("Unexpected error %s", errMsg)
	}
	if minVal != -12 || maxVal != 12 || valueRange != 24 {
		t.Errorf("Expected [-12, 12] range 24, got [%v, %v] range %v", minVal, maxVal, valueRange)
	}

	constant := []dataPoint{{Timestamp: baseTime, Value: 5}}
	minVal, maxVal, _, _ = tui.calculateValueRange(constant, baseTime, baseTime.Add(time.Minute))
	if !(minVal < 5 && maxVal > 5) {
		t.Errorf("Constant series should get a non-empty range, got [%v, %v]", minVal, maxVal)
	}
}

// TestTimeWindow 测试时间窗口计算
func TestTimeWindow(t *testing.T) {
	tui := NewTUIForTest(&mockSessionView{}, NewConfigWithOptions(WithHistorySize(10)))

	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(1, 2, 3)), 0, nil)
	start, end := tui.getTimeWindow()
	if !start.Equal(baseTime) || end.Sub(start) != time.Second {
		t.Errorf("Fill phase window should start at first sample, got %v ~ %v", start, end)
	}

	values := make([]float64, 30)
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(values...)), 0, nil)
	start, end = tui.getTimeWindow()
	last := baseTime.Add(29 * 100 * time.Millisecond)
	if !end.Equal(last) || end.Sub(start) != time.Second {
		t.Errorf("Stopped session window should end at last sample, got %v ~ %v", start, end)
	}

	if len(tui.stats.History) != 10 {
		t.Fatalf("Expected history trimmed to 10 points, got %d", len(tui.stats.History))
	}
	if tui.stats.History[0].Timestamp.Before(start) {
		t.Errorf("Oldest kept point %v should be inside window starting %v", tui.stats.History[0].Timestamp, start)
	}

	// 记录中窗口跟随当前时间
	recording := newTestSnapshot("s1", makeSamples(values...))
	recording.Recording = true
	now := last.Add(500 * time.Millisecond)
	tui.now = func() time.Time { return now }
	tui.updateFromSnapshot(recording, 0, nil)
	if start, end := tui.getTimeWindow(); !end.Equal(now) || end.Sub(start) != time.Second {
		t.Errorf("Recording window should end at now, got %v ~ %v", start, end)
	}

	if x := tui.timestampToX(end, start, end, 40); x != 39 {
		t.Errorf("Window end should map to the last column, got %d", x)
	}
	if x := tui.timestampToX(start.Add(-time.Millisecond), start, end, 40); x != -1 {
		t.Errorf("Timestamp before window should map to -1, got %d", x)
	}
}

// TestConfigValidate 测试配置验证
func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	invalid := []*Config{
		NewConfigWithOptions(WithRefreshInterval(time.Millisecond)),
		NewConfigWithOptions(WithEventList(0, 8)),
		NewConfigWithOptions(WithChartSize(0, 5)),
		NewConfigWithOptions(WithHistorySize(5)),
		NewConfigWithOptions(WithValueBufferRatio(-1)),
	}
	for i, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Errorf("Case %d: expected validation error", i)
		}
	}
}

// TestProcessDataStop 测试数据处理循环的刷新和停止
func TestProcessDataStop(t *testing.T) {
	view := &mockSessionView{snap: newTestSnapshot("s1", makeSamples(1, 2))}
	tui := NewTUIForTest(view, NewConfigWithOptions(WithRefreshInterval(10*time.Millisecond)))

	go tui.processData()

	time.Sleep(50 * time.Millisecond)
	tui.Stop()
	tui.Stop() // 重复调用安全

	select {
	case <-tui.doneChan:
	case <-time.After(time.Second):
		t.Fatal("processData should exit after Stop")
	}

	view.mu.Lock()
	calls := view.calls
	view.mu.Unlock()
	if calls < 2 {
		t.Errorf("Expected periodic snapshots, got %d calls", calls)
	}

	tui.statsMu.RLock()
	defer tui.statsMu.RUnlock()
	if tui.stats.Samples != 2 {
		t.Errorf("Expected 2 samples, got %d", tui.stats.Samples)
	}
}

func containsBraille(s string) bool {
	for _, r := range s {
		if r > 0x2800 && r <= 0x28FF {
			return true
		}
	}
	return false
}

// BenchmarkDrawChart 基准测试图表绘制性能
func BenchmarkDrawChart(b *testing.B) {
	tui := NewTUIForTest(&mockSessionView{}, DefaultConfig())

	values := make([]float64, 300)
	for i := range values {
		values[i] = math.Sin(float64(i) / 10)
	}
	tui.updateFromSnapshot(newTestSnapshot("s1", makeSamples(values...)), 0, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tui.drawChart(80, 20)
	}
}
