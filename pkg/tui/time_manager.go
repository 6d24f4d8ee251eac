// Package tui 时间管理模块
package tui

import (
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// windowDuration 图表时间窗口的长度 = 历史点数 * 轮询间隔
func (t *TUI) windowDuration() time.Duration {
	interval := t.session.Config.PollInterval
	if interval <= 0 {
		interval = core.DefaultSessionConfig().PollInterval
	}
	return time.Duration(t.tuiConfig.MaxHistorySize) * interval
}

// getTimeWindow 获取当前的时间窗口，调用方持有statsMu
func (t *TUI) getTimeWindow() (start, end time.Time) {
	windowDuration := t.windowDuration()
	history := t.stats.History
	if len(history) == 0 {
		now := t.now()
		return now.Add(-windowDuration), now
	}

	// 记录中跟随当前时间，停止后固定在最后一个样本
	latest := history[len(history)-1].Timestamp
	if t.session.Recording {
		if now := t.now(); now.After(latest) {
			latest = now
		}
	}

	// 用会话的第一个样本判断，历史缓冲区被裁剪后跨度总小于窗口
	first := t.stats.First
	if first.IsZero() {
		first = history[0].Timestamp
	}
	if latest.Sub(first) < windowDuration {
		// 填充阶段：固定窗口，从第一个样本开始
		return first, first.Add(windowDuration)
	}
	// 滚动阶段：跟随最新时间的移动窗口
	return latest.Add(-windowDuration), latest
}

// timestampToX 将时间戳转换为X坐标，窗口外返回-1或chartWidth
func (t *TUI) timestampToX(timestamp time.Time, windowStart, windowEnd time.Time, chartWidth int) int {
	windowDuration := windowEnd.Sub(windowStart)
	if windowDuration == 0 {
		return 0
	}

	offset := timestamp.Sub(windowStart)
	if offset < 0 {
		return -1 // 在窗口左边界外
	}
	if offset > windowDuration {
		return chartWidth // 在窗口右边界外
	}

	// 将时间偏移转换为X坐标，右边界落在最后一列
	x := int(float64(offset) / float64(windowDuration) * float64(chartWidth))
	if x >= chartWidth {
		x = chartWidth - 1
	}
	return x
}
