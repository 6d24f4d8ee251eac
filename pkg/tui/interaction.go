// Package tui 交互控制模块
package tui

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// 导航事件频率控制 - 包级私有变量
var (
	navigationEventCounter   int                       // 事件计数器
	navigationEventThreshold = 5                       // 5次事件后休息
	navigationRestDuration   = 100 * time.Millisecond // 休息100ms
	isNavigationResting      bool                      // 是否在休息状态
	lastNavigationEventTime  time.Time                 // 最后一次事件时间
)

// shouldHandleNavigationEvent 判断是否应该处理导航事件
func shouldHandleNavigationEvent() bool {
	now := time.Now()

	// 如果正在休息中，检查是否休息够了
	if isNavigationResting {
		if now.Sub(lastNavigationEventTime) >= navigationRestDuration {
			// 休息够了，重置状态
			isNavigationResting = false
			navigationEventCounter = 0
			return true
		}
		// 还在休息，忽略事件
		return false
	}

	return true
}

// recordNavigationEvent 记录导航事件
func recordNavigationEvent() {
	navigationEventCounter++
	lastNavigationEventTime = time.Now()

	// 检查是否达到阈值
	if navigationEventCounter >= navigationEventThreshold {
		isNavigationResting = true
	}
}

// setupKeyBindings 设置键盘绑定
func (t *TUI) setupKeyBindings() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			t.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				t.Stop()
				return nil
			}
		case tcell.KeyUp:
			if shouldHandleNavigationEvent() {
				t.navigateUp()
				recordNavigationEvent()
			}
			return nil
		case tcell.KeyDown:
			if shouldHandleNavigationEvent() {
				t.navigateDown()
				recordNavigationEvent()
			}
			return nil
		}
		return event
	})
}

// navigateUp 在事件列表中向上（更新的事件）移动
// 列表按时间倒序显示，所以向上意味着索引增大
func (t *TUI) navigateUp() {
	t.statsMu.Lock()
	n := len(t.events)
	if n == 0 {
		t.statsMu.Unlock()
		return
	}

	if t.selectedRow == -1 {
		// 从未选中状态按上键，选择最早的事件
		t.selectedRow = 0
	} else if t.selectedRow < n-1 {
		t.selectedRow++
	} else {
		// 在最新的事件上按上键，取消选择
		t.selectedRow = -1
	}
	t.statsMu.Unlock()

	t.redrawSelection()
}

// navigateDown 在事件列表中向下（更早的事件）移动
func (t *TUI) navigateDown() {
	t.statsMu.Lock()
	n := len(t.events)
	if n == 0 {
		t.statsMu.Unlock()
		return
	}

	if t.selectedRow == -1 {
		// 从未选中状态按下键，选择最新的事件
		t.selectedRow = n - 1
	} else if t.selectedRow > 0 {
		t.selectedRow--
	} else {
		// 在最早的事件上按下键，取消选择
		t.selectedRow = -1
	}
	t.statsMu.Unlock()

	t.redrawSelection()
}

// redrawSelection 选择变化后立即重绘事件列表和图表
func (t *TUI) redrawSelection() {
	if t.testMode {
		return
	}

	t.statsMu.RLock()
	t.eventList.SetText(t.eventListText())
	t.statsMu.RUnlock()

	t.updateChart()
}
