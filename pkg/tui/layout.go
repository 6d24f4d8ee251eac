// Package tui 布局管理模块
package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// setupUI 设置用户界面布局
func (t *TUI) setupUI() {
	t.status.SetDynamicColors(true)
	t.status.SetText("[green]GoAxis 已启动[white] - [yellow]等待会话数据...[white]")

	// 设置图表属性
	t.chart.SetWordWrap(false)
	t.chart.SetDynamicColors(true)
	t.chart.SetText("[yellow]正在初始化，等待数据...[white]")

	t.eventList.SetDynamicColors(true)
	t.eventList.SetWordWrap(false)
	t.eventList.SetBorder(true)
	t.eventList.SetTitle(" SPC事件 ")

	// 创建主垂直布局
	t.flex = tview.NewFlex()
	t.flex.SetDirection(tview.FlexRow)
	t.layout(nil)

	t.app.SetRoot(t.flex, true)
}

// layout 按 状态栏/统计表/图表/事件列表 的顺序排列组件
func (t *TUI) layout(rows []*tview.Flex) {
	t.flex.Clear()
	t.flex.AddItem(t.status, 1, 0, false)
	for _, row := range rows {
		t.flex.AddItem(row, 1, 0, false)
	}
	t.flex.AddItem(t.chart, 0, 1, false)
	t.flex.AddItem(t.eventList, t.tuiConfig.EventListHeight+2, 0, false) // +2 为边框
	t.rowFlexes = rows
}

// rebuildUI 重建UI布局
func (t *TUI) rebuildUI() {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	t.status.SetText(t.statusText())
	t.eventList.SetText(t.eventListText())

	if t.stats.Samples == 0 {
		t.layout(nil)
		return
	}

	headerFlex := t.createHeaderRow(summaryOrder)
	rowFlex := t.createDataRow(t.session.Config.Axis, summaryOrder)
	t.layout([]*tview.Flex{headerFlex, rowFlex})
}

// statusText 状态栏文本，调用方持有statsMu
func (t *TUI) statusText() string {
	if t.session.ID == "" {
		return "[green]GoAxis 已启动[white] - [yellow]等待会话数据...[white]"
	}

	state := "[red]● 记录中[white]"
	if !t.session.Recording {
		state = "[gray]■ 已停止[white]"
	}
	return fmt.Sprintf("%s  轴 [green]%s[white]  %s  间隔 %v  会话 [gray]%s[white]  [gray](q 退出, ↑/↓ 选择事件)[white]",
		state, t.session.Config.Axis, t.session.Config.PositionType, t.session.Config.PollInterval, t.session.ID)
}

// eventListText 最近事件列表，新事件在上，调用方持有statsMu
func (t *TUI) eventListText() string {
	if len(t.events) == 0 {
		return "[gray]暂无异常事件[white]"
	}

	var lines []string
	if t.eventTotal > len(t.events) {
		lines = append(lines, fmt.Sprintf("[gray]共 %d 个事件，显示最近 %d 个[white]", t.eventTotal, len(t.events)))
	}
	for i := len(t.events) - 1; i >= 0; i-- {
		e := t.events[i]
		line := fmt.Sprintf("%s  %s%s %-10s[white] %s",
			e.Timestamp.Format("15:04:05.000"), eventColor(e.Kind), eventSymbol(e.Kind), e.Kind, e.Detail)
		if i == t.selectedRow {
			line = "[::r]" + line + "[::-]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// createHeaderRow 创建表头行
func (t *TUI) createHeaderRow(summaryKeys []string) *tview.Flex {
	headerFlex := tview.NewFlex()
	headerFlex.SetDirection(tview.FlexColumn)

	axisHeaderText := tview.NewTextView()
	axisHeaderText.SetText(fmt.Sprintf("[yellow]%-12s[white]", "轴"))
	axisHeaderText.SetDynamicColors(true)
	axisHeaderText.SetTextAlign(tview.AlignLeft)
	headerFlex.AddItem(axisHeaderText, 0, 2, false)

	for _, header := range summaryKeys {
		headerText := tview.NewTextView()
		headerText.SetText(fmt.Sprintf("[yellow]%10s[white]", header))
		headerText.SetDynamicColors(true)
		headerText.SetTextAlign(tview.AlignCenter)
		headerFlex.AddItem(headerText, 0, 1, false)
	}

	return headerFlex
}

// createDataRow 创建数据行，调用方持有statsMu
func (t *TUI) createDataRow(axis string, summaryKeys []string) *tview.Flex {
	rowFlex := tview.NewFlex()
	rowFlex.SetDirection(tview.FlexColumn)

	axisText := tview.NewTextView()
	axisText.SetText(fmt.Sprintf("%s%-12s[white]", axisColor, axis))
	axisText.SetDynamicColors(true)
	axisText.SetTextAlign(tview.AlignLeft)
	rowFlex.AddItem(axisText, 0, 2, false)

	for _, key := range summaryKeys {
		value := "N/A"
		if val, exists := t.stats.Summary[key]; exists && val != "" {
			value = val
		}

		dataText := tview.NewTextView()
		dataText.SetText(fmt.Sprintf("%10s", value))
		dataText.SetTextAlign(tview.AlignCenter)
		dataText.SetTextColor(tcell.ColorWhite)
		rowFlex.AddItem(dataText, 0, 1, false)
	}

	return rowFlex
}

// updateChart 更新图表显示
func (t *TUI) updateChart() {
	if t.testMode || t.chart == nil {
		return
	}

	t.statsMu.RLock()
	defer t.statsMu.RUnlock()

	if len(t.stats.History) == 0 {
		t.chart.SetText("没有数据")
		return
	}

	// 获取图表视图的实际可绘制尺寸
	_, _, width, height := t.chart.GetInnerRect()

	// 确保有合理的最小尺寸
	if width < 20 {
		width = 80
	}
	if height < 10 {
		height = 15
	}

	t.chart.SetText(t.drawChart(width, height))
}

// safeUIUpdate 安全地执行UI更新操作
func (t *TUI) safeUIUpdate(updateFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			// 如果应用已经停止，忽略panic
		}
	}()
	t.app.QueueUpdateDraw(updateFunc)
}
