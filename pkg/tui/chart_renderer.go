// Package tui 图表渲染模块
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// brailleCell 定义盲文字符的cell结构
type brailleCell struct {
	char  int
	color string
}

// brailleDotMap 盲文点阵的映射关系 (2x4 grid)
var brailleDotMap = [4][2]int{
	{0b00000001, 0b00001000}, // (y:0, x:0), (y:0, x:1)
	{0b00000010, 0b00010000}, // (y:1, x:0), (y:1, x:1)
	{0b00000100, 0b00100000}, // (y:2, x:0), (y:2, x:1)
	{0b01000000, 0b10000000}, // (y:3, x:0), (y:3, x:1)
}

// validateChartSize 验证图表尺寸是否合理
func (t *TUI) validateChartSize(width, height int) string {
	if height < t.tuiConfig.MinChartHeight || width < t.tuiConfig.MinChartWidth {
		return "终端尺寸过小"
	}
	if width > t.tuiConfig.MaxChartSize || height > t.tuiConfig.MaxChartSize {
		return "终端尺寸过大"
	}
	return ""
}

// inWindow 判断时间戳是否位于闭区间窗口内
func inWindow(ts, windowStart, windowEnd time.Time) bool {
	return !ts.Before(windowStart) && !ts.After(windowEnd)
}

// calculateValueRange 计算窗口内数据的值范围
// 轴位置可以为负数，缓冲按值域的比例向两侧扩展
func (t *TUI) calculateValueRange(points []dataPoint, windowStart, windowEnd time.Time) (minVal, maxVal, valueRange float64, errMsg string) {
	found := false
	for _, point := range points {
		if point.Status != pointValue || !inWindow(point.Timestamp, windowStart, windowEnd) {
			continue
		}
		if math.IsNaN(point.Value) || math.IsInf(point.Value, 0) {
			continue
		}
		if !found {
			minVal, maxVal = point.Value, point.Value
			found = true
			continue
		}
		if point.Value < minVal {
			minVal = point.Value
		}
		if point.Value > maxVal {
			maxVal = point.Value
		}
	}

	if !found {
		return 0, 0, 0, "当前窗口内没有有效数据"
	}

	// 如果所有值都一样，特殊处理
	if maxVal == minVal {
		maxVal++
		minVal--
	}

	// 采用缓冲算法
	buffer := (maxVal - minVal) * t.tuiConfig.ValueBufferRatio
	maxVal += buffer
	minVal -= buffer

	valueRange = maxVal - minVal
	if valueRange == 0 {
		valueRange = 1
	}

	return minVal, maxVal, valueRange, ""
}

// drawChart 绘制轴位置曲线和事件标记，调用方持有statsMu
func (t *TUI) drawChart(width, height int) string {
	// 检查图表尺寸是否合理
	if sizeErr := t.validateChartSize(width, height); sizeErr != "" {
		return sizeErr
	}
	if len(t.stats.History) == 0 {
		return "没有数据"
	}

	// 获取当前时间窗口
	windowStart, windowEnd := t.getTimeWindow()

	// 计算值范围
	minVal, maxVal, valueRange, err := t.calculateValueRange(t.stats.History, windowStart, windowEnd)
	if err != "" {
		return err
	}

	// 动态计算Y轴标签宽度
	topLabel := formatValue(maxVal)
	bottomLabel := formatValue(minVal)
	maxLabelLen := len(topLabel)
	if len(bottomLabel) > maxLabelLen {
		maxLabelLen = len(bottomLabel)
	}
	yAxisLabelWidth := maxLabelLen + 2 // +2 为│分隔符和右侧空格留出缓冲

	// 准备画布尺寸，为X轴、事件标记和时间戳留出3行
	chartBodyHeight := height - 3
	chartWidth := width - yAxisLabelWidth

	// 确保画布尺寸合理
	if chartBodyHeight <= 0 || chartWidth <= 0 {
		return "可绘制区域过小"
	}

	// 创建盲文画布
	canvas := make([][]brailleCell, chartWidth)
	for i := range canvas {
		canvas[i] = make([]brailleCell, chartBodyHeight)
	}

	lastValidX, lastValidY := -1, -1
	for _, point := range t.stats.History {
		// 只处理在当前时间窗口内的数据点
		if !inWindow(point.Timestamp, windowStart, windowEnd) {
			continue
		}

		// 读取失败的点使曲线断开
		if point.Status != pointValue || math.IsNaN(point.Value) || math.IsInf(point.Value, 0) {
			lastValidX, lastValidY = -1, -1
			continue
		}

		// 计算X坐标（基于时间戳，使用高分辨率）
		currX := t.timestampToX(point.Timestamp, windowStart, windowEnd, chartWidth*2)
		if currX < 0 || currX >= chartWidth*2 {
			continue
		}

		// 计算Y坐标
		normalized := (point.Value - minVal) / valueRange
		currY := int((1.0 - normalized) * float64(chartBodyHeight*4-1))
		if currY < 0 {
			currY = 0
		} else if currY >= chartBodyHeight*4 {
			currY = chartBodyHeight*4 - 1
		}

		if lastValidX != -1 && lastValidY != -1 {
			t.drawBrailleLine(canvas, lastValidX, lastValidY, currX, currY, axisColor)
		} else {
			setBrailleDot(canvas, currX, currY, axisColor)
		}

		lastValidX, lastValidY = currX, currY
	}

	// 构建输出字符串
	var lines []string

	// 预先计算Y轴标签位置
	yAxisLabelCount := 5
	if chartBodyHeight < yAxisLabelCount {
		yAxisLabelCount = chartBodyHeight
	}

	// 预先计算所有Y轴标签及其对应的像素行号
	yAxisLabels := make(map[int]string)
	if yAxisLabelCount > 1 {
		for i := 0; i < yAxisLabelCount; i++ {
			// 在数值上均匀分布
			normalized := float64(i) / float64(yAxisLabelCount-1) // 0.0 到 1.0
			value := maxVal - normalized*valueRange               // 从最大值到最小值
			pixelRow := int(normalized * float64(chartBodyHeight-1))
			yAxisLabels[pixelRow] = formatValue(value)
		}
	}

	// 绘制Y轴和图表主体
	for i := 0; i < chartBodyHeight; i++ {
		yLabel := yAxisLabels[i]

		var line strings.Builder
		fmt.Fprintf(&line, "[gray]%*s[white] [gray]│[white]", yAxisLabelWidth-2, yLabel)

		for j := 0; j < chartWidth; j++ {
			cell := canvas[j][i]
			if cell.char == 0 {
				line.WriteString(" ")
			} else {
				line.WriteString(cell.color + string(rune(0x2800+cell.char)) + "[white]")
			}
		}
		lines = append(lines, line.String())
	}

	// 绘制X轴
	xAxisLine := fmt.Sprintf("%-*s└%s", yAxisLabelWidth-1, "", strings.Repeat("─", chartWidth))
	lines = append(lines, "[gray]"+xAxisLine+"[white]")

	// 事件标记行
	lines = append(lines, fmt.Sprintf("%-*s%s", yAxisLabelWidth, "", t.drawEventMarkers(windowStart, windowEnd, chartWidth)))

	// X轴时间刻度 - 显示实际的时间窗口
	startTimeStr := windowStart.Format("15:04:05")
	endTimeStr := windowEnd.Format("15:04:05")

	spaceCount := chartWidth - len(startTimeStr) - len(endTimeStr)
	if spaceCount < 1 {
		spaceCount = 1
	}
	timeLine := fmt.Sprintf("%-*s%s%*s%s", yAxisLabelWidth, "", startTimeStr, spaceCount, "", endTimeStr)
	lines = append(lines, "[gray]"+timeLine+"[white]")

	// 保护性检查：确保输出不会超过可用高度
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

// drawEventMarkers 在事件对应的列上绘制方向标记，选中的事件反色显示
func (t *TUI) drawEventMarkers(windowStart, windowEnd time.Time, chartWidth int) string {
	markers := make([]string, chartWidth)
	for i, e := range t.events {
		if !inWindow(e.Timestamp, windowStart, windowEnd) {
			continue
		}
		x := t.timestampToX(e.Timestamp, windowStart, windowEnd, chartWidth)
		if x < 0 || x >= chartWidth {
			continue
		}

		marker := eventColor(e.Kind) + eventSymbol(e.Kind) + "[white]"
		if i == t.selectedRow {
			marker = "[::r]" + marker + "[::-]"
		}
		// 同一列有多个事件时，选中的事件优先显示
		if markers[x] == "" || i == t.selectedRow {
			markers[x] = marker
		}
	}

	var b strings.Builder
	for _, m := range markers {
		if m == "" {
			b.WriteString(" ")
		} else {
			b.WriteString(m)
		}
	}
	return b.String()
}

// setBrailleDot 在高分辨率坐标(x, y)处点亮一个盲文点
func setBrailleDot(canvas [][]brailleCell, x, y int, color string) {
	if len(canvas) == 0 || x < 0 || y < 0 {
		return
	}

	// 每个盲文字符覆盖2x4个子像素
	canvasX := x / 2
	canvasY := y / 4
	if canvasX >= len(canvas) || canvasY >= len(canvas[0]) {
		return
	}

	canvas[canvasX][canvasY].char |= brailleDotMap[y%4][x%2]
	canvas[canvasX][canvasY].color = color
}

// drawBrailleLine 使用布雷森汉姆算法在盲文画布上绘制线段
func (t *TUI) drawBrailleLine(canvas [][]brailleCell, x1, y1, x2, y2 int, color string) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	x, y := x1, y1
	for {
		setBrailleDot(canvas, x, y, color)

		// 检查是否到达终点
		if x == x2 && y == y2 {
			break
		}

		// 计算下一个位置
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}
