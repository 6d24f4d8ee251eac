// Package tui 工具函数和辅助类型
package tui

import (
	"fmt"
	"math"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// axisColor 轴曲线的颜色
const axisColor = "[green]"

// formatValue 格式化轴位置，保留4位小数
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", v)
}

// eventColor 根据事件类型返回颜色：趋势为黄色，偏移为红色
func eventColor(kind core.EventKind) string {
	switch kind {
	case core.TrendUp, core.TrendDown:
		return "[yellow]"
	case core.ShiftUp, core.ShiftDown:
		return "[red]"
	default:
		return "[white]"
	}
}

// eventSymbol 根据事件方向返回标记符号
func eventSymbol(kind core.EventKind) string {
	switch kind {
	case core.TrendUp, core.ShiftUp:
		return "▲"
	case core.TrendDown, core.ShiftDown:
		return "▼"
	default:
		return "•"
	}
}

// abs 返回整数的绝对值
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
