// Package spc 规则引擎
package spc

import (
	"fmt"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/montanaflynn/stats"
)

// Evaluate 对按时间顺序排列的窗口值依次评估趋势规则和偏移规则
// 只返回第一条命中的规则；每条规则在窗口达到自身点数后才参与评估
func Evaluate(values []float64, config *Config) (kind core.EventKind, detail string, matched bool) {
	if kind, detail, matched = evaluateTrend(values, config.TrendN); matched {
		return kind, detail, true
	}
	return evaluateShift(values, config.ShiftN)
}

// evaluateTrend 最近n个值严格单调递增或递减
func evaluateTrend(values []float64, n int) (core.EventKind, string, bool) {
	if len(values) < n {
		return "", "", false
	}

	last := values[len(values)-n:]
	increasing, decreasing := true, true
	for i := 0; i < n-1; i++ {
		if !(last[i] < last[i+1]) {
			increasing = false
		}
		if !(last[i] > last[i+1]) {
			decreasing = false
		}
	}

	detail := fmt.Sprintf("n=%d", n)
	switch {
	case increasing:
		return core.TrendUp, detail, true
	case decreasing:
		return core.TrendDown, detail, true
	}
	return "", "", false
}

// evaluateShift 最近n个值全部严格高于或低于整个窗口的均值
func evaluateShift(values []float64, n int) (core.EventKind, string, bool) {
	if len(values) < n {
		return "", "", false
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return "", "", false
	}

	last := values[len(values)-n:]
	above, below := true, true
	for _, v := range last {
		if !(v > mean) {
			above = false
		}
		if !(v < mean) {
			below = false
		}
	}

	detail := fmt.Sprintf("n=%d,mean=%.6f", n, mean)
	switch {
	case above:
		return core.ShiftUp, detail, true
	case below:
		return core.ShiftDown, detail, true
	}
	return "", "", false
}
