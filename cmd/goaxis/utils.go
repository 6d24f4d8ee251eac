package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/lmittmann/tint"
)

// 程序信息常量
const (
	AppName    = "goaxis"
	AppVersion = "0.1.0"
	AppDesc    = "数控机床轴数据记录与SPC异常检测工具"
)

// eventPrintLimit 导出后打印的最近事件数量
const eventPrintLimit = 50

// showSystemInfo 显示系统环境信息
func showSystemInfo() {
	fmt.Println("\n系统信息:")
	fmt.Printf("  操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go版本: %s\n", runtime.Version())
}

// printUsageInstructions 显示TUI操作说明
func printUsageInstructions() {
	fmt.Println("操作说明:")
	fmt.Println("  ↑/↓ 方向键  - 在SPC事件之间选择")
	fmt.Println("  在边界继续按方向键 - 取消选择")
	fmt.Println("  q 或 Ctrl+C - 停止记录并导出")
	fmt.Println("========================================")
}

// printEvents 打印事件总数和最近的事件
func printEvents(total int, events []core.AnomalyEvent) {
	fmt.Printf("\nSPC事件: 共 %d 个", total)
	if total > len(events) {
		fmt.Printf("，显示最近 %d 个", len(events))
	}
	fmt.Println()

	for _, e := range events {
		fmt.Printf("  %s  %-10s %s\n", e.Timestamp.Format("15:04:05.000"), e.Kind, e.Detail)
	}
}

// newLogger 创建tint日志记录器
// TUI运行时终端被界面占用，未指定日志文件则丢弃日志
func newLogger(config *AppConfig) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	noColor := false

	switch {
	case config.LogFile != "":
		f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("无法打开日志文件: %w", err)
		}
		w, closer, noColor = f, f.Close, true
	case config.UseTUI:
		w = io.Discard
	}

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      config.LogLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
	return logger, closer, nil
}
