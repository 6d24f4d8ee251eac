package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/correlate"
	"github.com/Kevin-Rudy/goaxis/pkg/publish"
	"github.com/Kevin-Rudy/goaxis/pkg/recorder"
	"github.com/Kevin-Rudy/goaxis/pkg/source"
	"github.com/Kevin-Rudy/goaxis/pkg/tui"
	"github.com/Kevin-Rudy/goaxis/pkg/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

const (
	dialTimeout   = 5 * time.Second
	uploadTimeout = 2 * time.Minute
)

// runApp 主要应用逻辑处理函数
func runApp(c *cli.Context) error {
	// 构建配置
	appConfig, err := buildConfigFromCLI(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("参数错误: %v", err), 1)
	}

	// 验证配置
	if err := validateConfig(appConfig); err != nil {
		return cli.Exit(fmt.Sprintf("配置验证失败: %v", err), 1)
	}

	logger, closeLog, err := newLogger(appConfig)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closeLog()

	// 显示运行配置
	printRunningConfig(appConfig)

	// 显示系统环境信息
	showSystemInfo()

	ctx, stopSignals := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	fmt.Println("\n正在初始化数据源...")

	src, closeSource, err := createSource(ctx, appConfig, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建数据源: %v", err), 1)
	}
	defer closeSource()

	registry := prometheus.NewRegistry()
	opts := []recorder.SessionOption{
		recorder.WithLogger(logger),
		recorder.WithRegisterer(registry),
	}

	if appConfig.PublishEvents {
		sink, err := createPublisher(ctx, appConfig, logger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("无法创建事件发布器: %v", err), 1)
		}
		defer sink.Close()
		opts = append(opts, recorder.WithPublisher(sink))
	}

	if appConfig.MetricsAddr != "" {
		shutdown := serveMetrics(appConfig.MetricsAddr, registry, logger)
		defer shutdown()
	}

	session, err := recorder.NewSession(src, appConfig.RecorderConfig, opts...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("无法创建记录会话: %v", err), 1)
	}

	if err := session.Start(appConfig.Session); err != nil {
		return cli.Exit(fmt.Sprintf("无法启动记录: %v", err), 1)
	}
	fmt.Printf("记录已开始，会话 %s\n", session.SessionID())

	if err := waitForStop(ctx, appConfig, session); err != nil {
		logger.Error("TUI运行出错", "error", err)
	}
	// 第一次Ctrl+C只结束记录，之后恢复默认的信号处理
	stopSignals()

	fmt.Println("\n正在停止记录...")
	result, err := session.Stop()
	if err != nil {
		if !errors.Is(err, recorder.ErrShutdownTimeout) {
			return cli.Exit(fmt.Sprintf("停止记录失败: %v", err), 1)
		}
		fmt.Printf("警告: %v，已有样本仍会导出\n", err)
	}
	fmt.Printf("共记录 %d 个样本，队列丢弃 %d 个值\n", result.Count, session.Dropped())

	path, err := session.Export(appConfig.Output, appConfig.Tolerance)
	if err != nil {
		if errors.Is(err, correlate.ErrNoSamples) {
			return cli.Exit("没有可导出的样本", 1)
		}
		return cli.Exit(fmt.Sprintf("导出失败: %v", err), 1)
	}
	fmt.Printf("记录已导出: %s\n", path)

	total, events := session.Events(eventPrintLimit)
	printEvents(total, events)

	if appConfig.S3Bucket != "" {
		if err := uploadExport(appConfig, path, session.SessionID(), logger); err != nil {
			return cli.Exit(fmt.Sprintf("上传失败: %v", err), 1)
		}
	}

	fmt.Println("\n程序已退出")
	return nil
}

// createSource 根据配置创建数据源，返回的关闭函数总是非nil
func createSource(ctx context.Context, config *AppConfig, logger *slog.Logger) (core.AxisDataSource, func() error, error) {
	noop := func() error { return nil }

	switch config.SourceKind {
	case sourceMQTT:
		conn, err := dialBroker(ctx, config.MQTTBroker)
		if err != nil {
			return nil, noop, err
		}
		src, err := source.NewMQTTSource(ctx, conn, config.MQTTConfig, source.WithMQTTLogger(logger))
		if err != nil {
			conn.Close()
			return nil, noop, err
		}
		fmt.Printf("已连接MQTT broker %s\n", config.MQTTBroker)
		return src, src.Close, nil
	default:
		src, err := source.NewSimulator(config.SimConfig)
		if err != nil {
			return nil, noop, err
		}
		fmt.Println("使用模拟数据源")
		return src, noop, nil
	}
}

// createPublisher 创建MQTT事件发布器
func createPublisher(ctx context.Context, config *AppConfig, logger *slog.Logger) (*publish.MQTTSink, error) {
	conn, err := dialBroker(ctx, config.MQTTBroker)
	if err != nil {
		return nil, err
	}
	sink, err := publish.NewMQTTSink(ctx, conn, config.PublishConfig, publish.WithLogger(logger))
	if err != nil {
		conn.Close()
		return nil, err
	}
	fmt.Printf("SPC事件将发布到 %s\n", sink.Topic())
	return sink, nil
}

// dialBroker 建立到MQTT broker的TCP连接
func dialBroker(ctx context.Context, address string) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", address, err)
	}
	return conn, nil
}

// serveMetrics 在后台提供Prometheus指标，返回关闭函数
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常退出", "addr", addr, "error", err)
		}
	}()
	fmt.Printf("Prometheus指标: http://%s/metrics\n", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// waitForStop 阻塞直到达到记录时长、收到信号或用户退出TUI
func waitForStop(ctx context.Context, config *AppConfig, session *recorder.Session) error {
	var timeout <-chan time.Time
	if config.Duration > 0 {
		timer := time.NewTimer(config.Duration)
		defer timer.Stop()
		timeout = timer.C
	}

	if !config.UseTUI {
		if config.Duration > 0 {
			fmt.Printf("记录 %v，按Ctrl+C提前结束\n", config.Duration)
		} else {
			fmt.Println("按Ctrl+C结束记录")
		}
		select {
		case <-ctx.Done():
		case <-timeout:
		}
		return nil
	}

	fmt.Println("\n正在启动TUI界面...")
	printUsageInstructions()

	ui := tui.NewTUI(session, config.TUIConfig)
	go func() {
		select {
		case <-ctx.Done():
		case <-timeout:
		}
		ui.Stop()
	}()

	// 阻塞直到用户退出或被上面的goroutine停止
	return ui.Run()
}

// uploadExport 把导出文件上传到S3
func uploadExport(config *AppConfig, path, sessionID string, logger *slog.Logger) error {
	uploader, err := upload.NewS3UploaderForRegion(config.S3Region, config.S3Bucket, config.S3Prefix, upload.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	location, err := uploader.Upload(ctx, path, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("已上传: %s\n", location)
	return nil
}

// printRunningConfig 打印运行配置信息
func printRunningConfig(config *AppConfig) {
	fmt.Printf("轴: %s\n", config.Session.Axis)
	fmt.Printf("位置类型: %s\n", config.Session.PositionType)
	fmt.Printf("轮询间隔: %v\n", config.Session.PollInterval)
	fmt.Printf("数据源: %s\n", config.SourceKind)
	fmt.Printf("SPC窗口: %d (趋势 n=%d, 偏移 n=%d)\n",
		config.RecorderConfig.Rules.WindowSize, config.RecorderConfig.Rules.TrendN, config.RecorderConfig.Rules.ShiftN)
	fmt.Printf("输出文件: %s\n", config.Output)
}
