package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
)

// createCliApp 创建CLI应用实例
func createCliApp() *cli.App {
	app := &cli.App{
		Name:    AppName,
		Version: AppVersion,
		Usage:   AppDesc,
		Flags:   createCliFlags(),
		Action:  runApp,
		Before: func(c *cli.Context) error {
			// 显示启动信息
			fmt.Printf("正在启动 %s v%s...\n", AppName, AppVersion)
			return nil
		},
	}

	// 添加版本子命令
	app.Commands = createCommands()

	return app
}

// createCliFlags 创建CLI参数定义
func createCliFlags() []cli.Flag {
	return []cli.Flag{
		// 会话
		&cli.StringFlag{
			Name:    "axis",
			Aliases: []string{"a"},
			Value:   "X",
			Usage:   "要记录的轴名称",
		},
		&cli.StringFlag{
			Name:    "position",
			Aliases: []string{"p"},
			Value:   "ABSOLUTE",
			Usage:   "位置类型: ABSOLUTE, MACHINE, RELATIVE, DISTANCE_TO_GO 或 0-3",
		},
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"n"},
			Value:   250 * time.Millisecond,
			Usage:   "轮询间隔 (例如: 100ms, 1s)",
		},
		&cli.DurationFlag{
			Name:    "duration",
			Aliases: []string{"d"},
			Value:   0,
			Usage:   "记录时长，0表示直到Ctrl+C或按q",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "导出的CSV路径，默认为临时目录下的 goaxis_recording.csv",
		},
		&cli.DurationFlag{
			Name:  "tolerance",
			Value: 0,
			Usage: "事件关联容差，0表示 轮询间隔*0.6",
		},

		// SPC与队列
		&cli.IntFlag{
			Name:  "window",
			Value: 50,
			Usage: "SPC滑动窗口大小",
		},
		&cli.IntFlag{
			Name:  "trend-n",
			Value: 7,
			Usage: "趋势规则需要的连续单调点数",
		},
		&cli.IntFlag{
			Name:  "shift-n",
			Value: 8,
			Usage: "偏移规则需要的同侧点数",
		},
		&cli.IntFlag{
			Name:  "queue-size",
			Value: 10000,
			Usage: "采样器到分析器的队列容量",
		},
		&cli.DurationFlag{
			Name:  "join-timeout",
			Value: 5 * time.Second,
			Usage: "停止时等待goroutine退出的最长时间",
		},

		// 数据源
		&cli.StringFlag{
			Name:  "source",
			Value: sourceSimulator,
			Usage: "数据源: sim 或 mqtt",
		},
		&cli.Float64Flag{
			Name:  "sim-amplitude",
			Value: 0.5,
			Usage: "模拟器正弦振幅",
		},
		&cli.Float64Flag{
			Name:  "sim-drift",
			Value: 0,
			Usage: "模拟器每秒线性漂移量",
		},
		&cli.Float64Flag{
			Name:  "sim-noise",
			Value: 0.01,
			Usage: "模拟器噪声标准差",
		},
		&cli.Float64Flag{
			Name:  "sim-failure-rate",
			Value: 0,
			Usage: "模拟器读取失败概率 (0-1)",
		},
		&cli.StringFlag{
			Name:  "mqtt-broker",
			Value: "localhost:1883",
			Usage: "MQTT broker地址 (host:port)",
		},
		&cli.StringFlag{
			Name:  "mqtt-prefix",
			Value: "goaxis",
			Usage: "MQTT主题前缀",
		},
		&cli.DurationFlag{
			Name:  "mqtt-max-age",
			Value: 2 * time.Second,
			Usage: "MQTT最新值的有效期，0表示永不过期",
		},
		&cli.BoolFlag{
			Name:  "publish-events",
			Usage: "把SPC事件实时发布到 <前缀>/<轴>/events",
		},

		// 界面
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "显示实时终端界面",
		},
		&cli.IntFlag{
			Name:    "buffer",
			Aliases: []string{"b"},
			Value:   300,
			Usage:   "TUI图表历史缓冲区大小",
		},
		&cli.DurationFlag{
			Name:    "refresh-rate",
			Aliases: []string{"r"},
			Value:   200 * time.Millisecond,
			Usage:   "UI刷新频率 (例如: 100ms, 500ms)",
		},

		// 运维
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Prometheus指标监听地址 (例如: :9100)，为空则不启用",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "导出后上传到的S3桶，为空则不上传",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Value: "goaxis",
			Usage: "S3对象键前缀",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "S3区域，为空则使用AWS默认配置",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "日志级别: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "日志文件路径，TUI模式下未指定则不输出日志",
		},
	}
}

// createCommands 创建子命令
func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "显示详细版本信息",
			Action: func(c *cli.Context) error {
				fmt.Printf("%s v%s\n", AppName, AppVersion)
				fmt.Printf("描述: %s\n", AppDesc)
				fmt.Printf("系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
				fmt.Printf("Go版本: %s\n", runtime.Version())
				return nil
			},
		},
	}
}
