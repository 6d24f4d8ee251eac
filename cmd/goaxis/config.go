package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/Kevin-Rudy/goaxis/pkg/correlate"
	"github.com/Kevin-Rudy/goaxis/pkg/publish"
	"github.com/Kevin-Rudy/goaxis/pkg/recorder"
	"github.com/Kevin-Rudy/goaxis/pkg/source"
	"github.com/Kevin-Rudy/goaxis/pkg/spc"
	"github.com/Kevin-Rudy/goaxis/pkg/tui"
	"github.com/urfave/cli/v2"
)

// 数据源类型
const (
	sourceSimulator = "sim"
	sourceMQTT      = "mqtt"
)

// AppConfig 应用层配置聚合
type AppConfig struct {
	Session        core.SessionConfig
	RecorderConfig *recorder.Config
	TUIConfig      *tui.Config
	SimConfig      *source.SimulatorConfig
	MQTTConfig     *source.MQTTConfig
	PublishConfig  *publish.Config

	SourceKind    string
	MQTTBroker    string
	PublishEvents bool
	UseTUI        bool
	Duration      time.Duration
	Output        string
	Tolerance     time.Duration

	MetricsAddr string
	S3Bucket    string
	S3Prefix    string
	S3Region    string

	LogLevel slog.Level
	LogFile  string
}

// buildConfigFromCLI 从命令行参数构建配置
func buildConfigFromCLI(c *cli.Context) (*AppConfig, error) {
	positionType, err := core.ParsePositionType(c.String("position"))
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return nil, fmt.Errorf("未知的日志级别: %s", c.String("log-level"))
	}

	session := core.SessionConfig{
		Axis:         c.String("axis"),
		PositionType: positionType,
		PollInterval: c.Duration("interval"),
	}

	// 构建 recorder 配置
	rules := &spc.Config{
		WindowSize: c.Int("window"),
		TrendN:     c.Int("trend-n"),
		ShiftN:     c.Int("shift-n"),
	}
	recorderConfig := recorder.NewConfigWithOptions(
		recorder.WithRules(rules),
		recorder.WithQueueCapacity(c.Int("queue-size")),
		recorder.WithJoinTimeout(c.Duration("join-timeout")),
	)

	// 构建 TUI 配置
	tuiConfig := tui.DefaultConfig()
	if c.IsSet("buffer") {
		tuiConfig.MaxHistorySize = c.Int("buffer")
	}
	if c.IsSet("refresh-rate") {
		tuiConfig.RefreshInterval = c.Duration("refresh-rate")
	}

	// 构建数据源配置
	simConfig := source.DefaultSimulatorConfig()
	simConfig.Amplitude = c.Float64("sim-amplitude")
	simConfig.Drift = c.Float64("sim-drift")
	simConfig.Noise = c.Float64("sim-noise")
	simConfig.FailureRate = c.Float64("sim-failure-rate")
	simConfig.Seed = time.Now().UnixNano()
	if !containsAxis(simConfig.Axes, session.Axis) {
		simConfig.Axes = append(simConfig.Axes, session.Axis)
	}

	mqttConfig := source.DefaultMQTTConfig()
	mqttConfig.TopicPrefix = c.String("mqtt-prefix")
	mqttConfig.MaxAge = c.Duration("mqtt-max-age")

	publishConfig := publish.DefaultConfig()
	publishConfig.TopicPrefix = c.String("mqtt-prefix")
	publishConfig.Axis = session.Axis

	output := c.String("output")
	if output == "" {
		output = correlate.DefaultPath()
	}

	return &AppConfig{
		Session:        session,
		RecorderConfig: recorderConfig,
		TUIConfig:      tuiConfig,
		SimConfig:      simConfig,
		MQTTConfig:     mqttConfig,
		PublishConfig:  publishConfig,
		SourceKind:     c.String("source"),
		MQTTBroker:     c.String("mqtt-broker"),
		PublishEvents:  c.Bool("publish-events"),
		UseTUI:         c.Bool("tui"),
		Duration:       c.Duration("duration"),
		Output:         output,
		Tolerance:      c.Duration("tolerance"),
		MetricsAddr:    c.String("metrics-addr"),
		S3Bucket:       c.String("s3-bucket"),
		S3Prefix:       c.String("s3-prefix"),
		S3Region:       c.String("s3-region"),
		LogLevel:       level,
		LogFile:        c.String("log-file"),
	}, nil
}

// validateConfig 验证配置的合理性
func validateConfig(config *AppConfig) error {
	// 验证 recorder 配置
	if err := config.RecorderConfig.Validate(); err != nil {
		return fmt.Errorf("recorder配置错误: %v", err)
	}

	// 验证会话配置
	if err := config.RecorderConfig.ValidateSession(config.Session); err != nil {
		return fmt.Errorf("会话配置错误: %v", err)
	}

	// 验证 TUI 配置
	if err := config.TUIConfig.Validate(); err != nil {
		return fmt.Errorf("tui配置错误: %v", err)
	}

	switch config.SourceKind {
	case sourceSimulator:
		if err := config.SimConfig.Validate(); err != nil {
			return fmt.Errorf("模拟器配置错误: %v", err)
		}
	case sourceMQTT:
		if err := config.MQTTConfig.Validate(); err != nil {
			return fmt.Errorf("MQTT配置错误: %v", err)
		}
	default:
		return fmt.Errorf("未知的数据源: %s", config.SourceKind)
	}

	if config.PublishEvents {
		if err := config.PublishConfig.Validate(); err != nil {
			return fmt.Errorf("事件发布配置错误: %v", err)
		}
	}

	if (config.SourceKind == sourceMQTT || config.PublishEvents) && config.MQTTBroker == "" {
		return errors.New("使用MQTT时必须指定broker地址")
	}

	if config.Duration < 0 {
		return errors.New("记录时长不能为负数")
	}

	if config.Tolerance < 0 {
		return errors.New("关联容差不能为负数")
	}

	return nil
}

// containsAxis 判断轴列表中是否包含指定轴
func containsAxis(axes []string, axis string) bool {
	for _, a := range axes {
		if strings.EqualFold(a, axis) {
			return true
		}
	}
	return false
}
