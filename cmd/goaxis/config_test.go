package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/urfave/cli/v2"
)

// parseArgs 用真实的flag定义解析参数并构建配置
func parseArgs(t *testing.T, args ...string) (*AppConfig, error) {
	t.Helper()

	var config *AppConfig
	var buildErr error
	app := createCliApp()
	app.Before = nil
	app.Action = func(c *cli.Context) error {
		config, buildErr = buildConfigFromCLI(c)
		return nil
	}

	if err := app.Run(append([]string{AppName}, args...)); err != nil {
		t.Fatalf("Failed to parse args: %v", err)
	}
	return config, buildErr
}

func TestBuildConfigDefaults(t *testing.T) {
	config, err := parseArgs(t)
	if err != nil {
		t.Fatalf("buildConfigFromCLI failed: %v", err)
	}

	if config.Session != core.DefaultSessionConfig() {
		t.Errorf("Expected default session config, got %+v", config.Session)
	}
	if config.SourceKind != sourceSimulator {
		t.Errorf("Expected sim source, got %s", config.SourceKind)
	}
	if config.Output == "" {
		t.Error("Output should default to the temp recording path")
	}
	if config.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", config.LogLevel)
	}
	if err := validateConfig(config); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestBuildConfigFlags(t *testing.T) {
	config, err := parseArgs(t,
		"-a", "Z", "-p", "distance-to-go", "-n", "100ms",
		"--window", "30", "--trend-n", "5", "--shift-n", "6",
		"--source", "mqtt", "--mqtt-prefix", "cell1",
		"--publish-events", "-o", "/tmp/out.csv", "--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("buildConfigFromCLI failed: %v", err)
	}

	expected := core.SessionConfig{Axis: "Z", PositionType: core.PositionDistanceToGo, PollInterval: 100 * time.Millisecond}
	if config.Session != expected {
		t.Errorf("Expected %+v, got %+v", expected, config.Session)
	}
	if r := config.RecorderConfig.Rules; r.WindowSize != 30 || r.TrendN != 5 || r.ShiftN != 6 {
		t.Errorf("Unexpected rules %+v", r)
	}
	if config.MQTTConfig.TopicPrefix != "cell1" || config.PublishConfig.TopicPrefix != "cell1" {
		t.Error("MQTT prefix should apply to source and publisher")
	}
	if config.PublishConfig.Axis != "Z" {
		t.Errorf("Publisher axis should follow the session axis, got %s", config.PublishConfig.Axis)
	}
	if config.Output != "/tmp/out.csv" {
		t.Errorf("Expected /tmp/out.csv, got %s", config.Output)
	}
	if config.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", config.LogLevel)
	}
	if err := validateConfig(config); err != nil {
		t.Errorf("Config should be valid: %v", err)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	if _, err := parseArgs(t, "-p", "SIDEWAYS"); err == nil {
		t.Error("Expected error for unknown position type")
	}
	if _, err := parseArgs(t, "--log-level", "loud"); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"empty axis", []string{"-a", ""}},
		{"interval too small", []string{"-n", "1ms"}},
		{"trend larger than window", []string{"--window", "5"}},
		{"unknown source", []string{"--source", "serial"}},
		{"mqtt without broker", []string{"--source", "mqtt", "--mqtt-broker", ""}},
		{"negative duration", []string{"-d", "-1s"}},
		{"tiny tui buffer", []string{"-b", "3"}},
	}

	for _, test := range tests {
		config, err := parseArgs(t, test.args...)
		if err != nil {
			t.Fatalf("%s: buildConfigFromCLI failed: %v", test.name, err)
		}
		if err := validateConfig(config); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}
}
