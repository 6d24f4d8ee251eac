package source

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// newFixedSimulator 创建时钟可控的模拟器
func newFixedSimulator(t *testing.T, config *SimulatorConfig, elapsed time.Duration) *Simulator {
	t.Helper()
	sim, err := NewSimulator(config)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	sim.now = func() time.Time { return sim.start.Add(elapsed) }
	return sim
}

func quietConfig() *SimulatorConfig {
	c := DefaultSimulatorConfig()
	c.Noise = 0
	c.Amplitude = 0
	return c
}

func TestSimulatorBaseValue(t *testing.T) {
	sim := newFixedSimulator(t, quietConfig(), 3*time.Second)

	v, err := sim.Read(context.Background(), "X", core.PositionAbsolute)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v != 100.0 {
		t.Errorf("Expected 100.0, got %v", v)
	}

	// 轴名称不区分大小写
	if _, err := sim.Read(context.Background(), "y", core.PositionAbsolute); err != nil {
		t.Errorf("Lowercase axis should be accepted: %v", err)
	}
}

func TestSimulatorPositionTypes(t *testing.T) {
	config := quietConfig()
	config.Drift = 0.1
	sim := newFixedSimulator(t, config, 2*time.Second)
	ctx := context.Background()

	tests := []struct {
		pt       core.PositionType
		expected float64
	}{
		{core.PositionAbsolute, 100.2},
		{core.PositionMachine, 100.2 - 250.0},
		{core.PositionRelative, 0.2},
		{core.PositionDistanceToGo, -0.2},
	}

	for _, test := range tests {
		v, err := sim.Read(ctx, "Z", test.pt)
		if err != nil {
			t.Fatalf("Read %s failed: %v", test.pt, err)
		}
		if math.Abs(v-test.expected) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", test.pt, test.expected, v)
		}
	}
}

func TestSimulatorSine(t *testing.T) {
	config := quietConfig()
	config.Amplitude = 2
	config.Period = 4 * time.Second

	// 四分之一周期处达到波峰
	sim := newFixedSimulator(t, config, time.Second)
	v, err := sim.Read(context.Background(), "X", core.PositionAbsolute)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if math.Abs(v-102) > 1e-9 {
		t.Errorf("Expected 102 at quarter period, got %v", v)
	}
}

func TestSimulatorErrors(t *testing.T) {
	config := quietConfig()
	config.FailureRate = 1
	sim := newFixedSimulator(t, config, 0)

	_, err := sim.Read(context.Background(), "X", core.PositionAbsolute)
	var readErr *core.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Expected ReadError, got %v", err)
	}
	if readErr.Axis != "X" {
		t.Errorf("Expected axis X, got %s", readErr.Axis)
	}

	if _, err := sim.Read(context.Background(), "B", core.PositionAbsolute); !errors.As(err, &readErr) {
		t.Errorf("Unknown axis should return ReadError, got %v", err)
	}

	if _, err := sim.Read(context.Background(), "X", core.PositionType(9)); err == nil {
		t.Error("Unknown position type should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.Read(ctx, "X", core.PositionAbsolute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSimulatorNoiseIsSeeded(t *testing.T) {
	a := newFixedSimulator(t, DefaultSimulatorConfig(), time.Second)
	b := newFixedSimulator(t, DefaultSimulatorConfig(), time.Second)

	for i := 0; i < 5; i++ {
		va, _ := a.Read(context.Background(), "X", core.PositionAbsolute)
		vb, _ := b.Read(context.Background(), "X", core.PositionAbsolute)
		if va != vb {
			t.Fatalf("Same seed should produce the same sequence: %v != %v", va, vb)
		}
	}
}

func TestSimulatorConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SimulatorConfig)
	}{
		{"no axes", func(c *SimulatorConfig) { c.Axes = nil }},
		{"empty axis", func(c *SimulatorConfig) { c.Axes = []string{""} }},
		{"zero period", func(c *SimulatorConfig) { c.Period = 0 }},
		{"negative noise", func(c *SimulatorConfig) { c.Noise = -1 }},
		{"failure rate", func(c *SimulatorConfig) { c.FailureRate = 1.5 }},
	}

	for _, test := range tests {
		c := DefaultSimulatorConfig()
		test.modify(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", test.name)
		}
	}

	if err := DefaultSimulatorConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}
