// Package source 提供轴数据源的实现
// 包括用于离线演示和测试的模拟器，以及订阅MQTT遥测的数据源
package source

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
)

// Simulator 模拟数控机床的轴位置
// 值 = 基准 + 振幅*sin(2πt/周期) + 漂移*t + 噪声
type Simulator struct {
	config *SimulatorConfig
	start  time.Time
	now    func() time.Time

	mu  sync.Mutex // 保护rng
	rng *rand.Rand
}

// NewSimulator 创建新的模拟数据源
func NewSimulator(config *SimulatorConfig) (*Simulator, error) {
	if config == nil {
		config = DefaultSimulatorConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Simulator{
		config: config,
		start:  time.Now(),
		now:    time.Now,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Read 读取指定轴在指定坐标系下的当前位置
func (s *Simulator) Read(ctx context.Context, axis string, pt core.PositionType) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if !s.hasAxis(axis) {
		return 0, core.NewReadError(axis, "未知的轴")
	}
	if !pt.Valid() {
		return 0, core.NewReadError(axis, "未知的位置类型 %d", int(pt))
	}

	s.mu.Lock()
	fail := s.config.FailureRate > 0 && s.rng.Float64() < s.config.FailureRate
	noise := s.rng.NormFloat64() * s.config.Noise
	s.mu.Unlock()

	if fail {
		return 0, core.NewReadError(axis, "模拟通信失败")
	}

	elapsed := s.now().Sub(s.start).Seconds()
	phase := 2 * math.Pi * elapsed / s.config.Period.Seconds()
	offset := s.config.Amplitude*math.Sin(phase) + s.config.Drift*elapsed + noise
	absolute := s.config.Base + offset

	switch pt {
	case core.PositionMachine:
		return absolute + s.config.MachineOffset, nil
	case core.PositionRelative:
		return offset, nil
	case core.PositionDistanceToGo:
		// 以正弦波峰作为当前程序段的终点
		return s.config.Base + s.config.Amplitude - absolute, nil
	default:
		return absolute, nil
	}
}

// hasAxis 判断轴名称是否已配置（不区分大小写）
func (s *Simulator) hasAxis(axis string) bool {
	for _, a := range s.config.Axes {
		if strings.EqualFold(a, axis) {
			return true
		}
	}
	return false
}
