// Package source 配置定义
package source

import (
	"errors"
	"time"
)

// SimulatorConfig 模拟数据源的配置结构
type SimulatorConfig struct {
	Axes          []string      // 可读取的轴名称
	Base          float64       // 基准位置
	Amplitude     float64       // 正弦振幅
	Period        time.Duration // 正弦周期
	Drift         float64       // 每秒线性漂移量
	Noise         float64       // 高斯噪声标准差
	MachineOffset float64       // 机械坐标相对绝对坐标的偏移
	FailureRate   float64       // 单次读取失败的概率
	Seed          int64         // 随机数种子
}

// DefaultSimulatorConfig 返回默认配置
func DefaultSimulatorConfig() *SimulatorConfig {
	return &SimulatorConfig{
		Axes:          []string{"X", "Y", "Z"},
		Base:          100.0,            // 默认基准100mm
		Amplitude:     0.5,              // 默认振幅0.5mm
		Period:        10 * time.Second, // 默认10秒周期
		Drift:         0,                // 默认不漂移
		Noise:         0.01,             // 默认噪声0.01mm
		MachineOffset: -250.0,           // 默认机械原点偏移
		FailureRate:   0,                // 默认从不失败
		Seed:          1,
	}
}

// Validate 验证配置的合理性
func (c *SimulatorConfig) Validate() error {
	if len(c.Axes) == 0 {
		return errors.New("至少需要一个轴")
	}

	for _, axis := range c.Axes {
		if axis == "" {
			return errors.New("轴名称不能为空")
		}
	}

	if c.Period <= 0 {
		return errors.New("正弦周期必须大于0")
	}

	if c.Noise < 0 {
		return errors.New("噪声标准差不能为负数")
	}

	if c.FailureRate < 0 || c.FailureRate > 1 {
		return errors.New("失败概率必须在0到1之间")
	}

	return nil
}

// MQTTConfig MQTT数据源的配置结构
type MQTTConfig struct {
	ClientID    string        // MQTT客户端ID
	TopicPrefix string        // 主题前缀，完整主题为 <前缀>/<位置类型>/<轴>
	QoS         byte          // 订阅QoS
	KeepAlive   uint16        // 保活时间（秒）
	MaxAge      time.Duration // 最新值的有效期，0表示永不过期
}

// DefaultMQTTConfig 返回默认配置
func DefaultMQTTConfig() *MQTTConfig {
	return &MQTTConfig{
		ClientID:    "goaxis-source",
		TopicPrefix: "goaxis",
		QoS:         1,
		KeepAlive:   30,              // 默认30秒
		MaxAge:      2 * time.Second, // 默认2秒内的值有效
	}
}

// Validate 验证配置的合理性
func (c *MQTTConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("MQTT客户端ID不能为空")
	}

	if c.TopicPrefix == "" {
		return errors.New("MQTT主题前缀不能为空")
	}

	if c.QoS > 2 {
		return errors.New("QoS必须是0、1或2")
	}

	if c.MaxAge < 0 {
		return errors.New("数据有效期不能为负数")
	}

	return nil
}
