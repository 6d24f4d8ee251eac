// Package source MQTT遥测数据源
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Kevin-Rudy/goaxis/pkg/core"
	"github.com/eclipse/paho.golang/paho"
)

// reading 某个主题上最近一次收到的值
type reading struct {
	value    float64
	received time.Time
}

// MQTTSource 订阅 <前缀>/<位置类型>/<轴> 主题并缓存每个主题的最新值
// Read 不等待新消息，只返回缓存的最新值
type MQTTSource struct {
	config *MQTTConfig
	client *paho.Client
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex // 保护latest
	latest map[string]reading
}

// MQTTOption MQTT数据源选项函数类型
type MQTTOption func(*MQTTSource)

// WithMQTTLogger 设置日志记录器
func WithMQTTLogger(logger *slog.Logger) MQTTOption {
	return func(s *MQTTSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// ValueTopic 返回某个轴在某个坐标系下的值主题
func ValueTopic(prefix string, pt core.PositionType, axis string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, pt.String(), strings.ToUpper(axis))
}

// NewMQTTSource 在已建立的连接上完成MQTT握手并订阅所有轴的值主题
func NewMQTTSource(ctx context.Context, conn net.Conn, config *MQTTConfig, opts ...MQTTOption) (*MQTTSource, error) {
	if conn == nil {
		return nil, errors.New("MQTT连接不能为空")
	}
	if config == nil {
		config = DefaultMQTTConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &MQTTSource{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		latest: make(map[string]reading),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = paho.NewClient(paho.ClientConfig{
		ClientID: config.ClientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				s.handlePublish(pr.Packet)
				return true, nil
			},
		},
		OnClientError: func(err error) {
			s.logger.Warn("MQTT客户端错误", "error", err)
		},
	})

	if _, err := s.client.Connect(ctx, &paho.Connect{
		ClientID:   config.ClientID,
		KeepAlive:  config.KeepAlive,
		CleanStart: true,
	}); err != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", err)
	}

	filter := config.TopicPrefix + "/+/+"
	if _, err := s.client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic: filter,
			QoS:   config.QoS,
		}},
	}); err != nil {
		_ = s.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return nil, fmt.Errorf("订阅 %s 失败: %w", filter, err)
	}

	s.logger.Info("已订阅轴数据主题", "filter", filter)
	return s, nil
}

// handlePublish 解析值消息，格式错误的消息只记录日志
func (s *MQTTSource) handlePublish(p *paho.Publish) {
	key, ok := s.topicKey(p.Topic)
	if !ok {
		s.logger.Debug("忽略未知主题", "topic", p.Topic)
		return
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(p.Payload)), 64)
	if err != nil {
		s.logger.Warn("无法解析轴数据", "topic", p.Topic, "error", err)
		return
	}

	s.mu.Lock()
	s.latest[key] = reading{value: value, received: s.now()}
	s.mu.Unlock()
}

// topicKey 把 <前缀>/<位置类型>/<轴> 规范化为缓存键
func (s *MQTTSource) topicKey(topic string) (string, bool) {
	rest, found := strings.CutPrefix(topic, s.config.TopicPrefix+"/")
	if !found {
		return "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	pt, err := core.ParsePositionType(parts[0])
	if err != nil {
		return "", false
	}
	return cacheKey(pt, parts[1]), true
}

func cacheKey(pt core.PositionType, axis string) string {
	return pt.String() + "/" + strings.ToUpper(axis)
}

// Read 返回缓存的最新值，没有数据或数据过期时返回ReadError
func (s *MQTTSource) Read(ctx context.Context, axis string, pt core.PositionType) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	r, ok := s.latest[cacheKey(pt, axis)]
	s.mu.RUnlock()

	if !ok {
		return 0, core.NewReadError(axis, "尚未收到%s数据", pt)
	}
	if s.config.MaxAge > 0 {
		if age := s.now().Sub(r.received); age > s.config.MaxAge {
			return 0, core.NewReadError(axis, "数据已过期 %v", age.Round(time.Millisecond))
		}
	}
	return r.value, nil
}

// Close 断开MQTT连接
func (s *MQTTSource) Close() error {
	return s.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}
