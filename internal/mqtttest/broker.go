// Package mqtttest 为测试启动进程内的MQTT broker
package mqtttest

import (
	"context"
	"net"
	"testing"

	"github.com/eclipse/paho.golang/paho"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/require"
)

// Broker 进程内broker及其监听地址
type Broker struct {
	Server  *mochi.Server
	Address string
}

// Start 在随机端口上启动允许所有连接的broker，测试结束时自动关闭
func Start(t *testing.T) *Broker {
	t.Helper()

	server := mochi.New(nil)
	require.NoError(t, server.AddHook(&auth.AllowHook{}, nil))

	address := freeAddress(t)
	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "test",
		Type:    "tcp",
		Address: address,
	})))
	require.NoError(t, server.Serve())

	t.Cleanup(func() { _ = server.Close() })
	return &Broker{Server: server, Address: address}
}

// Dial 建立到broker的TCP连接
func (b *Broker) Dial(t *testing.T) net.Conn {
	t.Helper()
	var d net.Dialer
	conn, err := d.DialContext(context.Background(), "tcp", b.Address)
	require.NoError(t, err)
	return conn
}

// Client 返回一个已连接的paho客户端，handler非nil时接收订阅的消息
func (b *Broker) Client(t *testing.T, id string, handler func(*paho.Publish)) *paho.Client {
	t.Helper()

	config := paho.ClientConfig{
		ClientID: id,
		Conn:     b.Dial(t),
	}
	if handler != nil {
		config.OnPublishReceived = []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				handler(pr.Packet)
				return true, nil
			},
		}
	}

	client := paho.NewClient(config)
	_, err := client.Connect(context.Background(), &paho.Connect{
		ClientID:   id,
		KeepAlive:  5,
		CleanStart: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Disconnect(&paho.Disconnect{ReasonCode: 0}) })
	return client
}

// freeAddress 找一个当前空闲的本地端口
func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := l.Addr().String()
	require.NoError(t, l.Close())
	return address
}
