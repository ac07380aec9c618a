package yamux

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/yamux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createConnPair 创建一对连接的 TCP 连接
func createConnPair(t *testing.T) (net.Conn, net.Conn) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	var serverConn net.Conn
	var serverErr error
	done := make(chan struct{})

	go func() {
		serverConn, serverErr = listener.Accept()
		close(done)
	}()

	clientConn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)

	<-done
	require.NoError(t, serverErr)

	t.Cleanup(func() {
		serverConn.Close()
		clientConn.Close()
	})
	return serverConn, clientConn
}

// testConfig 测试用 yamux 配置
func testConfig() *yamux.Config {
	yc := DefaultYamuxConfig()
	yc.EnableKeepAlive = false
	yc.StreamCloseTimeout = time.Second
	return yc
}

// createMuxerPair 创建一对 Muxer（服务端和客户端）
func createMuxerPair(t *testing.T) (*Muxer, *Muxer) {
	serverConn, clientConn := createConnPair(t)

	server, err := Server(serverConn, testConfig())
	require.NoError(t, err)
	client, err := Client(clientConn, testConfig())
	require.NoError(t, err)

	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

func TestMuxer_New(t *testing.T) {
	server, client := createMuxerPair(t)

	assert.True(t, server.IsServer())
	assert.False(t, client.IsServer())
	assert.False(t, server.IsClosed())
	assert.Zero(t, client.NumStreams())

	_, err := Server(nil, nil)
	assert.Error(t, err)
}

func TestMuxer_NewStreamAcceptStream(t *testing.T) {
	server, client := createMuxerPair(t)

	accepted := make(chan *Stream, 1)
	go func() {
		s, err := server.AcceptStream()
		assert.NoError(t, err)
		accepted <- s
	}()

	cs, err := client.NewStream(context.Background())
	require.NoError(t, err)
	_, err = cs.Write([]byte("hello"))
	require.NoError(t, err)

	ss := <-accepted
	buf := make([]byte, 5)
	_, err = io.ReadFull(ss, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	assert.Equal(t, 1, client.NumStreams())
	require.NoError(t, cs.Close())
	assert.NoError(t, cs.Close(), "重复关闭无副作用")
	assert.True(t, cs.IsClosed())
	assert.Zero(t, client.NumStreams())
}

func TestMuxer_Close(t *testing.T) {
	server, client := createMuxerPair(t)

	_, err := client.NewStream(context.Background())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.True(t, client.IsClosed())
	assert.NoError(t, client.Close())

	_, err = client.NewStream(context.Background())
	assert.ErrorIs(t, err, ErrMuxerClosed)
	_, err = client.Ping()
	assert.ErrorIs(t, err, ErrMuxerClosed)

	assert.Eventually(t, server.IsClosed, 5*time.Second, 10*time.Millisecond, "对端会话随之结束")
}

func TestMuxer_NewStreamCancelled(t *testing.T) {
	_, client := createMuxerPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.NewStream(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestMuxer_Ping(t *testing.T) {
	_, client := createMuxerPair(t)

	rtt, err := client.Ping()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rtt, time.Duration(0))
}
