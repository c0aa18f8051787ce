package service

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jeremija/wl-gammarelay/types"
	"github.com/peer-calls/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(t *testing.T) (*connection, net.Conn) {
	t.Helper()

	server, client := net.Pipe()

	t.Cleanup(func() {
		server.Close()
		client.Close()
	})

	logger := log.New().WithConfig(log.NewConfig(log.ConfigMap{
		"**": log.LevelError,
	}))

	return newConnection(logger, server), client
}

func TestConnection_Read(t *testing.T) {
	conn, client := newTestConnection(t)

	go func() {
		io.WriteString(client, `{"color":{"temperature":"4000"}}`+"\n"+`{"subscribe":["color"]}`+"\n")
		client.Close()
	}()

	req, err := conn.Read()
	require.NoError(t, err)
	assert.Equal(t, &types.Color{Temperature: "4000"}, req.Color)

	req, err = conn.Read()
	require.NoError(t, err)
	assert.Equal(t, []types.SubscriptionKey{types.SubscriptionKeyColor}, req.Subscribe)

	_, err = conn.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestConnection_Read_tooLarge(t *testing.T) {
	conn, client := newTestConnection(t)

	go func() {
		io.WriteString(client, `{"color":{"temperature":"`+strings.Repeat("1", maxRequestSize)+`"}}`+"\n")
	}()

	_, err := conn.Read()
	assert.ErrorIs(t, err, errRequestTooLarge)
}

func TestConnection_UpdateSubscriptions(t *testing.T) {
	conn, _ := newTestConnection(t)

	require.NoError(t, conn.UpdateSubscriptions([]types.SubscriptionKey{types.SubscriptionKeyColor}, nil))
	assert.True(t, conn.IsSubscribed(types.SubscriptionKeyColor))

	// An unknown key rejects the whole update.
	err := conn.UpdateSubscriptions(nil, []types.SubscriptionKey{types.SubscriptionKeyColor, "gamma"})
	assert.ErrorIs(t, err, errUnknownSubscription)
	assert.True(t, conn.IsSubscribed(types.SubscriptionKeyColor))

	// Unsubscribe is applied before subscribe.
	both := []types.SubscriptionKey{types.SubscriptionKeyColor}
	require.NoError(t, conn.UpdateSubscriptions(both, both))
	assert.True(t, conn.IsSubscribed(types.SubscriptionKeyColor))

	require.NoError(t, conn.UpdateSubscriptions(nil, both))
	assert.False(t, conn.IsSubscribed(types.SubscriptionKeyColor))
}

func TestConnection_Push(t *testing.T) {
	conn, client := newTestConnection(t)

	color := &types.Color{Temperature: "3000", Brightness: "1", Gamma: "1"}

	// Not subscribed, nothing is written so this cannot block on the pipe.
	assert.False(t, conn.Push(types.SubscriptionKeyColor, color))

	require.NoError(t, conn.UpdateSubscriptions([]types.SubscriptionKey{types.SubscriptionKeyColor}, nil))

	lineCh := make(chan string, 1)

	go func() {
		scanner := bufio.NewScanner(client)
		if scanner.Scan() {
			lineCh <- scanner.Text()
		}
	}()

	assert.True(t, conn.Push(types.SubscriptionKeyColor, color))

	select {
	case line := <-lineCh:
		var res types.Response
		require.NoError(t, json.Unmarshal([]byte(line), &res))
		assert.Equal(t, types.Response{
			Color:        color,
			Subscription: types.SubscriptionKeyColor,
		}, res)
	case <-time.After(5 * time.Second):
		t.Fatal("no push received")
	}
}
