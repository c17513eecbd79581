package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	resolve := func(r *http.Request) (string, error) {
		room := r.URL.Query().Get("room")
		if room == "" {
			return "", errors.New("attempt not found")
		}
		return room, nil
	}
	srv := httptest.NewServer(hub.Handler(resolve))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestHub_BroadcastReachesRoomOnly(t *testing.T) {
	// Arrange
	hub, srv := startHub(t)
	a, _, err := dial(t, srv, "room=attempt:a")
	require.NoError(t, err)
	defer a.Close()
	b, _, err := dial(t, srv, "room=attempt:b")
	require.NoError(t, err)
	defer b.Close()
	require.Eventually(t, func() bool {
		return hub.RoomSize("attempt:a") == 1 && hub.RoomSize("attempt:b") == 1
	}, time.Second, 10*time.Millisecond)

	// Act
	hub.BroadcastMessage("attempt:a", "tick", map[string]int{"elapsedSeconds": 3})

	// Assert
	a.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := a.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "tick", msg.Type)

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "room b must not receive room a traffic")
}

func TestHub_RejectsUnresolvedRoom(t *testing.T) {
	_, srv := startHub(t)

	_, resp, err := dial(t, srv, "")

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_DropsRoomWhenLastClientLeaves(t *testing.T) {
	hub, srv := startHub(t)
	conn, _, err := dial(t, srv, "room=attempt:c")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.RoomSize("attempt:c") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.RoomSize("attempt:c") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWhileClientsLeave(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	for i := 0; i < 200; i++ {
		c := &Client{hub: hub, send: make(chan []byte, 1), room: "attempt:x"}
		hub.register <- c

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				hub.BroadcastMessage("attempt:x", "tick", map[string]int{"elapsedSeconds": j})
			}
		}()
		go func() {
			defer wg.Done()
			hub.unregister <- c
		}()
		wg.Wait()
	}

	assert.Eventually(t, func() bool { return hub.RoomSize("attempt:x") == 0 }, time.Second, 10*time.Millisecond)
}
