package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/logger"
)

type countingTriggerer struct{ n atomic.Int64 }

func (c *countingTriggerer) Trigger() { c.n.Add(1) }

func newPushServer(t *testing.T, messages []string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Keep the connection open so the listener does not reconnect.
		time.Sleep(2 * time.Second)
		conn.Close()
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func newTestListener(t *testing.T, url string, trig Triggerer) *Listener {
	t.Helper()
	cfg := &config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
		Discovery: config.DiscoveryConfig{PushURL: url},
	}
	return NewListener(cfg, trig, logger.New(cfg))
}

func TestListenerTriggersOnRefreshEvent(t *testing.T) {
	url := newPushServer(t, []string{
		`{"event":"refresh"}`,
		`{"event":"heartbeat"}`,
		`{"event":"candidates_updated"}`,
		`not json`,
	})

	trig := &countingTriggerer{}
	l := newTestListener(t, url, trig)

	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	require.Eventually(t, func() bool {
		return trig.n.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	// heartbeat and garbage were ignored, no extra triggers
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(2), trig.n.Load())
}

func TestListenerStartFailsOnDeadEndpoint(t *testing.T) {
	l := newTestListener(t, "ws://127.0.0.1:1/push", &countingTriggerer{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, l.Start(ctx))
}
