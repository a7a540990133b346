package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/logger"
)

const (
	reconnectDelay    = 5 * time.Second
	maxReconnectDelay = 5 * time.Minute

	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// Triggerer receives the refresh signal carried by push events
type Triggerer interface {
	Trigger()
}

// Listener maintains a websocket connection to the discovery push
// endpoint and converts refresh events into Trigger calls. The wire
// carries no payload beyond the event kind; the refresh itself goes
// back through the normal fetch path.
type Listener struct {
	url       string
	triggerer Triggerer
	logger    *logger.Logger

	conn   *websocket.Conn
	connMu sync.RWMutex

	stopCh chan struct{}
	doneCh chan struct{}

	reconnecting bool
	reconnectMu  sync.Mutex
}

// NewListener creates a push listener. The triggerer is usually the
// refresher; its single-flight guard also covers push-driven refreshes.
func NewListener(cfg *config.Config, triggerer Triggerer, log *logger.Logger) *Listener {
	return &Listener{
		url:       cfg.Discovery.PushURL,
		triggerer: triggerer,
		logger:    log,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start connects and begins listening
func (l *Listener) Start(ctx context.Context) error {
	l.logger.WithField("url", l.url).Info("Starting push listener")

	if err := l.connect(ctx); err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go l.readLoop(ctx)
	go l.pingLoop(ctx)

	return nil
}

// Stop closes the connection and waits for the read loop to exit
func (l *Listener) Stop() {
	l.logger.Info("Stopping push listener")

	close(l.stopCh)

	l.connMu.Lock()
	if l.conn != nil {
		l.conn.Close()
	}
	l.connMu.Unlock()

	<-l.doneCh
}

func (l *Listener) connect(ctx context.Context) error {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	l.conn = conn

	l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		l.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	l.logger.Info("Connected to push endpoint")

	return nil
}

func (l *Listener) readLoop(ctx context.Context) {
	defer close(l.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		default:
		}

		l.connMu.RLock()
		conn := l.conn
		l.connMu.RUnlock()

		if conn == nil {
			time.Sleep(1 * time.Second)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-l.stopCh:
				return
			default:
			}
			l.logger.WithError(err).Error("Failed to read push message")
			l.handleDisconnect(ctx)
			continue
		}

		l.handleMessage(message)
	}
}

// pushEvent is the wire shape of a push message
type pushEvent struct {
	Event string `json:"event"`
}

func (l *Listener) handleMessage(message []byte) {
	var event pushEvent
	if err := json.Unmarshal(message, &event); err != nil {
		l.logger.WithError(err).Warn("Malformed push message")
		return
	}

	switch event.Event {
	case "refresh", "candidates_updated":
		l.logger.WithField("event", event.Event).Debug("Push refresh event received")
		l.triggerer.Trigger()
	default:
		l.logger.WithField("event", event.Event).Debug("Ignoring push event")
	}
}

// handleDisconnect reconnects with exponential backoff
func (l *Listener) handleDisconnect(ctx context.Context) {
	l.reconnectMu.Lock()
	if l.reconnecting {
		l.reconnectMu.Unlock()
		return
	}
	l.reconnecting = true
	l.reconnectMu.Unlock()

	defer func() {
		l.reconnectMu.Lock()
		l.reconnecting = false
		l.reconnectMu.Unlock()
	}()

	l.logger.Warn("Push connection lost, attempting to reconnect")

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-time.After(delay):
		}

		if err := l.connect(ctx); err != nil {
			l.logger.WithError(err).WithField("delay", delay).Error("Reconnect failed, retrying")

			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		l.logger.Info("Reconnected to push endpoint")
		return
	}
}

func (l *Listener) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.connMu.RLock()
			conn := l.conn
			l.connMu.RUnlock()

			if conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				l.logger.WithError(err).Error("Failed to send ping")
			}
		}
	}
}
