package vox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	KindUtterance = "utterance"
	KindMacro     = "macro"
	KindNoMatch   = "no_match"
)

// ErrBadMessage is returned by Read for a frame that is not a BusMessage.
// The connection stays usable.
var ErrBadMessage = errors.New("malformed bus message")

type BusMessage struct {
	ID      string `json:"id,omitempty"`
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	// Status is the resolution status of a macro or no_match reply.
	Status string `json:"status,omitempty"`
}

type Bus struct {
	url       string
	reconnect time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewBus dials wsURL. reconnect is the pause between redial attempts.
func NewBus(ctx context.Context, wsURL string, reconnect time.Duration) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	if reconnect <= 0 {
		reconnect = time.Second
	}

	b := &Bus{url: u.String(), reconnect: reconnect}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return nil, err
	}
	b.conn = conn

	log.Info("Connected to bus", "url", b.url)
	return b, nil
}

func (b *Bus) current() *websocket.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

func (b *Bus) Read() (*BusMessage, error) {
	_, msg, err := b.current().ReadMessage()
	if err != nil {
		return nil, err
	}

	var m BusMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}

	return &m, nil
}

func (b *Bus) Write(m *BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// Reconnect redials until it succeeds or ctx is done.
func (b *Bus) Reconnect(ctx context.Context) error {
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
		if err == nil {
			b.mu.Lock()
			old := b.conn
			b.conn = conn
			b.mu.Unlock()
			old.Close()

			if ctx.Err() != nil {
				conn.Close()
				return ctx.Err()
			}

			log.Info("Reconnected to bus", "url", b.url)
			return nil
		}

		log.Debug("Bus redial failed", "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.reconnect):
		}
	}
}

func (b *Bus) Close() error {
	return b.current().Close()
}

// IsClosed reports whether err is the peer closing the connection.
func IsClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure)
}
