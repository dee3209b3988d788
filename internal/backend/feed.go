package backend

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// reconnect backoff bounds for the change feed
const (
	feedInitialBackoff = time.Second
	feedMaxBackoff     = 30 * time.Second
)

// Feed is a websocket subscription to the backend's per-driver change
// notifications. Frames carry no payload the core trusts; every received
// frame only means "something changed for this driver", and the caller
// reacts by refetching the full snapshot.
type Feed struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
}

// NewFeed creates a change feed client for the given backend base URL.
func NewFeed(baseURL, token string) *Feed {
	return &Feed{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Subscribe opens the feed for a driver and fires onChange once per
// received frame. The connection is re-dialed with capped backoff after
// any failure, so a flaky network degrades to the poll fallback instead
// of killing the subscription. The returned function stops the feed and
// is safe to call more than once.
func (f *Feed) Subscribe(driverID string, onChange func()) func() {
	stopCh := make(chan struct{})

	go f.run(driverID, onChange, stopCh)

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
	}
}

// run dials and reads in a loop until stopped.
func (f *Feed) run(driverID string, onChange func(), stopCh <-chan struct{}) {
	backoff := feedInitialBackoff

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		conn, err := f.dial(driverID)
		if err != nil {
			log.Printf("[feed] connect failed for driver %s: %v", driverID, err)
			select {
			case <-stopCh:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > feedMaxBackoff {
				backoff = feedMaxBackoff
			}
			continue
		}
		backoff = feedInitialBackoff

		// Close the connection when the subscription is stopped so the
		// blocked ReadMessage below returns.
		done := make(chan struct{})
		go func() {
			select {
			case <-stopCh:
				conn.Close()
			case <-done:
			}
		}()

		f.read(conn, onChange)
		close(done)
		conn.Close()
	}
}

func (f *Feed) dial(driverID string) (*websocket.Conn, error) {
	wsURL := f.baseURL + "/ws/drivers/" + driverID + "/events"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+f.token)

	conn, _, err := f.dialer.Dial(wsURL, header)
	return conn, err
}

// read consumes frames until the connection drops.
func (f *Feed) read(conn *websocket.Conn, onChange func()) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("[feed] read: %v", err)
			return
		}
		onChange()
	}
}
