package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-turret/pkg/render"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// StreamURL turns a dashboard base URL ("http://host:8181") into the
// websocket URL for one of the /ws streams.
func StreamURL(base, stream string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse dashboard url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + stream
	return u.String(), nil
}

// Watch dials a websocket stream and calls fn for every message until ctx
// is cancelled, the server closes the stream, or fn returns an error.
func Watch(ctx context.Context, wsURL string, fn func(data []byte) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read %s: %w", wsURL, err)
		}
		if err := fn(data); err != nil {
			return err
		}
	}
}

// WatchStatus decodes the /ws/status stream.
func WatchStatus(ctx context.Context, base string, fn func(tracking.Status)) error {
	wsURL, err := StreamURL(base, "status")
	if err != nil {
		return err
	}
	return Watch(ctx, wsURL, func(data []byte) error {
		var st tracking.Status
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
		fn(st)
		return nil
	})
}

// WatchScene decodes the /ws/scene stream.
func WatchScene(ctx context.Context, base string, fn func(render.Frame)) error {
	wsURL, err := StreamURL(base, "scene")
	if err != nil {
		return err
	}
	return Watch(ctx, wsURL, func(data []byte) error {
		var f render.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decode scene: %w", err)
		}
		fn(f)
		return nil
	})
}
