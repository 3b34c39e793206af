package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sigcopy/internal/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	pingInterval     = 30 * time.Second
	writeDeadline    = 5 * time.Second
	maxBackoff       = 30 * time.Second
)

// WebSocketSource streams chat messages from the feed gateway over a
// websocket, reconnecting with exponential backoff. Frames from chats outside
// the allow-list are dropped before extraction.
type WebSocketSource struct {
	url          string
	token        string
	allowedChats map[int64]struct{}
	decoder      *EnvelopeDecoder
}

func NewWebSocketSource(url, token string, allowedChats []int64, decoder *EnvelopeDecoder) *WebSocketSource {
	allow := make(map[int64]struct{}, len(allowedChats))
	for _, id := range allowedChats {
		allow[id] = struct{}{}
	}
	return &WebSocketSource{url: url, token: token, allowedChats: allow, decoder: decoder}
}

func (s *WebSocketSource) Run(ctx context.Context, handle Handler) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := s.dial(ctx)
		if err != nil {
			logger.Warnf("feed dial %s failed: %v (retry in %s)", s.url, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		logger.Infof("feed connected to %s", s.url)

		s.pump(ctx, conn, handle)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("feed disconnected, reconnecting")
		time.Sleep(500 * time.Millisecond)
	}
}

func (s *WebSocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	d := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	headers := http.Header{}
	if s.token != "" {
		headers.Set("Authorization", "Bearer "+s.token)
	}
	conn, resp, err := d.DialContext(ctx, s.url, headers)
	if err != nil {
		if resp != nil {
			logger.Debugf("feed handshake status=%d", resp.StatusCode)
		}
		return nil, err
	}
	conn.SetPongHandler(func(string) error { return nil })
	return conn, nil
}

// pump reads frames until the connection drops or ctx is cancelled.
func (s *WebSocketSource) pump(ctx context.Context, conn *websocket.Conn, handle Handler) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				logger.Debugf("feed read error: %v", err)
				return
			}
			s.dispatch(ctx, raw, handle)
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
			conn.Close()
			<-done
			return
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debugf("feed ping failed: %v", err)
				conn.Close()
				<-done
				return
			}
		}
	}
}

func (s *WebSocketSource) dispatch(ctx context.Context, raw []byte, handle Handler) {
	msg, err := s.decoder.Decode(raw)
	if err != nil {
		logger.Warnf("feed dropped frame: %v", err)
		return
	}
	if len(s.allowedChats) > 0 {
		if _, ok := s.allowedChats[msg.ChatID]; !ok {
			logger.Debugf("feed ignored message %s from chat %d", msg.ID, msg.ChatID)
			return
		}
	}
	if err := handle(ctx, msg); err != nil {
		logger.Errorf("feed handler failed for message %s: %v", msg.ID, err)
	}
}
