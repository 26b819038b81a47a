// Package news reads the crypto news feed: past stories over REST and new
// stories from a websocket stream that runs for a fixed wall-clock time.
package news

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/httpclient"
	"altcoin-leadlag/internal/observability"
)

// ProviderName labels news requests in logs and metrics.
const ProviderName = "news"

// Stream status frames. Any other frame is a story.
const (
	StatusConnected = "connected"
	StatusHeartbeat = "heartbeat"
	StatusClosed    = "closed"
)

// Story is one news item.
type Story struct {
	ID            int64    `json:"id"`
	Time          int64    `json:"time"` // unix ms
	EffectiveTime int64    `json:"effectiveTime"`
	Headline      string   `json:"headline"`
	Source        string   `json:"source"`
	Priority      int      `json:"priority"`
	Coins         []string `json:"coins"`
	Summary       string   `json:"summary"`
	Link          string   `json:"link"`
}

// Message is one stream frame. Exactly one of Status and Story is set.
type Message struct {
	Elapsed time.Duration // since the stream was opened
	Status  string
	Story   *Story
	Raw     []byte
}

// Handler receives stream messages in arrival order. A non-nil error stops the stream.
type Handler func(Message) error

// WSConfig configures the stream connection.
type WSConfig struct {
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
	// ReadTimeout is the longest silence tolerated between frames.
	ReadTimeout time.Duration
	// WriteTimeout bounds control frame writes.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default stream configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Client talks to the news provider.
type Client struct {
	http      *httpclient.Client
	streamURL string
	authValue string
	timeout   time.Duration
	ws        WSConfig
	logger    *zap.Logger
}

// NewClient creates a client from news configuration. cfg.Timeout is the
// wall-clock duration of Stream.
func NewClient(cfg config.News, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	auth := ""
	if cfg.APIKey != "" {
		auth = "Basic " + base64.StdEncoding.EncodeToString([]byte("api:"+cfg.APIKey))
	}
	return &Client{
		http: httpclient.New(ProviderName, cfg.BaseURL,
			httpclient.WithHeader("Authorization", auth),
			httpclient.WithLogger(logger),
			httpclient.WithMetrics(metrics),
		),
		streamURL: cfg.StreamURL,
		authValue: auth,
		timeout:   cfg.Timeout,
		ws:        DefaultWSConfig(),
		logger:    logger,
	}
}

// WithWSConfig overrides the stream connection settings.
func (c *Client) WithWSConfig(cfg WSConfig) *Client {
	c.ws = cfg
	return c
}

// Stories returns past stories, newest first as served. The endpoint may
// answer with a bare array or with an object holding a "stories" array.
func (c *Client) Stories(ctx context.Context) ([]Story, error) {
	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, "news", "/news", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	return decodeStories(raw)
}

func decodeStories(raw json.RawMessage) ([]Story, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var stories []Story
		if err := json.Unmarshal(raw, &stories); err != nil {
			return nil, fmt.Errorf("decode news: %w", err)
		}
		return stories, nil
	}
	var wrapped struct {
		Stories []Story `json:"stories"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	return wrapped.Stories, nil
}

// frame is one read result of the reader goroutine.
type frame struct {
	data []byte
	err  error
}

// Stream subscribes to new stories and passes every frame to handle until the
// configured timeout elapses, ctx is cancelled, or the server closes the
// connection. Reaching the timeout or a normal close returns nil. There is no
// reconnect.
func (c *Client) Stream(ctx context.Context, handle Handler) error {
	header := http.Header{}
	if c.authValue != "" {
		header.Set("Authorization", c.authValue)
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.ws.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.streamURL, header)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	started := time.Now()
	c.logger.Info("news stream opened",
		zap.String("url", c.streamURL),
		zap.Duration("timeout", c.timeout))

	frames := make(chan frame)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if c.ws.ReadTimeout > 0 {
				_ = conn.SetReadDeadline(time.Now().Add(c.ws.ReadTimeout))
			}
			_, data, err := conn.ReadMessage()
			select {
			case frames <- frame{data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var deadline <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	stop := func() {
		close(done)
		_ = conn.SetWriteDeadline(time.Now().Add(c.ws.WriteTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
		wg.Wait()
	}

	for {
		select {
		case <-deadline:
			stop()
			c.logger.Info("news stream finished", zap.Duration("elapsed", time.Since(started)))
			return nil
		case <-ctx.Done():
			stop()
			return ctx.Err()
		case f := <-frames:
			if f.err != nil {
				stop()
				if websocket.IsCloseError(f.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Info("news stream closed by server", zap.Duration("elapsed", time.Since(started)))
					return nil
				}
				return fmt.Errorf("read stream: %w", f.err)
			}
			msg, err := parseFrame(f.data, time.Since(started))
			if err == nil {
				err = handle(msg)
			}
			if err != nil {
				stop()
				return err
			}
		}
	}
}

// ErrEmptyFrame is returned for a zero-length stream frame.
var ErrEmptyFrame = errors.New("empty frame")

func parseFrame(data []byte, elapsed time.Duration) (Message, error) {
	msg := Message{Elapsed: elapsed, Raw: data}
	text := string(bytes.TrimSpace(data))
	switch text {
	case "":
		return msg, ErrEmptyFrame
	case StatusConnected, StatusHeartbeat, StatusClosed:
		msg.Status = text
		return msg, nil
	}
	var s Story
	if err := json.Unmarshal(data, &s); err != nil {
		return msg, fmt.Errorf("decode story: %w", err)
	}
	msg.Story = &s
	return msg, nil
}
