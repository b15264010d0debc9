package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"openbook-trader-go/infrastructure/logger"
)

const (
	mainnetEndpoint = "wss://mainnet.helius-rpc.com"
	devnetEndpoint  = "wss://devnet.helius-rpc.com"

	// Burst absorption between the reader goroutine and the trading loop.
	defaultBuffer = 4096
)

// TradeEvent is one normalized fill emitted downstream. Spread is the best
// ask minus best bid known at decode time, zero when either side is unknown.
type TradeEvent struct {
	Price  float64
	Size   float64
	Side   Side
	Ts     int64 // ms epoch
	Spread float64
}

// Config names the feed endpoint and the three market accounts to watch.
type Config struct {
	Endpoint   string // optional override; derived from ClusterURL when empty
	ClusterURL string
	APIKey     string
	Token      string // optional auth token for the subscription transport

	EventQueue string
	Bids       string
	Asks       string

	Buffer int
}

// Client subscribes to a multiplexed account-update feed and turns raw
// event-queue snapshots into TradeEvents. One background goroutine per
// Connect call owns the connection and the book-side state.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *logger.Logger

	// Optional counters, wired by the caller (nil-safe).
	OnDrop       func()
	OnDecodeSkip func()
	OnDisconnect func(err error)
}

// bookState carries the last-known best prices across updates. Owned
// exclusively by the reader goroutine.
type bookState struct {
	bid, ask       float64
	hasBid, hasAsk bool
}

func (s *bookState) spread() float64 {
	if s.hasBid && s.hasAsk {
		return s.ask - s.bid
	}
	return 0
}

// New builds a Client. The endpoint is picked from the cluster URL the same
// way the swap side selects its cluster: devnet clusters use the devnet
// feed host, everything else the mainnet host.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.Endpoint == "" {
		if strings.Contains(cfg.ClusterURL, "devnet") {
			cfg.Endpoint = devnetEndpoint
		} else {
			cfg.Endpoint = mainnetEndpoint
		}
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	return &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		log:    log,
	}
}

// Connect dials the feed, subscribes to the event-queue/bids/asks accounts
// and returns the event channel. The channel closes when the transport
// fails or ctx is cancelled; per-message decode failures are logged and
// skipped without ending the stream.
func (c *Client) Connect(ctx context.Context) (<-chan TradeEvent, error) {
	u := fmt.Sprintf("%s/?api-key=%s", c.cfg.Endpoint, c.cfg.APIKey)
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("X-Token", c.cfg.Token)
	}
	conn, _, err := c.dialer.DialContext(ctx, u, header)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	sub, err := encodeSubscribe([]string{c.cfg.EventQueue, c.cfg.Bids, c.cfg.Asks})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("encode subscribe: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}
	c.log.Info("feed subscribed",
		zap.String("endpoint", c.cfg.Endpoint),
		zap.String("event_queue", c.cfg.EventQueue))

	out := make(chan TradeEvent, c.cfg.Buffer)
	go c.readLoop(ctx, conn, out)
	return out, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, out chan TradeEvent) {
	defer close(out)
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var state bookState
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("feed closed on shutdown")
			} else {
				c.log.Error("feed transport error", zap.Error(err))
				if c.OnDisconnect != nil {
					c.OnDisconnect(err)
				}
			}
			return
		}
		c.handleMessage(raw, &state, out)
	}
}

// handleMessage demuxes one raw notification by account key. Event-queue
// updates may emit a TradeEvent; book-side updates only mutate state.
func (c *Client) handleMessage(raw []byte, state *bookState, out chan TradeEvent) {
	account, data, err := ParseAccountUpdate(raw)
	if err != nil {
		c.log.Debug("skipping malformed update", zap.Error(err))
		c.decodeSkip()
		return
	}

	switch account {
	case c.cfg.EventQueue:
		fill, ok := DecodeLastFill(data)
		if !ok {
			c.log.Debug("skipping undecodable event queue snapshot",
				zap.Int("len", len(data)))
			c.decodeSkip()
			return
		}
		ev := TradeEvent{
			Price:  fill.Price,
			Size:   fill.Size,
			Side:   fill.Side,
			Ts:     time.Now().UnixMilli(),
			Spread: state.spread(),
		}
		select {
		case out <- ev:
			c.log.Debug("fill",
				zap.Float64("price", ev.Price),
				zap.Float64("size", ev.Size),
				zap.String("side", ev.Side.String()),
				zap.Float64("spread", ev.Spread))
		default:
			// Consumer is behind. The reader never blocks; the incoming
			// event is dropped and counted.
			c.log.Warn("event buffer full, dropping fill",
				zap.Float64("price", ev.Price))
			if c.OnDrop != nil {
				c.OnDrop()
			}
		}
	case c.cfg.Bids:
		if p, ok := DecodeBestPrice(data); ok {
			state.bid, state.hasBid = p, true
		}
	case c.cfg.Asks:
		if p, ok := DecodeBestPrice(data); ok {
			state.ask, state.hasAsk = p, true
		}
	default:
		c.log.Debug("update for unknown account", zap.String("account", account))
	}
}

func (c *Client) decodeSkip() {
	if c.OnDecodeSkip != nil {
		c.OnDecodeSkip()
	}
}
