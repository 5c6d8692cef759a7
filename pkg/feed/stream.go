package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/richardawr/Options/pkg/models"
)

// Stream is the market-data gateway adapter. It maintains a websocket to the
// gateway, subscribes to spot and per-tenor option-premium channels for the
// basket's pairs, and keeps the latest ticks in a PriceCache. Credentials are
// applied to the websocket handshake by the configured Authenticator.
type Stream struct {
	url            string
	auth           Authenticator
	reconnectDelay time.Duration
	maxReconnect   int
	// Gateways throttle subscription bursts; pace requests at one per 500ms.
	limiter *rate.Limiter

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	closed     bool
	reconnects int
	lastSub    *subscribeMessage

	cache        *PriceCache
	basePremiums map[string]map[string]float64 // tenor -> pair -> premium
	logger       *logrus.Logger
}

type Options struct {
	URL            string
	Auth           Authenticator
	ReconnectDelay time.Duration
	MaxReconnects  int
	// BasePremiums seeds the demo fallback per tenor and pair.
	BasePremiums map[string]map[string]float64
}

func NewStream(opts Options, logger *logrus.Logger) *Stream {
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Stream{
		url:            opts.URL,
		auth:           opts.Auth,
		reconnectDelay: delay,
		maxReconnect:   opts.MaxReconnects,
		limiter:        rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		cache:          NewPriceCache(),
		basePremiums:   opts.BasePremiums,
		logger:         logger,
	}
}

type subscribeMessage struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
	Pairs    []string `json:"pairs"`
	Tenors   []string `json:"tenors,omitempty"`
}

// tickMessage is one gateway update. Prices arrive as decimal strings.
type tickMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"` // "spot" or "premium"
	Pair    string `json:"pair"`
	Tenor   string `json:"tenor,omitempty"`
	Price   string `json:"price"`
	Time    int64  `json:"time"`
}

// handshakeHeader builds the signed headers for the websocket dial.
func (s *Stream) handshakeHeader() (http.Header, error) {
	if s.auth == nil {
		return nil, nil
	}

	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	if err := s.auth.AddAuthHeaders(req, http.MethodGet, req.URL.Path, ""); err != nil {
		return nil, err
	}
	return req.Header, nil
}

func (s *Stream) Connect(ctx context.Context) error {
	header, err := s.handshakeHeader()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected || s.closed {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return fmt.Errorf("failed to connect to market-data gateway: %w", err)
	}

	s.conn = conn
	s.connected = true
	s.reconnects = 0

	go s.readLoop(ctx)
	go s.keepAlive(ctx)

	return nil
}

// Subscribe registers interest in the spot and premium channels for a set of
// pairs and tenors. Calls are paced by the stream's rate limiter. The
// subscription is remembered so a reconnect can replay it.
func (s *Stream) Subscribe(ctx context.Context, channels, pairs, tenors []string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	sub := subscribeMessage{
		Type:     "subscribe",
		Channels: channels,
		Pairs:    pairs,
		Tenors:   tenors,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSub = &sub

	if !s.connected {
		return fmt.Errorf("market-data stream not connected")
	}

	return s.conn.WriteJSON(sub)
}

// Close shuts the stream down for good; no reconnect is attempted afterward.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Stream) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg tickMessage
			if err := s.conn.ReadJSON(&msg); err != nil {
				if s.markDisconnected() {
					s.logger.WithError(err).Error("Market-data stream dropped")
					go s.reconnect(ctx)
				}
				return
			}

			if msg.Type != "tick" {
				continue
			}
			s.applyTick(msg)
		}
	}
}

// markDisconnected flips the stream to disconnected and reports whether a
// reconnect should be scheduled. A closed stream never reconnects.
func (s *Stream) markDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.connected {
		return false
	}
	s.connected = false
	if s.conn != nil {
		s.conn.Close()
	}
	return true
}

// reconnect redials the gateway with the configured delay between attempts,
// gives up after maxReconnect attempts, and replays the last subscription on
// success.
func (s *Stream) reconnect(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if s.maxReconnect > 0 && s.reconnects >= s.maxReconnect {
			s.mu.Unlock()
			s.logger.Error("Max reconnect attempts exceeded; market-data stream stays down")
			return
		}
		s.reconnects++
		attempt := s.reconnects
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}

		if err := s.Connect(ctx); err != nil {
			s.logger.WithError(err).WithField("attempt", attempt).Warn("Reconnect attempt failed")
			continue
		}

		s.mu.Lock()
		sub := s.lastSub
		s.mu.Unlock()
		if sub != nil {
			if err := s.Subscribe(ctx, sub.Channels, sub.Pairs, sub.Tenors); err != nil {
				s.logger.WithError(err).Warn("Resubscribe after reconnect failed")
			}
		}

		s.logger.WithField("attempt", attempt).Info("Market-data stream reconnected")
		return
	}
}

func (s *Stream) applyTick(msg tickMessage) {
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"pair":  msg.Pair,
			"price": msg.Price,
		}).Warn("Dropping tick with unparseable price")
		return
	}

	at := time.Unix(msg.Time, 0).UTC()
	value := price.InexactFloat64()

	switch msg.Channel {
	case "spot":
		s.cache.SetSpot(msg.Pair, value, at)
	case "premium":
		s.cache.SetPremium(msg.Tenor, msg.Pair, value, at)
	}
}

func (s *Stream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.connected {
				s.mu.Unlock()
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.WithError(err).Error("Failed to send ping")
				// Closing the socket lets the read loop drive the reconnect.
				s.conn.Close()
			}
			s.mu.Unlock()
		}
	}
}

// Spot returns the last live spot tick for a pair, if any.
func (s *Stream) Spot(pair string) (float64, bool) {
	return s.cache.Spot(pair)
}

// Snapshot implements the scanner's observation source: the immutable
// per-round view of current premiums for a tenor, with demo fallback for legs
// the gateway has not ticked yet.
func (s *Stream) Snapshot(ctx context.Context, legs []models.Leg, tenor string) ([]models.PremiumObservation, error) {
	return s.cache.Snapshot(legs, tenor, s.basePremiums[tenor]), nil
}
