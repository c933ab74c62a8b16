package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/irlightd/internal/metrics"
)

const homeAssistantName = "homeassistant"

// HomeAssistantOptions configures the Home Assistant gateway.
type HomeAssistantOptions struct {
	URL          string
	Token        string
	Timeout      time.Duration
	RateLimitRPS float64
	QueueSize    int
}

// HomeAssistant presses buttons by calling homeassistant.turn_on on the
// actuator's entity (a button, scene or script that emits the IR code).
// Presses are queued and delivered in order by a single worker.
type HomeAssistant struct {
	url        string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu     sync.RWMutex
	closed bool
	queue  chan string
	done   chan struct{}
}

// NewHomeAssistant creates the gateway and starts its delivery worker.
func NewHomeAssistant(opts HomeAssistantOptions) *HomeAssistant {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 10.0
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	g := &HomeAssistant{
		url:        strings.TrimSuffix(opts.URL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimitRPS), max(1, int(opts.RateLimitRPS))),
		queue:      make(chan string, opts.QueueSize),
		done:       make(chan struct{}),
	}
	go g.worker()
	return g
}

// Activate queues a press. If the queue is full the press is dropped.
func (g *HomeAssistant) Activate(ctx context.Context, actuatorID string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		log.Warn().Str("actuator", actuatorID).Msg("Home Assistant gateway closed, dropping press")
		metrics.RecordGatewayDropped(homeAssistantName)
		return
	}

	select {
	case g.queue <- actuatorID:
	default:
		log.Warn().Str("actuator", actuatorID).Msg("Home Assistant gateway queue full, dropping press")
		metrics.RecordGatewayDropped(homeAssistantName)
	}
}

// Close stops accepting presses and waits for queued ones to be sent.
func (g *HomeAssistant) Close(ctx context.Context) {
	g.mu.Lock()
	if !g.closed {
		g.closed = true
		close(g.queue)
	}
	g.mu.Unlock()

	select {
	case <-g.done:
		log.Debug().Msg("Home Assistant gateway drained")
	case <-ctx.Done():
		log.Warn().Msg("Home Assistant gateway shutdown timed out, some presses may be lost")
	}
}

func (g *HomeAssistant) worker() {
	defer close(g.done)

	for actuatorID := range g.queue {
		if err := g.limiter.Wait(context.Background()); err != nil {
			log.Error().Err(err).Msg("Rate limiter failed")
		}
		if err := g.press(context.Background(), actuatorID); err != nil {
			log.Error().Err(err).Str("actuator", actuatorID).Msg("Failed to press button")
			metrics.RecordGatewayError(homeAssistantName)
		}
	}
}

func (g *HomeAssistant) press(ctx context.Context, actuatorID string) error {
	body, err := json.Marshal(map[string]string{"entity_id": actuatorID})
	if err != nil {
		return err
	}

	url := g.url + "/api/services/homeassistant/turn_on"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HA API error: %d", resp.StatusCode)
	}

	log.Debug().Str("actuator", actuatorID).Msg("Button pressed via Home Assistant")
	return nil
}
