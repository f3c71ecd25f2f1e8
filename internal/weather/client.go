// Package weather looks up the current temperature for the HUD's weather
// field. Lookups are throttled by time and distance moved and guarded by a
// circuit breaker; the last good reading is always available.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrNoAPIKey is returned while no API key is configured.
var ErrNoAPIKey = errors.New("weather: api key not configured")

// Default client settings.
const (
	defaultMinInterval    = 15 * time.Minute
	defaultMinDistance    = 1000.0
	defaultTimeout        = 10 * time.Second
	defaultBreakerTimeout = 5 * time.Minute

	defaultMaxFailures uint32 = 3
)

// Reading is one temperature observation.
type Reading struct {
	Celsius   float64
	Position  Coordinate
	FetchedAt time.Time
}

// Format renders the reading for the display, truncating toward zero
// ("18°C"). A zero Reading renders as "---".
func (r Reading) Format() string {
	if r.FetchedAt.IsZero() {
		return "---"
	}
	return fmt.Sprintf("%d°C", int(r.Celsius))
}

// Options configures a Client. Zero values take defaults.
type Options struct {
	APIKey      string
	BaseURL     string
	MinInterval time.Duration // refresh at most this often while stationary
	MinDistance float64       // meters moved that force a refresh
	Timeout     time.Duration // per request

	MaxFailures    uint32        // consecutive failures that open the breaker
	BreakerTimeout time.Duration // how long the breaker stays open

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches and caches the current temperature.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[Reading]
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	latest Reading
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.MinDistance <= 0 {
		opts.MinDistance = defaultMinDistance
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = defaultMaxFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = defaultBreakerTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		opts:    opts,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		logger:  logger,
		now:     time.Now,
	}
	maxFailures := opts.MaxFailures
	c.breaker = gobreaker.NewCircuitBreaker[Reading](gobreaker.Settings{
		Name:        "weather",
		MaxRequests: 1, // one probe while half-open
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// Latest returns the last good reading; zero if there is none.
func (c *Client) Latest() Reading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Temperature returns the latest reading formatted for the display.
func (c *Client) Temperature() string {
	return c.Latest().Format()
}

// Current returns the temperature at pos. A lookup is made only when there
// is no reading yet, the minimum interval has passed, or pos is more than
// the minimum distance away from the last lookup; otherwise the cached
// reading is returned. On failure the cached reading is returned with the
// error.
func (c *Client) Current(ctx context.Context, pos Coordinate) (Reading, error) {
	latest := c.Latest()
	if c.opts.APIKey == "" {
		return latest, ErrNoAPIKey
	}

	// The interval token is only spent on a successful lookup, so a failure
	// does not hold back the next attempt.
	now := c.now()
	allowed := c.limiter.TokensAt(now) >= 1
	have := !latest.FetchedAt.IsZero()
	moved := have && Distance(latest.Position, pos) > c.opts.MinDistance
	if have && !allowed && !moved {
		return latest, nil
	}

	r, err := c.breaker.Execute(func() (Reading, error) {
		return c.fetch(ctx, pos)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("weather: lookups suspended: %w", err)
		}
		c.logger.Warn("weather lookup failed", "error", err)
		return latest, err
	}

	c.limiter.AllowN(now, 1)
	c.mu.Lock()
	c.latest = r
	c.mu.Unlock()
	c.logger.Info("weather updated", "celsius", r.Celsius, "lat", pos.Latitude, "lon", pos.Longitude)
	return r, nil
}

// Run refreshes the reading for the locator's position every interval
// until ctx is done.
func (c *Client) Run(ctx context.Context, loc Locator, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		if pos, err := loc.Locate(ctx); err != nil {
			c.logger.Warn("locate failed", "error", err)
		} else {
			_, _ = c.Current(ctx, pos)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type currentWeather struct {
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

func (c *Client) fetch(ctx context.Context, pos Coordinate) (Reading, error) {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return Reading{}, fmt.Errorf("weather: base url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	q.Set("appid", c.opts.APIKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Reading{}, fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("weather: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Reading{}, fmt.Errorf("weather: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload currentWeather
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Reading{}, fmt.Errorf("weather: decode response: %w", err)
	}
	if payload.Main.Temp == nil {
		return Reading{}, errors.New("weather: response has no main.temp")
	}
	return Reading{Celsius: *payload.Main.Temp, Position: pos, FetchedAt: c.now()}, nil
}
