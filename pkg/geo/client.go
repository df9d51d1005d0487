package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// selfCacheKey caches the process's own position lookups.
const selfCacheKey = "self"

// Client resolves positions from public IP addresses. It fronts the
// geolocation provider with an expiring LRU cache and a circuit breaker and
// implements domain.Locator for the process's own position.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *expirable.LRU[string, cachedFix]
	logger     *logrus.Logger
}

// cachedFix is a resolved position with its acquisition time. Freshness is
// judged per call against the caller's MaxAge, under the cache-wide TTL.
type cachedFix struct {
	position  domain.Position
	fetchedAt time.Time
}

// ProviderResponse is the JSON shape returned by the geolocation provider.
type ProviderResponse struct {
	IP        string  `json:"ip"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Region    string  `json:"region,omitempty"`
	Country   string  `json:"country_name,omitempty"`
	Failed    bool    `json:"error,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// NewClient creates a new geolocation client
func NewClient(config domain.GeoConfig, logger *logrus.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://ipapi.co"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.CacheSize == 0 {
		config.CacheSize = 256
	}

	settings := gobreaker.Settings{
		Name:        "geolocation",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from,
				"to_state":        to,
			}).Warn("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// Denied is a deterministic auth outcome, not a provider
			// outage; it must not open the circuit.
			if err == nil {
				return true
			}
			code, ok := domain.GeolocationCodeOf(err)
			return ok && code == domain.GEO_DENIED
		},
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		cache:   expirable.NewLRU[string, cachedFix](config.CacheSize, nil, config.CacheTTL),
		logger:  logger,
	}
}

// CurrentPosition resolves the position of this process's public IP. A
// cached fix no older than opts.MaxAge is served without a provider call.
func (c *Client) CurrentPosition(ctx context.Context, opts domain.PositionOptions) (domain.Position, error) {
	return c.locate(ctx, selfCacheKey, "", opts)
}

// LocateIP resolves the position of an explicit IP address, with the same
// caching and failure semantics as CurrentPosition.
func (c *Client) LocateIP(ctx context.Context, ip string, opts domain.PositionOptions) (domain.Position, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return domain.Position{}, domain.NewGeolocationError(domain.GEO_UNAVAILABLE, errors.New("ip address cannot be empty"))
	}
	return c.locate(ctx, ip, ip, opts)
}

// locate serves one position lookup: cache, then breaker-guarded provider
// call under the per-call deadline.
func (c *Client) locate(ctx context.Context, cacheKey, ip string, opts domain.PositionOptions) (domain.Position, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultPositionOptions().Timeout
	}

	if opts.MaxAge > 0 {
		if fix, ok := c.cache.Get(cacheKey); ok && time.Since(fix.fetchedAt) <= opts.MaxAge {
			c.logger.WithField("cache_key", cacheKey).Debug("Serving cached position fix")
			return fix.position, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchPosition(callCtx, ip)
	})
	if err != nil {
		geoErr := classifyFailure(err)
		c.logger.WithFields(logrus.Fields{
			"cache_key": cacheKey,
			"code":      geoErr.Code,
		}).Warn("Position lookup failed")
		return domain.Position{}, geoErr
	}

	position := result.(domain.Position)
	c.cache.Add(cacheKey, cachedFix{position: position, fetchedAt: time.Now()})

	return position, nil
}

// fetchPosition performs one provider round trip.
func (c *Client) fetchPosition(ctx context.Context, ip string) (domain.Position, error) {
	lookupURL := fmt.Sprintf("%s/json/", c.baseURL)
	if ip != "" {
		lookupURL = fmt.Sprintf("%s/%s/json/", c.baseURL, ip)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", lookupURL, nil)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to create lookup request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to execute lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.Position{}, domain.NewGeolocationError(domain.GEO_DENIED,
			fmt.Errorf("provider rejected lookup with status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Position{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to read lookup response: %w", err)
	}

	var provider ProviderResponse
	if err := json.Unmarshal(body, &provider); err != nil {
		return domain.Position{}, fmt.Errorf("failed to parse lookup response: %w", err)
	}

	if provider.Failed {
		return domain.Position{}, fmt.Errorf("provider reported failure: %s", provider.Reason)
	}
	if provider.Latitude == 0 && provider.Longitude == 0 {
		return domain.Position{}, errors.New("provider returned no coordinates")
	}

	return domain.Position{
		Latitude:  provider.Latitude,
		Longitude: provider.Longitude,
	}, nil
}

// classifyFailure maps a lookup failure onto the three geolocation outcome
// codes. Denied passes through; deadlines become timeout; everything else,
// the open circuit included, is unavailable.
func classifyFailure(err error) *domain.GeolocationError {
	var geoErr *domain.GeolocationError
	if errors.As(err, &geoErr) {
		return geoErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewGeolocationError(domain.GEO_TIMEOUT, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewGeolocationError(domain.GEO_TIMEOUT, err)
	}

	return domain.NewGeolocationError(domain.GEO_UNAVAILABLE, err)
}
