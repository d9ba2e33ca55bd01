package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultHTTPEndpoint is the ip-api.com JSON endpoint.
	DefaultHTTPEndpoint = "http://ip-api.com/json/"

	defaultHTTPTimeout = 3 * time.Second
	ipAPIFields        = "status,message,country,regionName,city,isp,proxy,hosting"
	maxResponseBytes   = 64 << 10
)

// HTTPLookupConfig configures an HTTPLookup.
type HTTPLookupConfig struct {
	Endpoint string
	Timeout  time.Duration
	// RequestsPerMinute caps outbound calls. ip-api.com allows 45 on the free tier.
	RequestsPerMinute int
	Burst             int
	Client            *http.Client
}

// DefaultHTTPLookupConfig returns the free-tier defaults.
func DefaultHTTPLookupConfig() HTTPLookupConfig {
	return HTTPLookupConfig{
		Endpoint:          DefaultHTTPEndpoint,
		Timeout:           defaultHTTPTimeout,
		RequestsPerMinute: 45,
		Burst:             5,
	}
}

// HTTPLookup resolves addresses through the ip-api.com JSON API.
type HTTPLookup struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPLookup creates a provider. Zero fields in cfg take their defaults.
func NewHTTPLookup(cfg HTTPLookupConfig) *HTTPLookup {
	def := DefaultHTTPLookupConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	return &HTTPLookup{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		client:   cfg.Client,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.Burst),
	}
}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
	Proxy      bool   `json:"proxy"`
	Hosting    bool   `json:"hosting"`
}

// Lookup queries the provider. Waiting for the outbound throttle counts
// against the timeout. ip-api reports no VPN flag; hosting ranges are treated
// as VPN exits.
func (l *HTTPLookup) Lookup(ctx context.Context, ip string) (*Location, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: throttled: %v", ErrLookupFailed, err)
	}

	target := l.endpoint + url.PathEscape(ip) + "?fields=" + ipAPIFields
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, body.Message)
	}

	return &Location{
		Country: body.Country,
		Region:  body.RegionName,
		City:    body.City,
		ISP:     body.ISP,
		IsProxy: body.Proxy,
		IsVPN:   body.Hosting,
	}, nil
}
