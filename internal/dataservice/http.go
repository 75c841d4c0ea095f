package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/world"
)

var _ Service = (*Client)(nil)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client talks to the world API over HTTP/JSON. Outbound requests are
// rate limited so a burst of detail fetches cannot flood the server.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logging.Log
}

// NewClient builds a Client from the data config.
func NewClient(cfg config.DataConfig, log logging.Log) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     logging.OrNop(log).With(logging.Component("dataservice")),
	}
}

func serverPath(server string, parts ...string) string {
	var sb strings.Builder
	sb.WriteString("/api/servers/")
	sb.WriteString(url.PathEscape(server))
	for _, p := range parts {
		sb.WriteByte('/')
		sb.WriteString(p)
	}
	return sb.String()
}

func (c *Client) FetchUniverseSummary(ctx context.Context, server string) (Result[world.UniverseSummary], error) {
	return getJSON[world.UniverseSummary](ctx, c, serverPath(server, "universe"), nil)
}

func (c *Client) FetchGalaxyRegions(ctx context.Context, server string, galaxy int) (Result[[]world.RegionSummary], error) {
	return getJSON[[]world.RegionSummary](ctx, c,
		serverPath(server, "galaxies", strconv.Itoa(galaxy), "regions"), nil)
}

func (c *Client) FetchRegionSystems(ctx context.Context, server string, galaxy, region int) (Result[[]world.SystemSummary], error) {
	return getJSON[[]world.SystemSummary](ctx, c,
		serverPath(server, "galaxies", strconv.Itoa(galaxy), "regions", strconv.Itoa(region), "systems"), nil)
}

func (c *Client) FetchSystemBodies(ctx context.Context, server string, galaxy, region, system int) (Result[[]world.Body], error) {
	return getJSON[[]world.Body](ctx, c,
		serverPath(server, "galaxies", strconv.Itoa(galaxy), "regions", strconv.Itoa(region),
			"systems", strconv.Itoa(system), "bodies"), nil)
}

func (c *Client) FetchEntities(ctx context.Context, scope world.SpatialAddress) (Result[[]world.EntityRecord], error) {
	q := url.Values{}
	q.Set("server", scope.Server)
	for key, v := range map[string]int{"galaxy": scope.Galaxy, "region": scope.Region, "system": scope.System} {
		if v >= 0 {
			q.Set(key, strconv.Itoa(v))
		}
	}
	return getJSON[[]world.EntityRecord](ctx, c, "/api/entities", q)
}

func (c *Client) FetchEntityDetail(ctx context.Context, id string) (Result[world.EntityDetail], error) {
	return getJSON[world.EntityDetail](ctx, c, "/api/entities/"+url.PathEscape(id), nil)
}

func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (Result[T], error) {
	var out Result[T]

	if err := c.limiter.Wait(ctx); err != nil {
		return out, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return out, fmt.Errorf("read %s: %w", path, err)
	}

	c.log.Debug("request completed",
		logging.String("path", path),
		logging.String("request_id", requestID),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)

	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode >= 300 {
			return out, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
		return out, fmt.Errorf("decode %s: %w", path, err)
	}
	if resp.StatusCode >= 300 && out.Success {
		// An error status is never a success.
		out.Success = false
		if out.Message == "" {
			out.Message = http.StatusText(resp.StatusCode)
		}
	}
	return out, nil
}
