package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

const (
	defaultGeocodeTimeout = 5 * time.Second
	defaultCacheTTL       = 24 * time.Hour

	cacheMissSentinel = "miss"
)

type zipLookupResponse struct {
	Places []struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

// HTTPGeocoder resolves ZIP centroids from a zippopotam-style lookup API,
// caching results (including non-matches) in Redis.
type HTTPGeocoder struct {
	client   *resty.Client
	baseURL  string
	country  string
	cache    *goredis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewHTTPGeocoder(baseURL string, cache *goredis.Client, logger *zap.Logger) (*HTTPGeocoder, error) {
	client := resty.New()
	client.SetTimeout(defaultGeocodeTimeout)
	client.SetRetryCount(0)

	return NewHTTPGeocoderWithClient(baseURL, client, cache, logger)
}

func NewHTTPGeocoderWithClient(baseURL string, client *resty.Client, cache *goredis.Client, logger *zap.Logger) (*HTTPGeocoder, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("geocoder base url is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPGeocoder{
		client:   client,
		baseURL:  trimmed,
		country:  "us",
		cache:    cache,
		cacheTTL: defaultCacheTTL,
		logger:   logger,
	}, nil
}

func (g *HTTPGeocoder) CoordinatesOf(ctx context.Context, zip string) (*Coordinates, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("geocoder is not initialized")
	}
	if !domain.IsZipCode(zip) {
		return nil, nil
	}

	if coords, hit := g.checkCache(ctx, zip); hit {
		return coords, nil
	}

	response, err := g.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/%s/%s", g.baseURL, g.country, zip))
	if err != nil {
		return nil, fmt.Errorf("geocode request failed for %q: %w", zip, err)
	}

	if response.StatusCode() == http.StatusNotFound {
		g.storeCache(ctx, zip, nil)
		return nil, nil
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("geocode lookup for %q returned status %d", zip, response.StatusCode())
	}

	var parsed zipLookupResponse
	if err := json.Unmarshal(response.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response for %q: %w", zip, err)
	}
	if len(parsed.Places) == 0 {
		g.storeCache(ctx, zip, nil)
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(parsed.Places[0].Latitude, 64)
	lon, lonErr := strconv.ParseFloat(parsed.Places[0].Longitude, 64)
	if latErr != nil || lonErr != nil {
		return nil, fmt.Errorf("geocode response for %q has malformed coordinates", zip)
	}

	coords := &Coordinates{Latitude: lat, Longitude: lon}
	g.storeCache(ctx, zip, coords)
	return coords, nil
}

func cacheKey(zip string) string {
	return fmt.Sprintf("geocode:zip:%s", zip)
}

// checkCache returns (coords, true) on a positive hit and (nil, true) on a
// cached non-match.
func (g *HTTPGeocoder) checkCache(ctx context.Context, zip string) (*Coordinates, bool) {
	if g.cache == nil {
		return nil, false
	}

	value, err := g.cache.Get(ctx, cacheKey(zip)).Result()
	if err != nil {
		return nil, false
	}
	if value == cacheMissSentinel {
		return nil, true
	}

	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return nil, false
	}
	lat, latErr := strconv.ParseFloat(parts[0], 64)
	lon, lonErr := strconv.ParseFloat(parts[1], 64)
	if latErr != nil || lonErr != nil {
		return nil, false
	}

	return &Coordinates{Latitude: lat, Longitude: lon}, true
}

func (g *HTTPGeocoder) storeCache(ctx context.Context, zip string, coords *Coordinates) {
	if g.cache == nil {
		return
	}

	value := cacheMissSentinel
	if coords != nil {
		value = fmt.Sprintf("%f,%f", coords.Latitude, coords.Longitude)
	}

	if err := g.cache.Set(ctx, cacheKey(zip), value, g.cacheTTL).Err(); err != nil {
		g.logger.Debug("failed to cache geocode result",
			zap.String("zip", zip),
			zap.Error(err),
		)
	}
}
