package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shopmate/backend/internal/cache"
	"github.com/shopmate/backend/internal/query"
	"github.com/shopmate/backend/internal/rank"
	"github.com/shopmate/backend/internal/telemetry"
	"github.com/shopmate/backend/models"
)

// RemoteSearcher is the slice of the remote client the search path uses.
type RemoteSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]rank.Scored, error)
	Healthy(ctx context.Context) bool
}

type SearchHandler struct {
	Remote       RemoteSearcher
	Local        *rank.Searcher
	Cache        *cache.Cache
	DefaultLimit int
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
}

type searchResponse struct {
	Products   []models.ProductRecord `json:"products"`
	TotalCount int                    `json:"total_count"`
	Source     string                 `json:"source"`
}

// search serves GET /api/search?q=&limit=. The remote service is preferred;
// on unavailability (or when it returns too little) the local executor fills
// in and the merger dedups the union. A malformed or empty query is still a
// valid request and yields the browse ordering, never an error.
func (h *SearchHandler) search(c echo.Context) error {
	q := c.QueryParam("q")
	limit := h.DefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ctx := c.Request().Context()
	key := cache.Key(q, limit)
	if cached, ok := h.Cache.Get(ctx, key); ok {
		telemetry.Searches.WithLabelValues("cache").Inc()
		return c.JSON(http.StatusOK, searchResponse{Products: cached, TotalCount: len(cached), Source: "cache"})
	}

	parsed := query.Parse(q)
	products, source := h.run(ctx, q, parsed, limit)

	products = parsed.Apply(products)
	if len(products) > limit {
		products = products[:limit]
	}
	if products == nil {
		products = []models.ProductRecord{}
	}

	telemetry.Searches.WithLabelValues(source).Inc()
	h.Cache.Put(ctx, key, products)
	return c.JSON(http.StatusOK, searchResponse{Products: products, TotalCount: len(products), Source: source})
}

// run picks the result source: remote when healthy, merged with local results
// when the remote list runs short, local alone otherwise.
func (h *SearchHandler) run(ctx context.Context, q string, parsed query.Parsed, limit int) ([]models.ProductRecord, string) {
	if !h.Remote.Healthy(ctx) {
		telemetry.RemoteFallbacks.Inc()
		return h.Local.Search(parsed.Clean, limit), "local"
	}

	remoteScored, err := h.Remote.Search(ctx, q, limit)
	if err != nil {
		// ErrRemoteUnavailable by contract; recover locally, never surface it.
		telemetry.RemoteFallbacks.Inc()
		return h.Local.Search(parsed.Clean, limit), "local"
	}

	if len(remoteScored) >= limit {
		return rank.Merge([][]rank.Scored{remoteScored}, limit), "remote"
	}
	localScored := h.Local.SearchScored(parsed.Clean, limit)
	return rank.Merge([][]rank.Scored{remoteScored, localScored}, limit), "merged"
}
