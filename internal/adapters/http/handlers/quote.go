package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-cache-service/internal/app"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// QuoteResponse is the HTTP response structure for a quote.
type QuoteResponse struct {
	Text      string `json:"text"`
	Year      string `json:"year"`
	Month     string `json:"month"`
	MonthName string `json:"monthName"`
}

// toQuoteResponse converts a domain Quote to an HTTP response.
func toQuoteResponse(q domain.Quote) *QuoteResponse {
	return &QuoteResponse{
		Text:      q.Text,
		Year:      q.Year,
		Month:     q.Month,
		MonthName: q.MonthName(),
	}
}

// StatsResponse describes the cache without triggering a refresh.
type StatsResponse struct {
	Loaded             bool       `json:"loaded"`
	Size               int        `json:"size"`
	Years              int        `json:"years"`
	TTLSeconds         float64    `json:"ttlSeconds"`
	LastRefreshAttempt *time.Time `json:"lastRefreshAttempt,omitempty"`
	LastRefreshSuccess *time.Time `json:"lastRefreshSuccess,omitempty"`
	RefreshSuccesses   uint64     `json:"refreshSuccesses"`
	RefreshFailures    uint64     `json:"refreshFailures"`
	LastError          string     `json:"lastError,omitempty"`
}

func toStatsResponse(s app.CacheStats) *StatsResponse {
	return &StatsResponse{
		Loaded:             s.Loaded,
		Size:               s.Size,
		Years:              s.Years,
		TTLSeconds:         s.TTL.Seconds(),
		LastRefreshAttempt: optionalTime(s.LastRefreshAttempt),
		LastRefreshSuccess: optionalTime(s.LastRefreshSuccess),
		RefreshSuccesses:   s.RefreshSuccesses,
		RefreshFailures:    s.RefreshFailures,
		LastError:          s.LastError,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

// GetRandomQuote handles GET /api/v1/quotes/random
// Returns a quote drawn uniformly from the cached collection, refreshing the
// cache first when it has expired.
//
// @Summary Get a random quote
// @Tags quotes
// @Produce json
// @Success 200 {object} QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	quote, err := h.service.GetRandomQuote(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// GetStats handles GET /api/v1/quotes/stats
//
// @Summary Get quote cache statistics
// @Tags quotes
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /api/v1/quotes/stats [get]
func (h *QuoteHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, toStatsResponse(h.service.Stats()))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("/random", h.GetRandomQuote)
	quotes.GET("/stats", h.GetStats)
}
