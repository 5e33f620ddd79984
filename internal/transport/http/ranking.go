package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/internal/service/ranking"
	"github.com/iamasit07/soloq/internal/transport/http/middleware"
	"github.com/iamasit07/soloq/internal/transport/http/response"
)

type RankingReader interface {
	Leaderboard(ctx context.Context, specialty string, limit int) (*ranking.Leaderboard, error)
	Profile(ctx context.Context, id domain.Identity) (*ranking.Profile, error)
	History(ctx context.Context, id domain.Identity, specialty string, limit int) ([]domain.RatingHistoryRecord, error)
}

type RankingHandler struct {
	Ranking RankingReader
}

func NewRankingHandler(r RankingReader) *RankingHandler {
	return &RankingHandler{Ranking: r}
}

// limitParam reads ?limit=; absent means the service default.
func limitParam(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(domain.CodeInvalidQueryParameters, "limit must be a positive integer")
	}
	return n, nil
}

// Leaderboard handles GET /api/ranking.
func (h *RankingHandler) Leaderboard(c *gin.Context) {
	limit, err := limitParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	lb, err := h.Ranking.Leaderboard(c.Request.Context(), c.Query("specialty"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

// Me handles GET /api/me.
func (h *RankingHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, domain.NewIdentityError(domain.CodeMissingIDToken, nil))
		return
	}

	profile, err := h.Ranking.Profile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// History handles GET /api/history.
func (h *RankingHandler) History(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, domain.NewIdentityError(domain.CodeMissingIDToken, nil))
		return
	}
	limit, err := limitParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.Ranking.History(c.Request.Context(), id, c.Query("specialty"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": records})
}
