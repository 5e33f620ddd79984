package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/service/ratelimit"
	"github.com/iamasit07/soloq/internal/transport/http/middleware"
	"github.com/iamasit07/soloq/pkg/metrics"
	"go.uber.org/zap"
)

// RouterDeps is everything the HTTP surface needs.
type RouterDeps struct {
	Settlement     Settler
	Ranking        RankingReader
	Verifier       middleware.IdentityVerifier
	Limiter        ratelimit.Limiter
	GamesLimit     middleware.RateLimit
	ReadsLimit     middleware.RateLimit
	AllowedOrigins []string
	Log            *zap.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log), middleware.RecoveryMiddleware(log))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(d.AllowedOrigins, log))

	router.GET("/health", Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	gamesHandler := NewGamesHandler(d.Settlement)
	rankingHandler := NewRankingHandler(d.Ranking)

	authMW := middleware.AuthMiddleware(d.Verifier)
	gamesRL := middleware.RateLimitMiddleware(d.Limiter, d.GamesLimit, log)
	readsRL := middleware.RateLimitMiddleware(d.Limiter, d.ReadsLimit, log)

	api := router.Group("/api")
	{
		// Limited before auth so rejected credentials still spend the budget.
		api.POST("/games", gamesRL, authMW, gamesHandler.Settle)
		api.GET("/ranking", readsRL, rankingHandler.Leaderboard)
		api.GET("/me", readsRL, authMW, rankingHandler.Me)
		api.GET("/history", readsRL, authMW, rankingHandler.History)
	}

	return router
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
