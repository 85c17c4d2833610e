package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/nostr-comb/app/database"
	"github.com/lysyi3m/nostr-comb/app/mirror"
)

type Handler struct {
	repo      database.PublicationRepositoryInterface
	runner    *mirror.Runner
	version   string
	startedAt time.Time
}

func NewHandler(repo database.PublicationRepositoryInterface, runner *mirror.Runner, version string) *Handler {
	return &Handler{
		repo:      repo,
		runner:    runner,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	}

	count, err := h.repo.Count()
	if err != nil {
		slog.Error("Database error", "operation", "count_publications", "error", err)
		health["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	health["publications"] = count

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if h.runner != nil {
		if cycle, ok := h.runner.LastCycle(); ok {
			stats["last_cycle"] = cycle
		}
	}

	count, err := h.repo.Count()
	if err != nil {
		slog.Error("Database error", "operation", "count_publications", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	stats["total_publications"] = count

	recent, err := h.repo.Recent(20)
	if err != nil {
		slog.Error("Database error", "operation", "recent_publications", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	publications := make([]gin.H, 0, len(recent))
	for _, p := range recent {
		publications = append(publications, gin.H{
			"identifier": p.Identifier,
			"title":      p.Title,
			"url":        p.URL,
			"event_id":   p.EventID,
			"confirmed":  p.ConfirmedCount,
			"relays":     p.RelayCount,
			"created_at": p.CreatedAt.Format(time.RFC3339),
		})
	}
	stats["recent"] = publications

	c.JSON(http.StatusOK, stats)
}
