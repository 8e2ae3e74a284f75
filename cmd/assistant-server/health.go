package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/healthguard/assistant/internal/platform/db"
)

const tagline = "Your HealthGuard AI Companion - Personalized Medical Guidance at Your Fingertips"

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler reports the reachability of each backing service. It always
// answers 200 so load balancers can tell a degraded server from a dead one.
type healthHandler struct {
	database *db.Probe
	llm      pinger
	history  pinger
	stats    func() *db.PoolStats
	timeout  time.Duration
	now      func() time.Time
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Pool      *db.PoolStats     `json:"pool,omitempty"`
	Tagline   string            `json:"tagline"`
}

func (h *healthHandler) Check(c echo.Context) error {
	ctx := c.Request().Context()

	var dbUp, llmUp, historyUp bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbUp = h.database.Connected(gctx)
		return nil
	})
	g.Go(func() error {
		llmUp = h.ping(gctx, h.llm)
		return nil
	})
	g.Go(func() error {
		historyUp = h.ping(gctx, h.history)
		return nil
	})
	_ = g.Wait()

	status := "healthy"
	if !dbUp {
		status = "degraded"
	}

	resp := healthResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Services: map[string]string{
			"database": upDown(dbUp, "connected", "disconnected"),
			"llm":      upDown(llmUp, "available", "unavailable"),
			"history":  upDown(historyUp, "connected", "disconnected"),
		},
		Tagline: tagline,
	}
	if h.stats != nil {
		resp.Pool = h.stats()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *healthHandler) ping(ctx context.Context, p pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return p.Ping(ctx) == nil
}

func upDown(ok bool, up, down string) string {
	if ok {
		return up
	}
	return down
}
