// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/health"
	"github.com/carterperez-dev/citylistings/internal/listing"
)

type ListingCounter interface {
	Count(ctx context.Context, status string) (int, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type HandlerConfig struct {
	Listings ListingCounter
	Cities   Counter
	Users    Counter
	// Checks reports dependency health, normally health.Handler.Check.
	Checks func(ctx context.Context) []health.HealthCheck
	// DBStats is nil when the document store is in use.
	DBStats         func() sql.DBStats
	RedisStats      func() *redis.PoolStats
	LiveSubscribers func() int
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.GetStats)
		r.Get("/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var content ContentStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		content.Listings.Total, err = h.cfg.Listings.Count(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		content.Listings.Active, err = h.cfg.Listings.Count(gctx, listing.StatusActive)
		return err
	})
	g.Go(func() (err error) {
		content.Cities, err = h.cfg.Cities.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		content.Users, err = h.cfg.Users.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		core.InternalServerError(w, "Failed to load stats", err)
		return
	}

	resp := StatsResponse{
		OK:      true,
		Content: content,
		Runtime: readRuntime(),
	}
	if h.cfg.Checks != nil {
		resp.Dependencies = h.cfg.Checks(ctx)
	}
	if h.cfg.DBStats != nil {
		resp.Database = toDBPoolStats(h.cfg.DBStats())
	}
	if h.cfg.RedisStats != nil {
		resp.Redis = toRedisPoolStats(h.cfg.RedisStats())
	}
	if h.cfg.LiveSubscribers != nil {
		resp.LiveSubscribers = h.cfg.LiveSubscribers()
	}

	core.OK(w, resp)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntime())
}

func readRuntime() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func toDBPoolStats(stats sql.DBStats) *DBPoolStats {
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func toRedisPoolStats(stats *redis.PoolStats) *RedisPoolStats {
	if stats == nil {
		return nil
	}
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type StatsResponse struct {
	OK              bool                 `json:"ok"`
	Content         ContentStats         `json:"content"`
	Dependencies    []health.HealthCheck `json:"dependencies,omitempty"`
	Database        *DBPoolStats         `json:"database,omitempty"`
	Redis           *RedisPoolStats      `json:"redis,omitempty"`
	LiveSubscribers int                  `json:"liveSubscribers"`
	Runtime         RuntimeStats         `json:"runtime"`
}

type ContentStats struct {
	Listings struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"listings"`
	Cities int `json:"cities"`
	Users  int `json:"users"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"maxOpenConnections"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"waitCount"`
	WaitDuration       string `json:"waitDuration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"totalConns"`
	IdleConns  uint32 `json:"idleConns"`
	StaleConns uint32 `json:"staleConns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCpu"`
	MemAlloc     uint64 `json:"memAllocBytes"`
	MemSys       uint64 `json:"memSysBytes"`
	NumGC        uint32 `json:"numGc"`
}
