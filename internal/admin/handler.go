// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

const cpuSampleWindow = 200 * time.Millisecond

// Handler serves operator diagnostics. Every dependency is optional; a
// missing one is reported as absent rather than failing the request.
type Handler struct {
	dbStats        func() sql.DBStats
	dbPing         func(ctx context.Context) error
	redisStats     func() *redis.PoolStats
	redisPing      func(ctx context.Context) error
	storageEnabled bool
	diskPath       string
}

type HandlerConfig struct {
	DBStats        func() sql.DBStats
	DBPing         func(ctx context.Context) error
	RedisStats     func() *redis.PoolStats
	RedisPing      func(ctx context.Context) error
	StorageEnabled bool
	DiskPath       string
}

func NewHandler(cfg HandlerConfig) *Handler {
	diskPath := cfg.DiskPath
	if diskPath == "" {
		diskPath = "/"
	}

	return &Handler{
		dbStats:        cfg.DBStats,
		dbPing:         cfg.DBPing,
		redisStats:     cfg.RedisStats,
		redisPing:      cfg.RedisPing,
		storageEnabled: cfg.StorageEnabled,
		diskPath:       diskPath,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.GetSystemStats)
		r.Get("/db", h.GetDatabaseStats)
		r.Get("/redis", h.GetRedisStats)
		r.Get("/runtime", h.GetRuntimeStats)
		r.Get("/host", h.GetHostStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.dbPing),
			Stats:   h.databaseStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.redisPing),
			Stats:   h.redisPoolStats(),
		},
		Storage: StorageStatus{Enabled: h.storageEnabled},
		Runtime: runtimeStats(),
		Host:    h.hostStats(ctx),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.databaseStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.redisPoolStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

func (h *Handler) GetHostStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.hostStats(r.Context()))
}

func pingOK(ctx context.Context, ping func(context.Context) error) bool {
	if ping == nil {
		return false
	}
	return ping(ctx) == nil
}

func runtimeStats() RuntimeStats {
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

// hostStats samples the machine. A probe that fails leaves its fields
// zero; hosts without /proc still answer.
func (h *Handler) hostStats(ctx context.Context) HostStats {
	var stats HostStats

	if percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemTotal = vm.Total
		stats.MemUsed = vm.Used
		stats.MemPercent = vm.UsedPercent
	}

	if usage, err := disk.UsageWithContext(ctx, h.diskPath); err == nil {
		stats.DiskTotal = usage.Total
		stats.DiskUsed = usage.Used
		stats.DiskPercent = usage.UsedPercent
	}

	return stats
}

func (h *Handler) databaseStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) redisPoolStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Storage  StorageStatus  `json:"storage"`
	Runtime  RuntimeStats   `json:"runtime"`
	Host     HostStats      `json:"host"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type StorageStatus struct {
	Enabled bool `json:"enabled"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

type HostStats struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemTotal    uint64  `json:"mem_total_bytes"`
	MemUsed     uint64  `json:"mem_used_bytes"`
	MemPercent  float64 `json:"mem_percent"`
	DiskTotal   uint64  `json:"disk_total_bytes"`
	DiskUsed    uint64  `json:"disk_used_bytes"`
	DiskPercent float64 `json:"disk_percent"`
}
