package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/terrain-web/internal/launchlog"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string                `json:"timestamp"`
	Version       string                `json:"version"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Runtime       RuntimeMetrics        `json:"runtime"`
	Page          PageMetrics           `json:"page"`
	Launches      *launchlog.AsyncStats `json:"launches,omitempty"`
	MQTT          ConnectionMetrics     `json:"mqtt"`
	InfluxDB      ConnectionMetrics     `json:"influxdb"`
	Database      *DatabaseMetrics      `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// PageMetrics describes the embed page configuration and usage.
type PageMetrics struct {
	Renders       uint64 `json:"renders"`
	EscapeMode    string `json:"escape_mode"`
	ForwardParams bool   `json:"forward_params"`
}

// ConnectionMetrics reports an optional backend.
type ConnectionMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// bytesPerMB converts byte counts for the runtime section.
const bytesPerMB = 1024 * 1024

// handleMetrics returns system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	opts := s.page.Options()
	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		Page: PageMetrics{
			Renders:       s.renders.Load(),
			EscapeMode:    string(opts.EscapeMode),
			ForwardParams: opts.ForwardParams,
		},
	}

	if s.launchStats != nil {
		stats := s.launchStats.Stats()
		metrics.Launches = &stats
	}

	if s.mqtt != nil {
		metrics.MQTT = ConnectionMetrics{Enabled: true, Connected: s.mqtt.IsConnected()}
	}
	if s.influx != nil {
		metrics.InfluxDB = ConnectionMetrics{Enabled: true, Connected: s.influx.IsConnected()}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
