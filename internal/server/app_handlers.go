package server

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/akeil/stashd/internal/web"
)

// Build metadata, injected at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		web.JSON(w, s.log, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "stashd",
		})
		return
	}

	web.JSON(w, s.log, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "stashd",
	})
}

// handleReset wipes all savings data and re-provisions the store.
// POST /app/reset?keep_settings=true
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	keepSettings := false
	if raw := r.URL.Query().Get("keep_settings"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "Invalid keep_settings value", http.StatusUnprocessableEntity)
			return
		}
		keepSettings = parsed
	}

	if err := s.store.Reset(r.Context(), keepSettings); err != nil {
		web.Error(w, s.log, err)
		return
	}

	s.log.Info().Bool("keep_settings", keepSettings).Msg("Store reset completed")
	web.JSON(w, s.log, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "All savings data cleared",
	})
}

// handleMetadata reports build and host information.
// GET /app/metadata
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	// Get CPU percentage (average across all CPUs, over 100ms for faster response)
	cpuAvg := 0.0
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	// Get memory statistics (instant, no blocking)
	ramPercent := 0.0
	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		ramPercent = memStat.UsedPercent
	}

	var storeSize, walSize int64
	if stats, err := s.store.GetStats(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get store statistics")
	} else {
		storeSize = stats.SizeBytes
		walSize = stats.WALSizeBytes
	}

	web.JSON(w, s.log, http.StatusOK, map[string]interface{}{
		"app_name":         "stashd",
		"app_version":      Version,
		"commit":           Commit,
		"go_version":       runtime.Version(),
		"cpu_percent":      cpuAvg,
		"ram_percent":      ramPercent,
		"store_size_bytes": storeSize,
		"wal_size_bytes":   walSize,
	})
}
