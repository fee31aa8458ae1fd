package controllers

import (
	"clanwatch/internal/providers"
	"clanwatch/internal/services"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	service   services.AnalyticsServiceInterface
	cache     providers.CacheProviderInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Generation    int64   `json:"generation"`
	Members       int     `json:"members"`
	LastUpdated   string  `json:"last_updated"`
	CachedViews   int64   `json:"cached_views"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	overview := hc.service.Overview()
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Generation:    hc.service.Generation(),
		Members:       overview.MemberCount,
		LastUpdated:   overview.LastUpdated,
		CachedViews:   hc.cache.Len(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.AnalyticsServiceInterface, cache providers.CacheProviderInterface) *HealthController {
	return &HealthController{
		service:   service,
		cache:     cache,
		startTime: time.Now(),
	}
}
