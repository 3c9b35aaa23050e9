package server

import (
	"net/http"
	"strings"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Assets and per-asset data
	mux.HandleFunc("/api/assets/", s.routeAssets)
	mux.HandleFunc("/api/assets", s.handleAssets)

	// Dashboard snapshots
	mux.HandleFunc("/api/dashboard", s.handleDashboard)

	// Cache administration
	mux.HandleFunc("/api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("/api/cache/clear-series", s.handleCacheClearSeries)
}

// routeAssets dispatches /api/assets/{name}/* to the appropriate handler.
func (s *Server) routeAssets(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assets/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, "Asset name is required in path")
		return
	}

	idx := strings.Index(rest, "/")
	if idx < 0 {
		WriteError(w, http.StatusNotFound, "Unknown asset route")
		return
	}
	name := PathParam(r, "/api/assets/", "/")
	action := rest[idx+1:]

	switch action {
	case "trades":
		s.handleOpenTrades(w, r, name)
	case "completed-trades":
		s.handleCompletedTrades(w, r, name)
	case "series":
		s.handleSeries(w, r, name)
	case "metrics":
		s.handleMetrics(w, r, name)
	case "chart":
		s.handleChart(w, r, name)
	case "chart.png":
		s.handleChartPNG(w, r, name)
	case "select":
		s.handleSelect(w, r, name)
	default:
		WriteError(w, http.StatusNotFound, "Unknown asset route: "+action)
	}
}
