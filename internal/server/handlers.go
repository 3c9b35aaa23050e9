package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/linqiu/folio/internal/common"
	"github.com/linqiu/folio/internal/models"
	"github.com/linqiu/folio/internal/services/chart"
	"github.com/linqiu/folio/internal/services/metrics"
)

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// --- Asset handlers ---

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	assets, err := s.app.Ledger.Assets(r.Context(), refreshParam(r))
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error fetching assets: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"assets": assets,
	})
}

func (s *Server) handleOpenTrades(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	trades, err := s.app.Ledger.OpenTrades(r.Context(), name, refreshParam(r))
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error fetching trades: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"asset":  name,
		"trades": trades,
	})
}

func (s *Server) handleCompletedTrades(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	trades, err := s.app.Ledger.CompletedTrades(r.Context(), name, refreshParam(r))
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error fetching completed trades: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"asset":  name,
		"trades": trades,
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	series, err := s.app.Quotes.Series(r.Context(), name, refreshParam(r))
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error fetching series: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, series)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if _, err := s.app.Ledger.AssetByName(r.Context(), name); err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Asset not found: %v", err))
		return
	}

	s.app.Ledger.Select(r.Context(), name)

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"asset":  name,
		"status": "selected",
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	// ?asset= switches the selection before reading the snapshots. A load
	// still running for the previous selection is superseded.
	if name := r.URL.Query().Get("asset"); name != "" {
		if _, err := s.app.Ledger.AssetByName(r.Context(), name); err != nil {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Asset not found: %v", err))
			return
		}
		s.app.Ledger.Select(r.Context(), name)
	}

	WriteJSON(w, http.StatusOK, s.app.Ledger.Snapshots())
}

// --- Derived data handlers ---

// assetContext gathers the pieces the metrics and chart endpoints share:
// the resolved asset, both trade lists and the price series. A missing
// series is tolerated, trades are not.
func (s *Server) assetContext(r *http.Request, name string) (*models.Asset, []models.Trade, []models.Trade, *models.PriceSeries, error) {
	asset, err := s.app.Ledger.AssetByName(r.Context(), name)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	force := refreshParam(r)

	open, err := s.app.Ledger.OpenTrades(r.Context(), name, force)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	completed, err := s.app.Ledger.CompletedTrades(r.Context(), name, force)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	series, err := s.app.Quotes.Series(r.Context(), name, force)
	if err != nil {
		s.logger.Warn().Err(err).Str("asset", name).Msg("Price series unavailable, using ledger price")
		series = nil
	}

	return asset, open, completed, series, nil
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	asset, open, completed, series, err := s.assetContext(r, name)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error computing metrics: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, metrics.Compute(asset, open, completed, series))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	_, open, completed, series, err := s.assetContext(r, name)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error building chart: %v", err))
		return
	}

	points := metrics.BuildChartSeries(series, open, completed, metrics.DefaultWindow, metrics.DefaultBandPct)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"asset":  name,
		"points": points,
	})
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	_, open, completed, series, err := s.assetContext(r, name)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error building chart: %v", err))
		return
	}

	points := metrics.BuildChartSeries(series, open, completed, metrics.DefaultWindow, metrics.DefaultBandPct)
	png, err := chart.Render(name, points)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Chart render failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// --- Cache handlers ---

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.app.Ledger.ClearCache(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Cache clear failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleCacheClearSeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if secID := r.URL.Query().Get("secid"); secID != "" {
		if err := s.app.Quotes.ClearSeriesFor(r.Context(), secID); err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Series cache clear failed: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared", "secid": secID})
		return
	}

	if err := s.app.Quotes.ClearSeries(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Series cache clear failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
