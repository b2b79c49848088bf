// Package monitor serves the grid's HTTP interface: JSON query and
// submission endpoints plus debug charts of the published grid.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/banshee-data/scoutgrid/internal/attack"
	"github.com/banshee-data/scoutgrid/internal/httputil"
	"github.com/banshee-data/scoutgrid/internal/scouting"
	"github.com/banshee-data/scoutgrid/internal/storage/sqlite"
	"github.com/banshee-data/scoutgrid/internal/version"
)

// BoundsStore is the part of the historical store the monitor reads.
type BoundsStore interface {
	CellHistory(ctx context.Context, idx scouting.CellIndex, limit int) ([]sqlite.CellHistory, error)
	Stats() sqlite.Stats
}

// AdminRoutes mounts extra debug routes, such as the database console.
type AdminRoutes interface {
	AttachAdminRoutes(mux *http.ServeMux) error
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address   string
	Grid      *scouting.Grid
	Predictor *attack.Predictor
	// Store and Admin are optional.
	Store BoundsStore
	Admin AdminRoutes
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// WebServer handles the HTTP interface of one grid.
type WebServer struct {
	address   string
	grid      *scouting.Grid
	predictor *attack.Predictor
	store     BoundsStore
	admin     AdminRoutes
	logger    *log.Logger
	server    *http.Server
	mux       *http.ServeMux
}

// NewWebServer builds the server and its routes. It fails only if the
// admin routes cannot be mounted.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	if config.Grid == nil {
		return nil, errors.New("monitor: grid is required")
	}
	predictor := config.Predictor
	if predictor == nil {
		predictor = attack.NewPredictor(attack.PredictorConfig{})
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	ws := &WebServer{
		address:   config.Address,
		grid:      config.Grid,
		predictor: predictor,
		store:     config.Store,
		admin:     config.Admin,
		logger:    logger,
	}
	mux, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.mux = mux
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws, nil
}

// ServeMux returns the server's routes.
func (ws *WebServer) ServeMux() *http.ServeMux { return ws.mux }

// Start serves until ctx is cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		ws.logger.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	ws.logger.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		ws.logger.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			ws.logger.Printf("HTTP server force close error: %v", err)
		}
	}
	ws.logger.Printf("HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/grid/best", ws.handleBest)
	mux.HandleFunc("/api/grid/cells", ws.handleCells)
	mux.HandleFunc("/api/grid/cell", ws.handleCell)
	mux.HandleFunc("/api/grid/surrounding", ws.handleSurrounding)
	mux.HandleFunc("/api/grid/safe", ws.handleSafe)
	mux.HandleFunc("/api/grid/predict", ws.handlePredict)
	mux.HandleFunc("/api/grid/stats", ws.handleStats)
	mux.HandleFunc("/api/grid/reports", ws.handleReports)
	mux.HandleFunc("/api/grid/history", ws.handleHistory)
	mux.HandleFunc("/debug/grid/heatmap", ws.handleHeatmap)
	mux.HandleFunc("/debug/grid/plot.png", ws.handlePlot)

	if ws.admin != nil {
		if err := ws.admin.AttachAdminRoutes(mux); err != nil {
			return nil, fmt.Errorf("attach admin routes: %w", err)
		}
	}
	return mux, nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"git_sha": version.GitSHA,
		"running": ws.grid.IsRunning(),
	})
}
