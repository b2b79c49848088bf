package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/scoutgrid/internal/attack"
	"github.com/banshee-data/scoutgrid/internal/httputil"
	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// rebuildTimeout bounds ?wait=true submissions.
const rebuildTimeout = 5 * time.Second

type cellResponse struct {
	Generation uint64                     `json:"generation"`
	Tick       int64                      `json:"tick"`
	Cell       scouting.AggregateCellData `json:"cell"`
	Fit        float64                    `json:"fit"`
}

func (ws *WebServer) writeCell(w http.ResponseWriter, c scouting.AggregateCellData) {
	snap := ws.grid.Snapshot()
	httputil.WriteJSONOK(w, cellResponse{Generation: snap.Generation, Tick: snap.Tick, Cell: c, Fit: c.Fit()})
}

// positionParam reads a map position from the named query parameters.
// ok is false when either coordinate is missing.
func positionParam(r *http.Request, xName, yName string) (pos scouting.Position, ok bool, err error) {
	x, okX, err := httputil.QueryInt(r, xName)
	if err != nil {
		return pos, false, err
	}
	y, okY, err := httputil.QueryInt(r, yName)
	if err != nil {
		return pos, false, err
	}
	if okX != okY {
		return pos, false, fmt.Errorf("%s and %s must be given together", xName, yName)
	}
	return scouting.Position{X: x, Y: y}, okX, nil
}

// requirePosition is positionParam for handlers that cannot do without one.
func requirePosition(w http.ResponseWriter, r *http.Request) (scouting.Position, bool) {
	pos, ok, err := positionParam(r, "x", "y")
	if err != nil {
		httputil.BadRequest(w, "%v", err)
		return pos, false
	}
	if !ok {
		httputil.BadRequest(w, "x and y are required")
		return pos, false
	}
	return pos, true
}

// cellOrIndex returns the aggregate at pos, or an empty cell carrying only
// its index so neighbourhood queries still work over unknown ground.
func (ws *WebServer) cellOrIndex(pos scouting.Position) scouting.AggregateCellData {
	if c, ok := ws.grid.CellAt(pos); ok {
		return c
	}
	return scouting.AggregateCellData{Index: ws.grid.Index().Index(pos)}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return false
	}
	return true
}

func (ws *WebServer) handleBest(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	exclude, hasExclude, err := positionParam(r, "exclude_x", "exclude_y")
	if err != nil {
		httputil.BadRequest(w, "%v", err)
		return
	}
	var (
		c  scouting.AggregateCellData
		ok bool
	)
	if hasExclude {
		c, ok = ws.grid.BestCellExcluding(exclude)
	} else {
		c, ok = ws.grid.BestCell()
	}
	if !ok {
		httputil.NotFound(w, "no scouting data")
		return
	}
	ws.writeCell(w, c)
}

func (ws *WebServer) handleCells(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	snap := ws.grid.Snapshot()
	httputil.WriteJSONOK(w, map[string]any{
		"generation":    snap.Generation,
		"tick":          snap.Tick,
		"total_reports": snap.TotalReports(),
		"width":         ws.grid.Index().Width,
		"height":        ws.grid.Index().Height,
		"cells":         snap.Cells(),
	})
}

func (ws *WebServer) handleCell(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	pos, ok := requirePosition(w, r)
	if !ok {
		return
	}
	c, found := ws.grid.CellAt(pos)
	if !found {
		httputil.NotFound(w, fmt.Sprintf("no scouting data at %v", pos))
		return
	}
	ws.writeCell(w, c)
}

func (ws *WebServer) handleSurrounding(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	pos, ok := requirePosition(w, r)
	if !ok {
		return
	}
	c, found := ws.grid.BestSurroundingCell(ws.cellOrIndex(pos))
	if !found {
		httputil.NotFound(w, fmt.Sprintf("no scouting data around %v", pos))
		return
	}
	ws.writeCell(w, c)
}

func (ws *WebServer) handleSafe(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	pos, ok := requirePosition(w, r)
	if !ok {
		return
	}
	start, hasStart, err := positionParam(r, "start_x", "start_y")
	if err != nil {
		httputil.BadRequest(w, "%v", err)
		return
	}
	if !hasStart {
		httputil.BadRequest(w, "start_x and start_y are required")
		return
	}
	safe := ws.grid.SafeCellBetween(ws.cellOrIndex(pos), start)
	httputil.WriteJSONOK(w, map[string]any{
		"position": safe,
		"at_start": safe == start,
	})
}

// predictRequest is the POST form of /api/grid/predict. Units, when
// given, are scored with Metric ("hitpoints" or "damage") and override
// Lethality.
type predictRequest struct {
	Position  *scouting.Position `json:"position,omitempty"`
	Lethality float64            `json:"lethality"`
	Units     []attack.Combatant `json:"units,omitempty"`
	Metric    string             `json:"metric,omitempty"`
}

type predictResponse struct {
	Cell       scouting.AggregateCellData `json:"cell"`
	Lethality  float64                    `json:"lethality"`
	Bounds     *scouting.HistoricalBounds `json:"bounds"`
	Assessment attack.Assessment          `json:"assessment"`
}

func (ws *WebServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	switch r.Method {
	case http.MethodGet:
		pos, ok, err := positionParam(r, "x", "y")
		if err != nil {
			httputil.BadRequest(w, "%v", err)
			return
		}
		if ok {
			req.Position = &pos
		}
		if req.Lethality, err = httputil.QueryFloat(r, "lethality", 0); err != nil {
			httputil.BadRequest(w, "%v", err)
			return
		}
	case http.MethodPost:
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, "%v", err)
			return
		}
		if len(req.Units) > 0 {
			metric, err := attack.MetricByName(req.Metric)
			if err != nil {
				httputil.BadRequest(w, "%v", err)
				return
			}
			req.Lethality = attack.TotalLethality(req.Units, metric)
		}
	default:
		httputil.MethodNotAllowed(w, "GET, POST")
		return
	}

	var (
		cell scouting.AggregateCellData
		ok   bool
	)
	if req.Position != nil {
		cell, ok = ws.grid.CellAt(*req.Position)
	} else {
		cell, ok = ws.grid.BestCell()
	}
	if !ok {
		httputil.NotFound(w, "no scouting data for prediction")
		return
	}
	bounds := ws.grid.HistoricalBounds()
	httputil.WriteJSONOK(w, predictResponse{
		Cell:       cell,
		Lethality:  req.Lethality,
		Bounds:     bounds,
		Assessment: ws.predictor.Assess(cell.AverageRisk, cell.AverageReward, req.Lethality, bounds),
	})
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	snap := ws.grid.Snapshot()
	resp := map[string]any{
		"worker":        ws.grid.Stats(),
		"tick":          ws.grid.CurrentTick(),
		"generation":    snap.Generation,
		"total_reports": snap.TotalReports(),
		"bounds":        ws.grid.HistoricalBounds(),
		"running":       ws.grid.IsRunning(),
	}
	if ws.store != nil {
		resp["store"] = ws.store.Stats()
	}
	httputil.WriteJSONOK(w, resp)
}

// handleReports accepts one ReportInput object or an array of them. With
// ?wait=true it blocks until a snapshot including them is published.
func (ws *WebServer) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodyBytes+1))
	if err != nil {
		httputil.BadRequest(w, "read body: %v", err)
		return
	}
	if len(body) > httputil.MaxBodyBytes {
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	var inputs []scouting.ReportInput
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &inputs)
	} else {
		var one scouting.ReportInput
		err = json.Unmarshal(trimmed, &one)
		inputs = append(inputs, one)
	}
	if err != nil {
		httputil.BadRequest(w, "invalid JSON body: %v", err)
		return
	}

	tick := ws.grid.CurrentTick()
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		rep := in.Report(tick)
		ws.grid.SubmitReport(rep)
		ids = append(ids, rep.ID.String())
	}

	resp := map[string]any{"accepted": len(ids), "ids": ids}
	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), rebuildTimeout)
		defer cancel()
		snap, err := ws.grid.Rebuild(ctx)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusServiceUnavailable, fmt.Sprintf("rebuild: %v", err))
			return
		}
		resp["generation"] = snap.Generation
	}
	httputil.WriteJSON(w, http.StatusAccepted, resp)
}

func (ws *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if ws.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "bounds store not configured")
		return
	}
	pos, ok := requirePosition(w, r)
	if !ok {
		return
	}
	limit, _, err := httputil.QueryInt(r, "limit")
	if err != nil {
		httputil.BadRequest(w, "%v", err)
		return
	}
	idx := ws.grid.Index().Index(pos)
	hist, err := ws.store.CellHistory(r.Context(), idx, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("cell history: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]any{"index": idx, "history": hist})
}
