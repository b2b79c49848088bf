package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scoutgrid/internal/httputil"
	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// echartsAssetsPrefix serves the ECharts bundle from its public CDN.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// cellMetric picks the value a chart colours cells by.
func cellMetric(name string) (func(scouting.AggregateCellData) float64, error) {
	switch name {
	case "", "fit":
		return scouting.AggregateCellData.Fit, nil
	case "risk":
		return func(c scouting.AggregateCellData) float64 { return float64(c.AverageRisk) }, nil
	case "reward":
		return func(c scouting.AggregateCellData) float64 { return float64(c.AverageReward) }, nil
	case "reports":
		return func(c scouting.AggregateCellData) float64 { return float64(c.NumReports) }, nil
	}
	return nil, fmt.Errorf("unknown metric %q (want fit, risk, reward or reports)", name)
}

// handleHeatmap renders the live cells as an HTML scatter heatmap.
// Query params:
//   - metric (optional; fit, risk, reward or reports; default fit)
func (ws *WebServer) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	metricName := r.URL.Query().Get("metric")
	value, err := cellMetric(metricName)
	if err != nil {
		httputil.BadRequest(w, "%v", err)
		return
	}
	if metricName == "" {
		metricName = "fit"
	}

	snap := ws.grid.Snapshot()
	cells := snap.Cells()
	if len(cells) == 0 {
		httputil.NotFound(w, "no scouting cells available")
		return
	}

	idx := ws.grid.Index()
	points := make([]opts.ScatterData, 0, len(cells))
	maxVal := 0.0
	for _, c := range cells {
		v := value(c)
		if v > maxVal {
			maxVal = v
		}
		points = append(points, opts.ScatterData{Value: []interface{}{c.Index.X, c.Index.Y, v}})
	}
	if maxVal == 0 {
		maxVal = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scouting Grid Heatmap", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Scouting Grid",
			Subtitle: fmt.Sprintf("metric=%s generation=%d tick=%d cells=%d", metricName, snap.Generation, snap.Tick, len(cells)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -1, Max: idx.Width, Name: "cell x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1, Max: idx.Height, Name: "cell y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries(metricName, points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 18}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render heatmap chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// cellGrid adapts a snapshot to plotter.GridXYZ. Empty cells are zero.
type cellGrid struct {
	width, height int
	values        []float64
}

func newCellGrid(idx scouting.SpatialIndex, cells []scouting.AggregateCellData, value func(scouting.AggregateCellData) float64) *cellGrid {
	g := &cellGrid{width: idx.Width, height: idx.Height, values: make([]float64, idx.Width*idx.Height)}
	for _, c := range cells {
		g.values[c.Index.X*idx.Height+c.Index.Y] = value(c)
	}
	return g
}

func (g *cellGrid) Dims() (c, r int)   { return g.width, g.height }
func (g *cellGrid) Z(c, r int) float64 { return g.values[c*g.height+r] }
func (g *cellGrid) X(c int) float64    { return float64(c) }
func (g *cellGrid) Y(r int) float64    { return float64(r) }

// handlePlot renders the same data as handleHeatmap as a static PNG.
func (ws *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	metricName := r.URL.Query().Get("metric")
	value, err := cellMetric(metricName)
	if err != nil {
		httputil.BadRequest(w, "%v", err)
		return
	}
	snap := ws.grid.Snapshot()
	cells := snap.Cells()
	if len(cells) == 0 {
		httputil.NotFound(w, "no scouting cells available")
		return
	}

	grid := newCellGrid(ws.grid.Index(), cells, value)
	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scouting grid, generation %d", snap.Generation)
	p.X.Label.Text = "cell x"
	p.Y.Label.Text = "cell y"
	p.Add(hm)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
