package intelrpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/scoutgrid/internal/attack"
	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// DefaultRebuildTimeout bounds SubmitReport calls that ask to wait.
const DefaultRebuildTimeout = 5 * time.Second

// SubmitReportRequest carries one or more reports. With Wait set the call
// returns only once a snapshot including them has been published.
type SubmitReportRequest struct {
	Reports []scouting.ReportInput `json:"reports"`
	Wait    bool                   `json:"wait,omitempty"`
}

// Server implements IntelGridServer on top of a grid.
type Server struct {
	grid      *scouting.Grid
	predictor *attack.Predictor
	logger    *log.Logger
}

// NewServer creates a Server. A nil predictor uses the default thresholds.
func NewServer(grid *scouting.Grid, predictor *attack.Predictor, logger *log.Logger) *Server {
	if predictor == nil {
		predictor = attack.NewPredictor(attack.PredictorConfig{})
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{grid: grid, predictor: predictor, logger: logger}
}

var _ IntelGridServer = (*Server)(nil)

// SubmitReport queues the request's reports on the grid.
func (s *Server) SubmitReport(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var in SubmitReportRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(in.Reports) == 0 {
		return nil, status.Error(codes.InvalidArgument, "no reports")
	}
	tick := s.grid.CurrentTick()
	for _, r := range in.Reports {
		s.grid.SubmitReport(r.Report(tick))
	}
	if in.Wait {
		ctx, cancel := context.WithTimeout(ctx, DefaultRebuildTimeout)
		defer cancel()
		if _, err := s.grid.Rebuild(ctx); err != nil {
			return nil, rebuildStatus(err)
		}
	}
	return &emptypb.Empty{}, nil
}

// BestCell returns the cell with the greatest fit.
func (s *Server) BestCell(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in BestCellRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var (
		cell scouting.AggregateCellData
		ok   bool
	)
	if in.Exclude != nil {
		cell, ok = s.grid.BestCellExcluding(*in.Exclude)
	} else {
		cell, ok = s.grid.BestCell()
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "no scouting data")
	}
	snap := s.grid.Snapshot()
	return encode(CellResponse{Generation: snap.Generation, Tick: snap.Tick, Cell: cell, Fit: cell.Fit()})
}

// PredictAttack assesses an attack against a cell.
func (s *Server) PredictAttack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in PredictRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(in.Units) > 0 {
		metric, err := attack.MetricByName(in.Metric)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		in.Lethality = attack.TotalLethality(in.Units, metric)
	}

	var (
		cell scouting.AggregateCellData
		ok   bool
	)
	if in.Position != nil {
		cell, ok = s.grid.CellAt(*in.Position)
	} else {
		cell, ok = s.grid.BestCell()
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "no scouting data for prediction")
	}
	bounds := s.grid.HistoricalBounds()
	return encode(PredictResponse{
		Cell:       cell,
		Lethality:  in.Lethality,
		Bounds:     bounds,
		Assessment: s.predictor.Assess(cell.AverageRisk, cell.AverageReward, in.Lethality, bounds),
	})
}

func encode(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func rebuildStatus(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "rebuild timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "rebuild cancelled")
	case errors.Is(err, scouting.ErrNotRunning), errors.Is(err, scouting.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, fmt.Sprintf("rebuild: %v", err))
}
