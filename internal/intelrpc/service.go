// Package intelrpc exposes the scouting grid over gRPC as the
// scoutgrid.v1.IntelGrid service. Messages are google.protobuf.Struct
// documents carrying the same JSON shapes as the HTTP API, so no
// generated code is needed on either side.
package intelrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/scoutgrid/internal/attack"
	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "scoutgrid.v1.IntelGrid"

const (
	submitReportMethod  = "/" + ServiceName + "/SubmitReport"
	bestCellMethod      = "/" + ServiceName + "/BestCell"
	predictAttackMethod = "/" + ServiceName + "/PredictAttack"
)

// BestCellRequest optionally excludes the cell containing a position.
type BestCellRequest struct {
	Exclude *scouting.Position `json:"exclude,omitempty"`
}

// CellResponse is a cell together with the snapshot it was read from.
type CellResponse struct {
	Generation uint64                     `json:"generation"`
	Tick       int64                      `json:"tick"`
	Cell       scouting.AggregateCellData `json:"cell"`
	Fit        float64                    `json:"fit"`
}

// PredictRequest asks for the strength of an attack on Position, or on the
// best cell when Position is nil. Non-empty Units override Lethality.
type PredictRequest struct {
	Position  *scouting.Position `json:"position,omitempty"`
	Lethality float64            `json:"lethality,omitempty"`
	Units     []attack.Combatant `json:"units,omitempty"`
	Metric    string             `json:"metric,omitempty"`
}

// PredictResponse is the assessment of a PredictRequest.
type PredictResponse struct {
	Cell       scouting.AggregateCellData `json:"cell"`
	Lethality  float64                    `json:"lethality"`
	Bounds     *scouting.HistoricalBounds `json:"bounds"`
	Assessment attack.Assessment          `json:"assessment"`
}

// IntelGridServer is the server side of scoutgrid.v1.IntelGrid.
type IntelGridServer interface {
	SubmitReport(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	BestCell(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	PredictAttack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterIntelGridServer registers srv on s.
func RegisterIntelGridServer(s grpc.ServiceRegistrar, srv IntelGridServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes scoutgrid.v1.IntelGrid for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntelGridServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitReport", Handler: submitReportHandler},
		{MethodName: "BestCell", Handler: bestCellHandler},
		{MethodName: "PredictAttack", Handler: predictAttackHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scoutgrid/v1/intel.proto",
}

func submitReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntelGridServer).SubmitReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitReportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntelGridServer).SubmitReport(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func bestCellHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntelGridServer).BestCell(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bestCellMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntelGridServer).BestCell(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func predictAttackHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntelGridServer).PredictAttack(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: predictAttackMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntelGridServer).PredictAttack(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// toStruct encodes v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}

// fromStruct decodes s into v, rejecting fields v does not declare.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
