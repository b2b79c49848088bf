package intelrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/scoutgrid/internal/scouting"
)

// Client is a typed client for scoutgrid.v1.IntelGrid.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// SubmitReports sends reports. With wait set it returns after the grid has
// published a snapshot including them.
func (c *Client) SubmitReports(ctx context.Context, wait bool, reports ...scouting.ReportInput) error {
	req, err := toStruct(SubmitReportRequest{Reports: reports, Wait: wait})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, submitReportMethod, req, new(emptypb.Empty))
}

// BestCell returns the best cell, skipping the one containing exclude when
// it is non-nil.
func (c *Client) BestCell(ctx context.Context, exclude *scouting.Position) (*CellResponse, error) {
	var out CellResponse
	if err := c.call(ctx, bestCellMethod, BestCellRequest{Exclude: exclude}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictAttack assesses an attack.
func (c *Client) PredictAttack(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	var out PredictResponse
	if err := c.call(ctx, predictAttackMethod, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return err
	}
	return fromStruct(resp, out)
}
