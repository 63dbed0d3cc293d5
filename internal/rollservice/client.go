package rollservice

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/dnddice/internal/processor"
)

// Client calls the roll service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a Client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ProcessText sends text to the roll service and decodes the results.
func (c *Client) ProcessText(ctx context.Context, text string, opts ...grpc.CallOption) ([]processor.Result, error) {
	req, err := structpb.NewStruct(map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, processTextMethod, req, resp, opts...); err != nil {
		return nil, err
	}

	data, err := resp.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	var out struct {
		Results []processor.Result `json:"results"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return out.Results, nil
}
