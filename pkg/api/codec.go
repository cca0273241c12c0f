package api

import (
	"connectrpc.com/connect"
	"github.com/bytedance/sonic"
)

// Ensure Codec implements connect.Codec
var _ connect.Codec = Codec{}

// Codec encodes messages as JSON. It registers under the name "json", which
// replaces Connect's protobuf-only JSON codec for these services.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return sonic.ConfigStd.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return sonic.ConfigStd.Unmarshal(data, msg)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}
