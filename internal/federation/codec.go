package federation

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// frame is the single message type every peer stream exchanges: one opaque
// byte slice, already produced by the federation manager's own envelope
// encoding. Using json for the grpc wire codec — instead of protobuf — is
// a deliberate choice for this layer: it keeps federation traffic
// inspectable without a .proto toolchain, at the cost of some wire-size
// efficiency we don't need at this scale.
type frame struct {
	Data []byte `json:"data"`
}

const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
