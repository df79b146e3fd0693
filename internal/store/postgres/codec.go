package postgres

import (
	"encoding/json"

	types "github.com/flammafex/rendezvous/internal/domain/types"
	rverr "github.com/flammafex/rendezvous/internal/rendezvouserr"
)

func encodeGate(g types.Gate) ([]byte, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeInternal, "encode gate", err)
	}
	return b, nil
}

func decodeGate(raw []byte) (types.Gate, error) {
	var g types.Gate
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, rverr.Wrap(rverr.CodeInternal, "decode gate", err)
	}
	return g, nil
}

func encodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, rverr.Wrap(rverr.CodeInternal, "encode", err)
	}
	return b, nil
}

func decodeJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return rverr.Wrap(rverr.CodeInternal, "decode", err)
	}
	return nil
}
