package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedRequest is returned when an envelope names a kind this
// protocol version does not speak. Callers map it to the wire error token
// "unsupported_request".
var ErrUnsupportedRequest = errors.New("unsupported request kind")

// ErrInvalidDomain marks caller input that cannot be reduced to a
// registrable domain. It distinguishes a bad request from a mutation that
// failed inside the daemon.
var ErrInvalidDomain = errors.New("invalid domain")

// DecodeRequest parses one protocol envelope, {"kind": ..., ...payload},
// into its typed request. The payload fields live beside kind in the same
// object, so each branch re-unmarshals the full envelope into the concrete
// type.
func DecodeRequest(data []byte) (Request, error) {
	var env struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed request envelope: %w", err)
	}

	switch env.Kind {
	case KindGetState:
		var r GetStateRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		return r, nil

	case KindRiskReport:
		var r RiskReportRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		return r, nil

	case KindBlockDomain:
		var r BlockDomainRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		return r, nil

	case KindAllowDomain:
		var r AllowDomainRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		return r, nil

	case KindRemoveFromList:
		var wire struct {
			Domain string `json:"domain"`
			List   string `json:"list"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		list, err := ParseListName(wire.List)
		if err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		return RemoveFromListRequest{Domain: wire.Domain, List: list}, nil

	case KindUpdateSettings:
		var r UpdateSettingsRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("malformed %s request: %w", env.Kind, err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRequest, env.Kind)
	}
}
