package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/obsidianstack/regionstats/pkg/types"
)

// errMalformed marks a body that is not JSON at all.
var errMalformed = errors.New("malformed JSON body")

// validationError is a well-formed body with the wrong shape.
type validationError struct {
	field string
	msg   string
}

func (e *validationError) Error() string { return e.field + ": " + e.msg }

// latencyBody keeps fields raw so presence and type can be checked separately.
type latencyBody struct {
	Regions     json.RawMessage `json:"regions"`
	ThresholdMs json.RawMessage `json:"threshold_ms"`
}

// parseLatencyRequest validates and decodes a POST /api/latency body.
// It returns errMalformed for invalid JSON and *validationError for a body
// of the wrong shape.
func parseLatencyRequest(body []byte) (types.LatencyRequest, error) {
	var req types.LatencyRequest
	if !json.Valid(body) {
		return req, errMalformed
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return req, &validationError{field: "body", msg: "must be a JSON object"}
	}

	var raw latencyBody
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return req, &validationError{field: "body", msg: err.Error()}
	}

	if isAbsent(raw.Regions) {
		return req, &validationError{field: "regions", msg: "field required"}
	}
	var regions []*string
	if err := json.Unmarshal(raw.Regions, &regions); err != nil {
		return req, &validationError{field: "regions", msg: "must be an array of strings"}
	}
	req.Regions = make([]string, 0, len(regions))
	for i, r := range regions {
		if r == nil {
			return req, &validationError{field: "regions", msg: fmt.Sprintf("item %d: must be a string, not null", i)}
		}
		req.Regions = append(req.Regions, *r)
	}

	if isAbsent(raw.ThresholdMs) {
		return req, &validationError{field: "threshold_ms", msg: "field required"}
	}
	n, err := parseInteger(raw.ThresholdMs)
	if err != nil {
		return req, &validationError{field: "threshold_ms", msg: err.Error()}
	}
	req.ThresholdMs = n
	return req, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// parseInteger accepts an integral JSON number, including ones written with a
// zero fractional part (174.0) or as a numeric string ("174"). Booleans are
// read as 1 and 0.
func parseInteger(raw json.RawMessage) (int64, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("out of range")
	}
	return int64(f), nil
}
