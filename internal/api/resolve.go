package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/TimurManjosov/goendpoint/internal/engine"
	"github.com/TimurManjosov/goendpoint/internal/snapshot"
	"github.com/TimurManjosov/goendpoint/internal/telemetry"
)

type resolveRequest struct {
	Service string         `json:"service"`
	Params  map[string]any `json:"params,omitempty"`
}

type resolveResponse struct {
	Service    string              `json:"service"`
	URL        string              `json:"url"`
	Properties map[string]any      `json:"properties,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if req.Service == "" {
		BadRequestError(w, r, ErrCodeMissingField, "service is required")
		return
	}

	view, ok := snapshot.Load().Rulesets[req.Service]
	if !ok {
		NotFoundError(w, r, "no ruleset for service "+req.Service)
		return
	}
	rs := view.Compiled()

	input, fields := convertParams(rs, req.Params)
	if len(fields) > 0 {
		ValidationError(w, r, "invalid parameters", fields)
		return
	}

	start := time.Now()
	result, err := engine.New(s.parts).Evaluate(rs, input)
	dur := time.Since(start)

	if err != nil {
		var ruleErr *engine.RuleError
		var noMatch *engine.NoRuleMatchedError
		switch {
		case errors.As(err, &ruleErr):
			telemetry.ObserveResolution(req.Service, telemetry.OutcomeRuleErr, dur)
			UnprocessableError(w, r, ErrCodeRuleError, ruleErr.Message())
		case errors.As(err, &noMatch):
			telemetry.ObserveResolution(req.Service, telemetry.OutcomeNoMatch, dur)
			UnprocessableError(w, r, ErrCodeNoRuleMatched, err.Error())
		default:
			telemetry.ObserveResolution(req.Service, telemetry.OutcomeDefect, dur)
			InternalError(w, r, ErrCodeEvaluation, err.Error())
		}
		return
	}

	ep, err := result.ExpectEndpoint()
	if err != nil {
		telemetry.ObserveResolution(req.Service, telemetry.OutcomeDefect, dur)
		InternalError(w, r, ErrCodeEvaluation, err.Error())
		return
	}
	telemetry.ObserveResolution(req.Service, telemetry.OutcomeEndpoint, dur)

	writeJSON(w, http.StatusOK, resolveResponse{
		Service:    req.Service,
		URL:        ep.URL,
		Properties: propertiesJSON(ep.Properties),
		Headers:    ep.Headers,
	})
}

// convertParams maps request parameters onto runtime values, checking them
// against the ruleset's declarations. Returns field-level errors for
// unknown names, wrong types and missing required parameters.
func convertParams(rs *engine.Ruleset, params map[string]any) (map[engine.Identifier]engine.Value, map[string]string) {
	fields := map[string]string{}
	declared := make(map[string]engine.Parameter, len(rs.Parameters))
	for _, p := range rs.Parameters {
		declared[string(p.Name)] = p
	}

	input := make(map[engine.Identifier]engine.Value, len(params))
	for name, raw := range params {
		p, ok := declared[name]
		if !ok {
			fields[name] = "unknown parameter"
			continue
		}
		switch x := raw.(type) {
		case string:
			if p.Type != engine.ParamString {
				fields[name] = "must be a boolean"
				continue
			}
			input[engine.Identifier(name)] = engine.String(x)
		case bool:
			if p.Type != engine.ParamBool {
				fields[name] = "must be a string"
				continue
			}
			input[engine.Identifier(name)] = engine.Bool(x)
		default:
			fields[name] = fmt.Sprintf("unsupported type %T", raw)
		}
	}

	for _, p := range rs.Parameters {
		if !p.Required || p.Default != nil {
			continue
		}
		if _, ok := input[p.Name]; !ok {
			fields[string(p.Name)] = "required parameter is missing"
		}
	}

	if len(fields) == 0 {
		fields = nil
	}
	return input, fields
}

// propertiesJSON converts endpoint properties into plain JSON-encodable
// values.
func propertiesJSON(props map[string]engine.Value) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for name, v := range props {
		out[name] = valueJSON(v)
	}
	return out
}

func valueJSON(v engine.Value) any {
	switch v.Kind() {
	case engine.KindNone:
		return nil
	case engine.KindString:
		s, _ := v.ExpectString()
		return s
	case engine.KindBool:
		b, _ := v.ExpectBool()
		return b
	case engine.KindArray:
		arr, _ := v.ExpectArray()
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = valueJSON(item)
		}
		return out
	case engine.KindRecord:
		rec, _ := v.ExpectRecord()
		out := make(map[string]any, len(rec))
		for name, item := range rec {
			out[name] = valueJSON(item)
		}
		return out
	case engine.KindEndpoint:
		ep, _ := v.ExpectEndpoint()
		return map[string]any{
			"url":        ep.URL,
			"properties": propertiesJSON(ep.Properties),
			"headers":    ep.Headers,
		}
	}
	return nil
}
