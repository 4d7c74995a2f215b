// Package shape maps the inconsistent success payloads of the remote process
// API onto canonical lists and objects.
package shape

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"procproxy/pkg/types"
)

// listKeys are the wrapper fields tried, in order, when the payload is an
// object rather than a bare array.
var listKeys = []string{"processes", "data", "items"}

// objectKeys wrap a single process in detail payloads.
var objectKeys = []string{"process", "data", "item"}

// nameKeys are tried in order for a display name.
var nameKeys = []string{"displayName", "display_name", "name", "title"}

// Resolver is stateless apart from its logger.
type Resolver struct {
	log zerolog.Logger
}

// NewResolver returns a Resolver that reports structural anomalies to log.
func NewResolver(log zerolog.Logger) *Resolver { return &Resolver{log: log} }

// ResolveList returns the list of objects carried by body. Unrecognized or
// malformed payloads resolve to an empty, non-nil list.
func (r *Resolver) ResolveList(body []byte) []map[string]any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		r.log.Warn().Err(err).Int("bytes", len(body)).Msg("shape: malformed JSON, resolving to empty list")
		return []map[string]any{}
	}
	switch t := v.(type) {
	case []any:
		return objects(t)
	case map[string]any:
		for _, k := range listKeys {
			if arr, ok := t[k].([]any); ok {
				return objects(arr)
			}
		}
		r.log.Warn().Strs("keys", keysOf(t)).Msg("shape: object without a recognized list field")
	default:
		r.log.Warn().Str("type", jsonType(v)).Msg("shape: unexpected top-level value")
	}
	return []map[string]any{}
}

// ResolveObject returns the single process object carried by body, or nil.
func (r *Resolver) ResolveObject(body []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		r.log.Warn().AnErr("cause", err).Msg("shape: detail payload is not an object")
		return nil
	}
	if _, ok := obj["id"]; ok {
		return obj
	}
	for _, k := range objectKeys {
		if inner, ok := obj[k].(map[string]any); ok {
			return inner
		}
	}
	r.log.Warn().Strs("keys", keysOf(obj)).Msg("shape: detail object without id or wrapper")
	return nil
}

// Summaries converts resolved objects into summaries. Objects without an id
// are skipped; for duplicate ids the first occurrence wins.
func (r *Resolver) Summaries(objs []map[string]any) []types.ProcessSummary {
	out := make([]types.ProcessSummary, 0, len(objs))
	seen := make(map[string]struct{}, len(objs))
	for i, o := range objs {
		s, ok := Summary(o)
		if !ok {
			r.log.Warn().Int("index", i).Msg("shape: item without id skipped")
			continue
		}
		if _, dup := seen[s.ID]; dup {
			r.log.Warn().Str("id", s.ID).Msg("shape: duplicate id skipped")
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Detail converts a resolved object into a ProcessDetail.
func Detail(o map[string]any) (types.ProcessDetail, bool) {
	s, ok := Summary(o)
	if !ok {
		return types.ProcessDetail{}, false
	}
	attrs := make(map[string]any, len(o))
	for k, v := range o {
		if k == "id" {
			continue
		}
		attrs[k] = v
	}
	return types.ProcessDetail{ProcessSummary: s, Attributes: attrs}, true
}

// Summary extracts id and display name from a single object.
func Summary(o map[string]any) (types.ProcessSummary, bool) {
	id := idString(o["id"])
	if id == "" {
		return types.ProcessSummary{}, false
	}
	name := ""
	for _, k := range nameKeys {
		if s, ok := o[k].(string); ok && strings.TrimSpace(s) != "" {
			name = s
			break
		}
	}
	if name == "" {
		name = id
	}
	return types.ProcessSummary{ID: id, DisplayName: name}, true
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func objects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	default:
		return "unknown"
	}
}
