package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/TimurManjosov/goendpoint/internal/engine"
	"github.com/TimurManjosov/goendpoint/internal/ruleset"
	"github.com/TimurManjosov/goendpoint/internal/store"
)

// RulesetView is one service's ruleset as served to clients: the raw
// document for distribution plus the compiled form used to resolve
// endpoints locally.
type RulesetView struct {
	Service   string          `json:"service"`
	Env       string          `json:"env"`
	Document  json.RawMessage `json:"document"`
	UpdatedAt time.Time       `json:"updatedAt"`

	compiled *engine.Ruleset
}

// Compiled returns the compiled ruleset. Never nil for views inside a
// built snapshot.
func (v *RulesetView) Compiled() *engine.Ruleset {
	return v.compiled
}

// Snapshot is an immutable view of every ruleset in the environment.
// Resolution and the snapshot API read from here, never from the store.
type Snapshot struct {
	ETag      string                 `json:"etag"`
	Rulesets  map[string]RulesetView `json:"rulesets"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

var current atomic.Pointer[Snapshot]

// Load returns the current snapshot. Before the first Update it returns
// an empty snapshot rather than nil.
func Load() *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	return &Snapshot{ETag: `W/"0"`, Rulesets: map[string]RulesetView{}, UpdatedAt: time.Now().UTC()}
}

// Build compiles store records into a snapshot. Records whose document
// fails to decode or compile are left out and reported in the returned
// error; the snapshot is still usable so one broken document cannot take
// every other service down with it.
func Build(records []store.Record) (*Snapshot, error) {
	rulesets := make(map[string]RulesetView, len(records))
	var firstErr error

	for _, rec := range records {
		doc, err := ruleset.DecodeJSON(rec.Document)
		if err != nil {
			// Documents from the file store may be YAML.
			doc, err = ruleset.DecodeYAML(rec.Document)
		}
		if err == nil {
			var rs *engine.Ruleset
			rs, err = ruleset.Compile(doc)
			if err == nil {
				rulesets[rec.Service] = RulesetView{
					Service:   rec.Service,
					Env:       rec.Env,
					Document:  json.RawMessage(rec.Document),
					UpdatedAt: rec.UpdatedAt,
					compiled:  rs,
				}
				continue
			}
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("service %q: %w", rec.Service, err)
		}
	}

	return &Snapshot{
		ETag:      computeETag(rulesets),
		Rulesets:  rulesets,
		UpdatedAt: time.Now().UTC(),
	}, firstErr
}

// Update installs s as the current snapshot and notifies subscribers.
func Update(s *Snapshot) {
	current.Store(s)
	publishUpdate(s.ETag)
}

// computeETag hashes the documents in service order so equal content
// yields an equal tag regardless of build order.
func computeETag(rulesets map[string]RulesetView) string {
	names := make([]string, 0, len(rulesets))
	for name := range rulesets {
		names = append(names, name)
	}
	sort.Strings(names)

	h := xxhash.New()
	for _, name := range names {
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(rulesets[name].Document)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf(`W/"%016x"`, h.Sum64())
}
