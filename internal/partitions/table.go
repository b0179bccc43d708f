// Package partitions holds the read-only partition metadata table consumed
// by the engine's partition built-in. A partition groups regions sharing DNS
// and ARN conventions; resolution tries an exact region match, then each
// partition's region pattern, then the default partition.
package partitions

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/TimurManjosov/goendpoint/internal/engine"
)

//go:embed partitions.json
var defaultData []byte

// DefaultPartitionID is the partition used when a region matches neither an
// exact entry nor any region pattern.
const DefaultPartitionID = "aws"

// Region carries per-region metadata. Present regions may override nothing;
// membership itself is the signal.
type Region struct {
	Description string `json:"description,omitempty"`
}

// Outputs is the metadata a partition exposes to rule evaluation.
type Outputs struct {
	Name                 string `json:"name"`
	DNSSuffix            string `json:"dnsSuffix"`
	DualStackDNSSuffix   string `json:"dualStackDnsSuffix"`
	SupportsFIPS         bool   `json:"supportsFIPS"`
	SupportsDualStack    bool   `json:"supportsDualStack"`
	ImplicitGlobalRegion string `json:"implicitGlobalRegion"`
}

// Partition is one named grouping of regions.
type Partition struct {
	ID          string            `json:"id"`
	RegionRegex string            `json:"regionRegex"`
	Regions     map[string]Region `json:"regions"`
	Outputs     Outputs           `json:"outputs"`

	pattern *regexp.Regexp
}

type document struct {
	Version    string      `json:"version"`
	Partitions []Partition `json:"partitions"`
}

// Table is an immutable partition lookup. It is safe for concurrent use and
// may be shared across arbitrarily many evaluations.
type Table struct {
	partitions []Partition
	byRegion   map[string]int // region -> index into partitions
	defaultIdx int            // -1 when absent
}

// Load reads a partition document from r and compiles its region patterns.
func Load(r io.Reader) (*Table, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse partition document: %w", err)
	}
	if len(doc.Partitions) == 0 {
		return nil, fmt.Errorf("partition document contains no partitions")
	}

	t := &Table{
		partitions: doc.Partitions,
		byRegion:   make(map[string]int),
		defaultIdx: -1,
	}
	for i := range t.partitions {
		p := &t.partitions[i]
		if p.RegionRegex != "" {
			re, err := regexp.Compile(p.RegionRegex)
			if err != nil {
				return nil, fmt.Errorf("partition %q: invalid region pattern: %w", p.ID, err)
			}
			p.pattern = re
		}
		for region := range p.Regions {
			t.byRegion[region] = i
		}
		if p.ID == DefaultPartitionID {
			t.defaultIdx = i
		}
	}
	return t, nil
}

// Default returns the table built from the embedded partition set.
func Default() *Table {
	t, err := Load(bytes.NewReader(defaultData))
	if err != nil {
		// The embedded document is part of the build; failing to parse it is
		// a packaging bug, not a runtime condition.
		panic(fmt.Sprintf("partitions: embedded document invalid: %v", err))
	}
	return t
}

// PartitionFor implements engine.PartitionProvider.
func (t *Table) PartitionFor(region string) (engine.Partition, bool) {
	if idx, ok := t.byRegion[region]; ok {
		return t.partitions[idx].outputs(), true
	}
	if region != "" {
		for i := range t.partitions {
			p := &t.partitions[i]
			if p.pattern != nil && p.pattern.MatchString(region) {
				return p.outputs(), true
			}
		}
	}
	if t.defaultIdx >= 0 {
		return t.partitions[t.defaultIdx].outputs(), true
	}
	return engine.Partition{}, false
}

func (p *Partition) outputs() engine.Partition {
	return engine.Partition{
		Name:                 p.Outputs.Name,
		DNSSuffix:            p.Outputs.DNSSuffix,
		DualStackDNSSuffix:   p.Outputs.DualStackDNSSuffix,
		SupportsFIPS:         p.Outputs.SupportsFIPS,
		SupportsDualStack:    p.Outputs.SupportsDualStack,
		ImplicitGlobalRegion: p.Outputs.ImplicitGlobalRegion,
	}
}
