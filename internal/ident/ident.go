// Package ident generates per-kind monotonic identifiers of the form
// "{kind}_{n}". Counters start at 1, are never decremented, and survive
// restarts as part of every snapshot image.
package ident

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Identifier kinds used by the services.
const (
	KindEvent      = "event"
	KindModel      = "model"
	KindPrediction = "prediction"
	KindTrend      = "trend"
	KindBrand      = "brand"
)

// ParticipantName is the section name the generator uses in snapshot images.
const ParticipantName = "ident"

// Generator hands out identifiers. It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	counters map[string]uint64 // next value per kind
}

// counterPair is the persisted form of one counter.
type counterPair struct {
	Key   string `json:"key"`
	Value uint64 `json:"value"`
}

// NewGenerator creates a generator with every counter at its initial value.
func NewGenerator() *Generator {
	return &Generator{counters: make(map[string]uint64)}
}

// Next returns the next identifier for kind.
func (g *Generator) Next(kind string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.counters[kind]
	if !ok {
		n = 1
	}
	g.counters[kind] = n + 1
	return kind + "_" + strconv.FormatUint(n, 10)
}

// Peek returns the value the next call to Next(kind) will use.
func (g *Generator) Peek(kind string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.counters[kind]; ok {
		return n
	}
	return 1
}

// Name implements store.Persistent.
func (g *Generator) Name() string { return ParticipantName }

// Len returns the number of kinds that have issued at least one identifier.
func (g *Generator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.counters)
}

// Export serializes the counters as key-ordered pairs.
func (g *Generator) Export() (json.RawMessage, error) {
	g.mu.Lock()
	pairs := make([]counterPair, 0, len(g.counters))
	for k, v := range g.counters {
		pairs = append(pairs, counterPair{Key: k, Value: v})
	}
	g.mu.Unlock()

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return json.Marshal(pairs)
}

// Import replaces all counters with the persisted values. A nil or empty
// message resets the generator to its initial state.
func (g *Generator) Import(data json.RawMessage) error {
	var pairs []counterPair
	if len(data) > 0 {
		if err := json.Unmarshal(data, &pairs); err != nil {
			return fmt.Errorf("ident: failed to decode counters: %w", err)
		}
	}

	counters := make(map[string]uint64, len(pairs))
	for _, p := range pairs {
		if p.Value == 0 {
			return fmt.Errorf("ident: counter %q has invalid value 0", p.Key)
		}
		counters[p.Key] = p.Value
	}

	g.mu.Lock()
	g.counters = counters
	g.mu.Unlock()
	return nil
}

// Sequence extracts the numeric suffix of an identifier produced by Next.
func Sequence(id string) (uint64, bool) {
	i := strings.LastIndexByte(id, '_')
	if i < 0 || i == len(id)-1 {
		return 0, false
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Less orders identifiers by kind, then numerically by sequence. Identifiers
// without a numeric suffix fall back to string order.
func Less(a, b string) bool {
	na, okA := Sequence(a)
	nb, okB := Sequence(b)
	if okA && okB {
		pa, pb := a[:strings.LastIndexByte(a, '_')], b[:strings.LastIndexByte(b, '_')]
		if pa != pb {
			return pa < pb
		}
		return na < nb
	}
	return a < b
}
