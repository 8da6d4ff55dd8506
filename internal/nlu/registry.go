package nlu

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"healthvoice/pkg/util"
)

// Keywords owned by the built-in grammars. A custom metric may not claim
// one of these unless its definition sets Override.
var builtinKeywords = map[string]bool{
	"calories": true, "calorie": true,
	"weight": true, "weigh": true,
	"sleep": true, "slept": true,
	"woke": true, "wake": true,
	"workout": true, "exercise": true,
	"vegetables": true, "vegetable": true,
}

// MetricDefinition describes one recognizable metric. Built-in kinds are
// fixed in the grammar cascade; custom definitions arrive from the
// dashboard and are matched by voice keyword.
type MetricDefinition struct {
	Kind        MetricKind
	ID          int64  // dashboard custom-metric id
	Keyword     string // case-insensitive, may be a multi-token phrase
	Name        string // display name, used in spoken confirmations
	Unit        string
	NumericOnly bool
	Override    bool // permit shadowing a built-in keyword
}

// Snapshot is an immutable view of the custom metric set. Parsers hold
// one snapshot for the duration of a parse call.
type Snapshot struct {
	defs []MetricDefinition // sorted longest keyword first
}

// Match checks whether the token window begins with a custom keyword
// phrase and returns the definition plus tokens consumed.
func (s *Snapshot) Match(tokens []string) (*MetricDefinition, int) {
	if s == nil {
		return nil, 0
	}
	for i := range s.defs {
		def := &s.defs[i]
		kw := strings.Fields(def.Keyword)
		if len(kw) == 0 || len(kw) > len(tokens) {
			continue
		}
		ok := true
		for j, w := range kw {
			if tokens[j] != w {
				ok = false
				break
			}
		}
		if ok {
			return def, len(kw)
		}
	}
	return nil, 0
}

// Len reports the number of custom definitions in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.defs)
}

// Registry holds the recognized custom metrics. Refresh swaps in a new
// snapshot atomically; readers are never blocked and never observe a
// partially updated set.
type Registry struct {
	snap atomic.Pointer[Snapshot]
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&Snapshot{})
	return r
}

// Refresh validates and installs a new custom metric set. Keywords are
// folded to lower case; duplicates and non-overriding collisions with
// built-in keywords reject the whole set.
func (r *Registry) Refresh(defs []MetricDefinition) error {
	seen := make(map[string]bool, len(defs))
	clean := make([]MetricDefinition, 0, len(defs))
	for _, def := range defs {
		kw := strings.ToLower(strings.TrimSpace(def.Keyword))
		if kw == "" {
			return fmt.Errorf("metric %q: empty keyword", def.Name)
		}
		if seen[kw] {
			return fmt.Errorf("metric %q: duplicate keyword %q", def.Name, kw)
		}
		if builtinKeywords[kw] && !def.Override {
			return fmt.Errorf("metric %q: keyword %q collides with a built-in", def.Name, kw)
		}
		seen[kw] = true
		def.Keyword = kw
		def.Kind = KindCustom
		clean = append(clean, def)
	}

	// Longest phrase first so "blood pressure" beats "blood".
	sort.SliceStable(clean, func(i, j int) bool {
		return len(strings.Fields(clean[i].Keyword)) > len(strings.Fields(clean[j].Keyword))
	})

	// Periodic refreshes usually bring back the same set; keep the old
	// snapshot pointer in that case.
	if cur := r.snap.Load(); cur != nil && util.EqualSlices(cur.defs, clean, func(x, y MetricDefinition) bool {
		return x == y
	}) {
		return nil
	}

	r.snap.Store(&Snapshot{defs: clean})
	return nil
}

// Snapshot returns the current immutable view.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}
