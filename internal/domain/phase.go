package domain

import (
	"strconv"
	"strings"
)

// Phase is one of the seven ordinal sourcing lifecycle stages.
type Phase int

// Phase values in lifecycle order.
const (
	PhaseResearch   Phase = 1
	PhaseViability  Phase = 2
	PhaseSuppliers  Phase = 3
	PhaseSamples    Phase = 4
	PhaseProduction Phase = 5
	PhaseListing    Phase = 6
	PhaseLive       Phase = 7
)

// phaseNames stores canonical lowercase names indexed by phase ordinal.
var phaseNames = map[Phase]string{
	PhaseResearch:   "research",
	PhaseViability:  "viability",
	PhaseSuppliers:  "suppliers",
	PhaseSamples:    "samples",
	PhaseProduction: "production",
	PhaseListing:    "listing",
	PhaseLive:       "live",
}

// Phases returns every phase in lifecycle order.
func Phases() []Phase {
	return []Phase{PhaseResearch, PhaseViability, PhaseSuppliers, PhaseSamples, PhaseProduction, PhaseListing, PhaseLive}
}

// Valid reports whether the phase is inside the fixed 1..7 range.
func (p Phase) Valid() bool {
	return p >= PhaseResearch && p <= PhaseLive
}

// Next returns the following phase, or false when p is the last one.
func (p Phase) Next() (Phase, bool) {
	if !p.Valid() || p == PhaseLive {
		return 0, false
	}
	return p + 1, true
}

// String returns the canonical phase name.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "phase(" + strconv.Itoa(int(p)) + ")"
}

// ParsePhase accepts any integer ordinal ("3", "9") or a phase name
// ("suppliers"). Ordinals outside 1..7 parse; the gate treats them as pairs
// without rules.
func ParsePhase(raw string) (Phase, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return 0, ErrInvalidPhase
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Phase(n), nil
	}
	for p, name := range phaseNames {
		if name == raw {
			return p, nil
		}
	}
	return 0, ErrInvalidPhase
}
