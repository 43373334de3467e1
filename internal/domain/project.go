package domain

import (
	"strings"
	"time"
)

// Project represents one product-sourcing project moving through the phase lifecycle.
type Project struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	ASIN            string
	Phase           Phase
	Decision        Decision
	DiscardedReason string
	DiscardedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ArchivedAt      *time.Time
}

// NewProject constructs a project in the research phase with no decision.
func NewProject(id, name, description string, now time.Time) (Project, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}

	return Project{
		ID:          id,
		Slug:        normalizeSlug(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		Phase:       PhaseResearch,
		Decision:    DecisionNone,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// UpdateDetails updates name and description.
func (p *Project) UpdateDetails(name, description string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	p.Name = name
	p.Slug = normalizeSlug(name)
	p.Description = strings.TrimSpace(description)
	p.UpdatedAt = now.UTC()
	return nil
}

// SetASIN records the competitor identifier researched for this project.
func (p *Project) SetASIN(asin string, now time.Time) {
	p.ASIN = strings.ToUpper(strings.TrimSpace(asin))
	p.UpdatedAt = now.UTC()
}

// SetDecision records a verdict. Use Discard to record DISCARDED with a reason.
func (p *Project) SetDecision(decision Decision, now time.Time) error {
	decision, err := NormalizeDecision(decision)
	if err != nil {
		return err
	}
	if decision == DecisionDiscarded {
		return p.Discard("", now)
	}
	p.Decision = decision
	p.DiscardedReason = ""
	p.DiscardedAt = nil
	p.UpdatedAt = now.UTC()
	return nil
}

// Discard marks the project DISCARDED, blocking forward phase changes.
func (p *Project) Discard(reason string, now time.Time) error {
	ts := now.UTC()
	p.Decision = DecisionDiscarded
	p.DiscardedReason = strings.TrimSpace(reason)
	p.DiscardedAt = &ts
	p.UpdatedAt = ts
	return nil
}

// RestoreFromDiscard lifts a discard by moving the decision back to HOLD.
func (p *Project) RestoreFromDiscard(now time.Time) error {
	if p.Decision != DecisionDiscarded {
		return ErrProjectNotDiscarded
	}
	p.Decision = DecisionHold
	p.DiscardedReason = ""
	p.DiscardedAt = nil
	p.UpdatedAt = now.UTC()
	return nil
}

// IsDiscarded reports whether forward phase changes are blocked by a discard.
func (p Project) IsDiscarded() bool {
	return p.Decision == DecisionDiscarded
}

// SetPhase writes the phase without consulting any gate.
func (p *Project) SetPhase(phase Phase, now time.Time) error {
	if !phase.Valid() {
		return ErrInvalidPhase
	}
	p.Phase = phase
	p.UpdatedAt = now.UTC()
	return nil
}

// Archive archives the project.
func (p *Project) Archive(now time.Time) {
	ts := now.UTC()
	p.ArchivedAt = &ts
	p.UpdatedAt = ts
}

// Restore restores an archived project.
func (p *Project) Restore(now time.Time) {
	p.ArchivedAt = nil
	p.UpdatedAt = now.UTC()
}

// normalizeSlug normalizes slug.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
