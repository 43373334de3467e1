// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/quotetext"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrGateBlocked reports an advance refused by the phase gate.
var ErrGateBlocked = errors.New("phase gate blocked")

// ErrConflict reports a mutation rejected by the project's current state.
var ErrConflict = errors.New("conflict")

// ErrUnavailable reports a transport surface with no backing service.
var ErrUnavailable = errors.New("service unavailable")

// Project is the transport view of one sourcing project.
type Project struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	ASIN            string     `json:"asin,omitempty"`
	Phase           int        `json:"phase"`
	PhaseName       string     `json:"phase_name"`
	Decision        string     `json:"decision,omitempty"`
	DiscardedReason string     `json:"discarded_reason,omitempty"`
	DiscardedAt     *time.Time `json:"discarded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
}

// CreateProjectRequest captures input for new projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ASIN        string `json:"asin,omitempty"`
}

// PhaseCheckRequest asks whether a project may move between two phases.
// From defaults to the project's current phase when empty.
type PhaseCheckRequest struct {
	ProjectID string
	From      string
	To        string
}

// AdvancePhaseRequest asks the gate to move a project to another phase.
type AdvancePhaseRequest struct {
	ProjectID string `json:"-"`
	To        string `json:"to"`
}

// AdvancePhaseResult reports the gate outcome and the project after an advance.
type AdvancePhaseResult struct {
	Project    Project              `json:"project"`
	Transition app.TransitionResult `json:"transition"`
}

// ProjectService captures project reads and creation.
type ProjectService interface {
	ListProjects(context.Context, bool) ([]Project, error)
	GetProject(context.Context, string) (Project, error)
	CreateProject(context.Context, CreateProjectRequest) (Project, error)
}

// GateService captures the phase and commercial gate operations.
type GateService interface {
	CheckPhase(context.Context, PhaseCheckRequest) (app.TransitionResult, error)
	AdvancePhase(context.Context, AdvancePhaseRequest) (AdvancePhaseResult, error)
	CommercialGate(context.Context, string) (app.CommercialReport, error)
}

// QuoteParser parses supplier-quote text blocks.
type QuoteParser interface {
	ParseSupplierQuote(context.Context, string) (quotetext.Result, error)
}

// Service is the full surface shared by the HTTP and MCP adapters.
type Service interface {
	ProjectService
	GateService
	QuoteParser
}
