package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/domain"
	"github.com/evanschultz/fbagate/internal/quotetext"
)

// toneColors maps result tones to ANSI-256 colors.
var toneColors = map[domain.Tone]lipgloss.Color{
	domain.ToneSuccess: lipgloss.Color("42"),
	domain.ToneWarning: lipgloss.Color("214"),
	domain.ToneDanger:  lipgloss.Color("196"),
	domain.ToneNeutral: lipgloss.Color("245"),
}

// printer renders command results as styled text or indented JSON.
type printer struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	json     bool
}

func newPrinter(out io.Writer, asJSON bool) printer {
	return printer{out: out, renderer: lipgloss.NewRenderer(out), json: asJSON}
}

func (p printer) badge(label string, tone domain.Tone) string {
	color, ok := toneColors[tone]
	if !ok {
		color = toneColors[domain.ToneNeutral]
	}
	return p.renderer.NewStyle().Bold(true).Foreground(color).Render(label)
}

func (p printer) dim(text string) string {
	return p.renderer.NewStyle().Foreground(toneColors[domain.ToneNeutral]).Render(text)
}

func (p printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Project prints one project summary.
func (p printer) Project(project domain.Project) error {
	if p.json {
		return p.writeJSON(projectView(project))
	}
	p.line("%s  %s", p.badge(project.Name, domain.ToneNeutral), p.dim(project.ID))
	p.line("  slug:     %s", project.Slug)
	p.line("  phase:    %d %s", int(project.Phase), project.Phase)
	p.line("  decision: %s", decisionBadge(p, project.Decision))
	if project.ASIN != "" {
		p.line("  asin:     %s", project.ASIN)
	}
	if project.Decision == domain.DecisionDiscarded && project.DiscardedReason != "" {
		p.line("  reason:   %s", project.DiscardedReason)
	}
	if project.ArchivedAt != nil {
		p.line("  archived: %s", project.ArchivedAt.Format("2006-01-02"))
	}
	return nil
}

// Projects prints one line per project.
func (p printer) Projects(projects []domain.Project) error {
	if p.json {
		views := make([]map[string]any, 0, len(projects))
		for _, project := range projects {
			views = append(views, projectView(project))
		}
		return p.writeJSON(views)
	}
	if len(projects) == 0 {
		p.line("%s", p.dim("no projects"))
		return nil
	}
	for _, project := range projects {
		p.line("%s  %d %-10s  %-9s  %s", project.ID, int(project.Phase), project.Phase, decisionBadge(p, project.Decision), project.Name)
	}
	return nil
}

func decisionBadge(p printer, decision domain.Decision) string {
	switch decision {
	case domain.DecisionGo, domain.DecisionSelected:
		return p.badge(string(decision), domain.ToneSuccess)
	case domain.DecisionRisky, domain.DecisionHold:
		return p.badge(string(decision), domain.ToneWarning)
	case domain.DecisionDiscarded, domain.DecisionRejected:
		return p.badge(string(decision), domain.ToneDanger)
	default:
		return p.badge("NONE", domain.ToneNeutral)
	}
}

func projectView(project domain.Project) map[string]any {
	return map[string]any{
		"id":               project.ID,
		"slug":             project.Slug,
		"name":             project.Name,
		"asin":             project.ASIN,
		"phase":            int(project.Phase),
		"phase_name":       project.Phase.String(),
		"decision":         string(project.Decision),
		"discarded_reason": project.DiscardedReason,
		"archived":         project.ArchivedAt != nil,
	}
}

// Transition prints a phase gate verdict with one line per requirement.
func (p printer) Transition(res app.TransitionResult) error {
	if p.json {
		return p.writeJSON(res)
	}
	verdict := p.badge("OK", domain.ToneSuccess)
	if !res.OK {
		verdict = p.badge("BLOCKED", domain.ToneDanger)
	}
	p.line("phase %d → %d  %s", int(res.From), int(res.To), verdict)
	if len(res.Requirements) == 0 {
		for _, label := range res.Missing {
			p.line("  %s %s", p.badge("✗", domain.ToneDanger), label)
		}
		return nil
	}
	for _, req := range res.Requirements {
		mark := p.badge("✓", domain.ToneSuccess)
		switch req.Outcome {
		case domain.OutcomeUnsatisfied:
			mark = p.badge("✗", domain.ToneDanger)
		case domain.OutcomeEvidenceUnavailable:
			mark = p.badge("?", domain.ToneWarning)
		}
		if req.Detail != "" {
			p.line("  %s %s %s", mark, req.Label, p.dim("("+req.Detail+")"))
			continue
		}
		p.line("  %s %s", mark, req.Label)
	}
	return nil
}

// Commercial prints business, stock and gate panels.
func (p printer) Commercial(report app.CommercialReport) error {
	if p.json {
		return p.writeJSON(report)
	}
	b := report.Business
	p.line("business  %s", p.badge(string(b.Badge), b.Tone))
	p.line("  purchase orders: %d (%s)", b.POCount, money(b.POTotal))
	p.line("  invested:        %s  expenses %s", money(b.InvestedTotal), money(b.ExpensesTotal))
	p.line("  units bought:    %s  unit cost %s", number(b.UnitsBought), optional(b.UnitCost))
	p.line("  incomes:         %s  roi %s", money(b.IncomesTotal), optionalPercent(b.ROIPercent))

	s := report.Stock
	p.line("stock     %s", p.badge(string(s.Label), s.Tone))
	p.line("  available: %s  sold 30d %s  days cover %s", optional(s.UnitsAvailable), optional(s.SoldLast30Days), optional(s.DaysCover))

	g := report.Gate
	p.line("gate      %s  %s", p.badge(g.Label, g.Tone), p.dim(fmt.Sprintf("%s / phase %d", g.GateID, int(report.Phase))))
	for _, reason := range g.Reasons {
		p.line("  - %s", reason)
	}
	return nil
}

// Quote prints a supplier quote parse result.
func (p printer) Quote(res quotetext.Result) error {
	if p.json {
		return p.writeJSON(res)
	}
	if !res.OK {
		p.line("%s %s", p.badge("INVALID", domain.ToneDanger), res.Error)
		return nil
	}
	q := res.Data
	p.line("%s %s (%s)", p.badge("OK", domain.ToneSuccess), q.SupplierName, q.Currency)
	if q.UnitPrice != nil {
		p.line("  unit price: %s", number(*q.UnitPrice))
	}
	if q.MOQ != nil {
		p.line("  moq:        %d", *q.MOQ)
	}
	if q.LeadTimeDays != nil {
		p.line("  lead time:  %d days", *q.LeadTimeDays)
	}
	if q.Incoterm != nil {
		p.line("  incoterm:   %s", *q.Incoterm)
	}
	if q.ValidUntil != nil {
		p.line("  valid:      %s", q.ValidUntil.Format("2006-01-02"))
	}
	return nil
}

// Created prints the id of a newly recorded evidence row.
func (p printer) Created(kind, id string) error {
	if p.json {
		return p.writeJSON(map[string]string{"kind": kind, "id": id})
	}
	p.line("%s %s %s", p.badge("recorded", domain.ToneSuccess), kind, p.dim(id))
	return nil
}

// Events prints the project change log, newest first.
func (p printer) Events(events []domain.ChangeEvent) error {
	if p.json {
		return p.writeJSON(events)
	}
	for _, event := range events {
		parts := make([]string, 0, len(event.Metadata))
		for _, key := range slices.Sorted(maps.Keys(event.Metadata)) {
			parts = append(parts, key+"="+event.Metadata[key])
		}
		p.line("%s  %-16s %s", event.OccurredAt.Format("2006-01-02 15:04"), event.Operation, p.dim(strings.Join(parts, " ")))
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func optionalPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return optional(v) + "%"
}
