package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/domain"
	"github.com/evanschultz/fbagate/internal/quotetext"
)

func newProjectCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, inspect and decide on sourcing projects",
	}

	var description, asin string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project in the research phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			project, err := svc.CreateProject(cmd.Context(), app.CreateProjectInput{
				Name:        args[0],
				Description: description,
				ASIN:        asin,
			})
			if err != nil {
				return fmt.Errorf("create project: %w", err)
			}
			return c.printer(cmd).Project(project)
		},
	}
	create.Flags().StringVar(&description, "description", "", "free-form project description")
	create.Flags().StringVar(&asin, "asin", "", "competitor ASIN under research")

	var includeArchived bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := svc.ListProjects(cmd.Context(), includeArchived)
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			return c.printer(cmd).Projects(projects)
		},
	}
	list.Flags().BoolVar(&includeArchived, "all", false, "include archived projects")

	show := &cobra.Command{
		Use:   "show <project>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			project, err := svc.GetProject(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get project: %w", err)
			}
			return c.printer(cmd).Project(project)
		},
	}

	var historyLimit int
	history := &cobra.Command{
		Use:   "history <project>",
		Short: "Show the project's recorded decisions and phase moves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			events, err := svc.ListProjectChangeEvents(cmd.Context(), args[0], historyLimit)
			if err != nil {
				return fmt.Errorf("list project history: %w", err)
			}
			return c.printer(cmd).Events(events)
		},
	}
	history.Flags().IntVar(&historyLimit, "limit", 20, "maximum events to show")

	decide := &cobra.Command{
		Use:   "decide <project> <decision>",
		Short: "Record a GO, HOLD, RISKY, SELECTED, REJECTED or NONE decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := domain.NormalizeDecision(domain.Decision(args[1]))
			if err != nil {
				return fmt.Errorf("decision %q: %w", args[1], err)
			}
			return c.mutateProject(cmd, func(svc *app.Service) (domain.Project, error) {
				return svc.SetDecision(cmd.Context(), args[0], decision)
			})
		},
	}

	var reason string
	discard := &cobra.Command{
		Use:   "discard <project>",
		Short: "Discard a project, blocking every forward phase move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutateProject(cmd, func(svc *app.Service) (domain.Project, error) {
				return svc.DiscardProject(cmd.Context(), args[0], reason)
			})
		},
	}
	discard.Flags().StringVar(&reason, "reason", "", "why the project was discarded")

	restore := &cobra.Command{
		Use:   "restore <project>",
		Short: "Clear a DISCARDED decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutateProject(cmd, func(svc *app.Service) (domain.Project, error) {
				return svc.RestoreDiscardedProject(cmd.Context(), args[0])
			})
		},
	}

	archive := &cobra.Command{
		Use:   "archive <project>",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutateProject(cmd, func(svc *app.Service) (domain.Project, error) {
				return svc.ArchiveProject(cmd.Context(), args[0])
			})
		},
	}

	unarchive := &cobra.Command{
		Use:   "unarchive <project>",
		Short: "Restore an archived project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutateProject(cmd, func(svc *app.Service) (domain.Project, error) {
				return svc.RestoreProject(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(create, list, show, history, decide, discard, restore, archive, unarchive)
	return cmd
}

func (c *cli) mutateProject(cmd *cobra.Command, fn func(*app.Service) (domain.Project, error)) error {
	svc, err := c.service(cmd.Context())
	if err != nil {
		return err
	}
	project, err := fn(svc)
	if err != nil {
		return fmt.Errorf("%s project: %w", cmd.Name(), err)
	}
	return c.printer(cmd).Project(project)
}

func newPhaseCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Check and advance project phases",
	}

	var from string
	check := &cobra.Command{
		Use:   "check <project> <to>",
		Short: "Evaluate the gate between two phases without changing anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := domain.ParsePhase(args[1])
			if err != nil {
				return c.printer(cmd).Transition(app.InvalidPhaseResult())
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			fromPhase := domain.Phase(0)
			if strings.TrimSpace(from) == "" {
				project, err := svc.GetProject(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get project: %w", err)
				}
				fromPhase = project.Phase
			} else if fromPhase, err = domain.ParsePhase(from); err != nil {
				return c.printer(cmd).Transition(app.InvalidPhaseResult())
			}
			res, err := svc.ValidatePhaseTransition(cmd.Context(), args[0], fromPhase, to)
			if err != nil {
				return fmt.Errorf("validate phase transition: %w", err)
			}
			return c.printer(cmd).Transition(res)
		},
	}
	check.Flags().StringVar(&from, "from", "", "origin phase (default: the project's current phase)")

	advance := &cobra.Command{
		Use:   "advance <project> <to>",
		Short: "Move a project to another phase when its gate passes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := domain.ParsePhase(args[1])
			if err != nil {
				res := app.InvalidPhaseResult()
				_ = c.printer(cmd).Transition(res)
				return fmt.Errorf("advance phase: %w", &app.GateBlockedError{Result: res})
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			project, res, err := svc.AdvancePhase(cmd.Context(), args[0], to)
			if err != nil {
				if errors.Is(err, app.ErrPhaseGateBlocked) {
					_ = c.printer(cmd).Transition(res)
				}
				return fmt.Errorf("advance phase: %w", err)
			}
			if err := c.printer(cmd).Transition(res); err != nil {
				return err
			}
			if c.jsonOut {
				return nil
			}
			return c.printer(cmd).Project(project)
		},
	}

	set := &cobra.Command{
		Use:   "set <project> <phase>",
		Short: "Force a phase without evaluating its gate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := parsePhaseArg(args[1])
			if err != nil {
				return err
			}
			return c.mutateProject(cmd, func(svc *app.Service) (domain.Project, error) {
				return svc.SetPhaseDirect(cmd.Context(), args[0], phase)
			})
		},
	}

	cmd.AddCommand(check, advance, set)
	return cmd
}

func parsePhaseArg(raw string) (domain.Phase, error) {
	phase, err := domain.ParsePhase(raw)
	if err != nil {
		return 0, fmt.Errorf("phase %q: %w", raw, err)
	}
	return phase, nil
}

func newGateCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Evaluate commercial gates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "commercial <project>",
		Short: "Show business snapshot, stock signal and the commercial gate for the project's phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.CommercialGate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("commercial gate: %w", err)
			}
			return c.printer(cmd).Commercial(report)
		},
	})
	return cmd
}

func newQuoteCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Parse and import supplier quote text",
	}

	parse := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse supplier quote text without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			res := quotetext.Parse(text)
			if err := c.printer(cmd).Quote(res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("parse supplier quote: %s", res.Error)
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <project> <file|->",
		Short: "Parse supplier quote text and store it against a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			quote, err := svc.ImportSupplierQuote(cmd.Context(), args[0], text)
			if err != nil {
				return fmt.Errorf("import supplier quote: %w", err)
			}
			return c.printer(cmd).Created("supplier_quote", quote.ID)
		},
	}

	cmd.AddCommand(parse, importCmd)
	return cmd
}

// readInput reads a named file, or stdin when name is "-".
func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(content), nil
	}
	content, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(content), nil
}

func newExportCommand(c *cli) *cobra.Command {
	var (
		outPath         string
		includeArchived bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every project and its gate evidence as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			export, err := svc.ExportProjects(cmd.Context(), includeArchived)
			if err != nil {
				return fmt.Errorf("export projects: %w", err)
			}
			encoded, err := json.MarshalIndent(export, "", "  ")
			if err != nil {
				return fmt.Errorf("encode export json: %w", err)
			}
			encoded = append(encoded, '\n')

			if outPath == "" {
				paths, err := c.resolvePaths()
				if err != nil {
					return err
				}
				outPath = paths.ExportPath(c.now())
			}
			if outPath == "-" {
				if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
					return fmt.Errorf("write export to stdout: %w", err)
				}
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create export output dir: %w", err)
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			c.logger.Info("export written", "path", outPath, "projects", len(export.Projects))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file path, '-' for stdout (default: a timestamped file in the exports dir)")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", true, "include archived projects")
	return cmd
}
