package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evanschultz/fbagate/internal/adapters/server"
	"github.com/evanschultz/fbagate/internal/adapters/server/common"
	"github.com/evanschultz/fbagate/internal/adapters/storage/sqlite"
	"github.com/evanschultz/fbagate/internal/app"
	"github.com/evanschultz/fbagate/internal/config"
	"github.com/evanschultz/fbagate/internal/platform"
	"github.com/evanschultz/fbagate/internal/platform/otel"
)

var version = "dev"

// executeRoot runs the assembled command tree. Tests swap it for a plain cobra execute.
var executeRoot = func(ctx context.Context, root *cobra.Command) error {
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// serveCommandRunner runs the HTTP/MCP server. Tests stub it to avoid binding sockets.
var serveCommandRunner = server.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run builds the command tree for one invocation and executes it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	env, err := config.LoadEnv()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return err
	}

	c := &cli{env: env, stderr: stderr, now: time.Now}
	defer c.close()

	root := newRootCommand(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return executeRoot(ctx, root)
}

// cli carries resolved flags and lazily opened runtime dependencies for one invocation.
type cli struct {
	env    config.Env
	stderr io.Writer
	now    func() time.Time

	configPath string
	dbPath     string
	appName    string
	devMode    bool
	jsonOut    bool

	paths   platform.Paths
	cfg     config.Config
	loaded  bool
	logger  *runtimeLogger
	repo    *sqlite.Repository
	svc     *app.Service
	closers []func(context.Context) error
}

func newRootCommand(c *cli) *cobra.Command {
	defaultApp := platform.DefaultAppName
	if c.env.AppName != "" {
		defaultApp = c.env.AppName
	}
	defaultDev := version == "dev"
	if c.env.DevMode != nil {
		defaultDev = *c.env.DevMode
	}

	root := &cobra.Command{
		Use:           "fbagate",
		Short:         "Phase-gate engine for FBA product sourcing",
		Long:          "fbagate tracks sourcing projects through seven phases and refuses to advance a project until the evidence each gate requires is on record.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to config TOML (env FBAGATE_CONFIG)")
	flags.StringVar(&c.dbPath, "db", "", "path to sqlite database (env FBAGATE_DB_PATH)")
	flags.StringVar(&c.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&c.devMode, "dev", defaultDev, "use dev mode paths (<app>-dev) and the dev log file")
	flags.BoolVar(&c.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newPathsCommand(c),
		newServeCommand(c),
		newProjectCommand(c),
		newPhaseCommand(c),
		newGateCommand(c),
		newQuoteCommand(c),
		newEvidenceCommand(c),
		newExportCommand(c),
	)
	return root
}

func newPathsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := c.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", c.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", c.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", c.resolvedConfigPath())
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", c.resolvedDBPath())
			_, _ = fmt.Fprintf(out, "exports: %s\n", paths.ExportDir)
			return nil
		},
	}
}

func newServeCommand(c *cli) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			cfg := server.Config{
				HTTPBind:      firstNonEmpty(httpBind, c.cfg.Server.HTTPBind),
				APIEndpoint:   firstNonEmpty(apiEndpoint, c.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, c.cfg.Server.MCPEndpoint),
				ServerName:    c.appName,
				ServerVersion: version,
			}
			c.logger.Info("command flow start", "command", "serve", "http_bind", cfg.HTTPBind)
			err = serveCommandRunner(cmd.Context(), cfg, server.Dependencies{
				Service: common.NewAppServiceAdapter(svc),
				Ready:   c.repo,
				Logger:  c.logger.ServiceLogger(),
			})
			if err != nil {
				c.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			c.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP bind address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST API mount path (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP mount path (default from config)")
	return cmd
}

func (c *cli) resolvePaths() (platform.Paths, error) {
	if c.paths.DBPath != "" {
		return c.paths, nil
	}
	paths, err := platform.DefaultPaths(platform.Options{
		AppName: c.appName,
		DevMode: c.devMode,
	})
	if err != nil {
		return platform.Paths{}, err
	}
	c.paths = paths
	return paths, nil
}

// resolvedConfigPath applies flag > env > platform default.
func (c *cli) resolvedConfigPath() string {
	return firstNonEmpty(c.configPath, c.env.ConfigPath, c.paths.ConfigPath)
}

// dbOverride reports an explicit db path from the flag or env, which beats the config file.
func (c *cli) dbOverride() string {
	return firstNonEmpty(c.dbPath, c.env.DBPath)
}

func (c *cli) resolvedDBPath() string {
	if override := c.dbOverride(); override != "" {
		return override
	}
	if c.loaded {
		return c.cfg.Database.Path
	}
	return c.paths.DBPath
}

// load resolves paths, reads config and starts the runtime logger.
func (c *cli) load() error {
	if c.loaded {
		return nil
	}
	if _, err := c.resolvePaths(); err != nil {
		return err
	}
	configPath := c.resolvedConfigPath()
	dbPath := firstNonEmpty(c.dbOverride(), c.paths.DBPath)

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if override := c.dbOverride(); override != "" {
		cfg.Database.Path = override
	}

	logger, err := newRuntimeLogger(c.stderr, c.appName, c.devMode, cfg.Logging, c.now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger
	c.loaded = true

	logger.Info("startup configuration resolved", "app", c.appName, "dev_mode", c.devMode)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", c.paths.DataDir, "db_path", cfg.Database.Path)
	logger.Info("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return nil
}

// service opens tracing, the sqlite repository and the application service on first use.
func (c *cli) service(ctx context.Context) (*app.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	if err := c.load(); err != nil {
		return nil, err
	}

	shutdown, err := otel.Setup(ctx, c.appName, c.env.OTelEndpoint)
	if err != nil {
		c.logger.Error("tracing setup failed", "endpoint", c.env.OTelEndpoint, "err", err)
		return nil, fmt.Errorf("configure tracing: %w", err)
	}
	c.closers = append(c.closers, shutdown)
	if c.env.OTelEndpoint != "" {
		c.logger.Info("tracing enabled", "endpoint", c.env.OTelEndpoint)
	}

	c.logger.Info("opening sqlite repository", "db_path", c.cfg.Database.Path)
	repo, err := sqlite.Open(c.cfg.Database.Path)
	if err != nil {
		c.logger.Error("sqlite open failed", "db_path", c.cfg.Database.Path, "err", err)
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	c.repo = repo
	c.logger.Info("sqlite repository ready", "db_path", c.cfg.Database.Path, "migrations", "ensured")

	thresholds := c.cfg.CommercialThresholds()
	c.svc = app.NewService(repo, repo, uuid.NewString, c.now, app.ServiceConfig{
		ApprovalTokens:       c.cfg.Gates.ApprovalTokens,
		CommercialThresholds: &thresholds,
		Logger:               c.logger.ServiceLogger(),
	})
	c.logger.Debug("application service initialized", "approval_tokens", len(c.cfg.Gates.ApprovalTokens))
	return c.svc, nil
}

// close releases everything service() opened, in reverse order.
func (c *cli) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c.repo != nil {
		if err := c.repo.Close(); err != nil {
			c.logger.Warn("sqlite close failed", "db_path", c.cfg.Database.Path, "err", err)
		}
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("tracing shutdown failed", "err", err)
		}
	}
	if err := c.logger.Close(); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

func (c *cli) printer(cmd *cobra.Command) printer {
	return newPrinter(cmd.OutOrStdout(), c.jsonOut)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
