package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/internal/config"
	"github.com/TokiACD/caretrack/internal/metrics"
	"github.com/TokiACD/caretrack/internal/server"
	"github.com/TokiACD/caretrack/pkg/clients/gmailclient"
	"github.com/TokiACD/caretrack/pkg/clients/rotaclient"
	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/placement"
	"github.com/TokiACD/caretrack/pkg/core/rules"
	"github.com/TokiACD/caretrack/pkg/core/schedule"
	"github.com/TokiACD/caretrack/pkg/core/services"
	"github.com/TokiACD/caretrack/pkg/core/violations"
	"github.com/TokiACD/caretrack/pkg/postgres"
	"github.com/TokiACD/caretrack/pkg/utils"
	"github.com/TokiACD/caretrack/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg          *config.Config
	rotaClient   *rotaclient.Client
	engine       *rules.Engine
	times        schedule.ShiftTimes
	aggregator   *violations.Aggregator
	session      *schedule.Session
	orchestrator *services.Orchestrator
	validator    *placement.Validator
	logger       *zap.Logger
	ctx          context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "caretrack",
		Short: "CareTrack CLI - Manage care package rotas",
		Long:  `A CLI tool for scheduling carers onto care package rotas with staffing rule validation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listPackagesCmd())
	rootCmd.AddCommand(viewWeekCmd())
	rootCmd.AddCommand(validatePlacementCmd())
	rootCmd.AddCommand(placeEntryCmd())
	rootCmd.AddCommand(addEntryCmd())
	rootCmd.AddCommand(confirmEntryCmd())
	rootCmd.AddCommand(deleteEntriesCmd())
	rootCmd.AddCommand(sendDigestCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients and the scheduling session
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// Initialize logger
	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.logger.Info("Loading configuration")
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	// Build the rule engine from the configured thresholds
	app.engine = rules.NewEngine(app.cfg.RulesConfig())

	app.times, err = app.cfg.ShiftTimes()
	if err != nil {
		return fmt.Errorf("failed to build shift times: %w", err)
	}

	// Initialize the rota API client and the scheduling session
	app.rotaClient = rotaclient.NewClient(app.cfg.APIBaseURL, app.logger)
	app.aggregator = violations.NewAggregator(app.cfg.Scheduling.PresentationCap)
	app.session = schedule.NewSession(app.rotaClient, app.engine, app.aggregator, app.logger)
	app.validator = placement.NewValidator(app.session, app.engine, app.times, app.logger)
	app.orchestrator = services.NewOrchestrator(
		app.rotaClient,
		app.session,
		app.aggregator,
		&consoleNotifier{},
		&services.ZapAuditSink{Logger: app.logger},
		nil,
		app.logger,
	)
	app.logger.Debug("Scheduling session initialized")

	return nil
}

// consoleNotifier prints operation summaries with their structured
// violations, one line each, never collapsed into the summary string
type consoleNotifier struct{}

func (n *consoleNotifier) Notify(notification services.Notification) {
	prefix := "i"
	switch notification.Level {
	case services.NotifyWarning:
		prefix = "!"
	case services.NotifyError:
		prefix = "x"
	}
	fmt.Printf("[%s] %s\n", prefix, notification.Summary)
	for _, v := range notification.Violations {
		fmt.Printf("    [%s] %s: %s\n", v.Severity, v.Rule, v.Message)
	}
}

// loadWeek switches the session to the requested package+week
func loadWeek(packageID, dateArg string) (model.Date, error) {
	date := model.DateOf(time.Now())
	if dateArg != "" {
		var err error
		date, err = model.ParseDate(dateArg)
		if err != nil {
			return model.Date{}, err
		}
	}
	if err := app.session.Switch(app.ctx, packageID, date); err != nil {
		return model.Date{}, err
	}
	return app.session.WeekStart(), nil
}

func parseShiftType(arg string) (model.ShiftType, error) {
	shiftType := model.ShiftType(strings.ToUpper(arg))
	if !shiftType.IsValid() {
		return "", fmt.Errorf("shift_type must be DAY or NIGHT, got %q", arg)
	}
	return shiftType, nil
}

// Command definitions

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rota API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.DatabaseURL == "" {
				return fmt.Errorf("databaseURL must be configured to run the server")
			}

			store, err := postgres.NewStore(app.ctx, app.cfg.DatabaseURL, app.engine, app.logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer store.Close()

			if err := store.RunMigrations(app.ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			addr := app.cfg.ServerAddr
			if addr == "" {
				addr = ":8080"
			}

			srv := server.NewServer(
				store,
				store,
				&services.ZapAuditSink{Logger: app.logger},
				metrics.New(),
				app.logger,
			)

			ctx, stop := signal.NotifyContext(app.ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}
}

func listPackagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listPackages",
		Short: "List all care packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			packages, err := app.rotaClient.ListPackages(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list packages: %w", err)
			}

			fmt.Printf("\nFound %d care packages:\n\n", len(packages))
			for _, p := range packages {
				status := "active"
				if !p.IsActive {
					status = "inactive"
				}
				fmt.Printf("- %s (%s) - %s - %d carers - %.1fh scheduled of %.1fh target\n",
					p.Name,
					p.ID,
					status,
					p.CarerCount,
					p.ScheduledHours,
					p.TotalHours,
				)
			}

			return nil
		},
	}
}

func viewWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viewWeek <package_id> [date]",
		Short: "View a package's weekly schedule with its standing violations",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateArg := ""
			if len(args) > 1 {
				dateArg = args[1]
			}
			weekStart, err := loadWeek(args[0], dateArg)
			if err != nil {
				return err
			}

			week := app.session.Current()
			fmt.Printf("\nWeek starting %s\n\n", weekStart)
			for _, day := range week.Days {
				fmt.Printf("%s %s\n", day.Date.Weekday().String()[:3], day.Date)
				printSlot(week, "  day  ", day.DayEntries)
				printSlot(week, "  night", day.NightEntries)
			}

			standing := app.aggregator.Standing()
			if len(standing) == 0 {
				fmt.Println("\nNo standing rule violations.")
				return nil
			}
			fmt.Printf("\n%d standing violation(s):\n", len(standing))
			for _, v := range standing {
				fmt.Printf("  [%s] %s: %s\n", v.Severity, v.Rule, v.Message)
			}
			return nil
		},
	}
}

func printSlot(week *model.WeeklySchedule, label string, entries []model.ShiftEntry) {
	if len(entries) == 0 {
		fmt.Printf("%s  (unstaffed)\n", label)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.CarerID
		if c, ok := week.Carer(e.CarerID); ok {
			name = c.Name
		}
		marker := ""
		if e.IsConfirmed {
			marker = " *"
		}
		names = append(names, fmt.Sprintf("%s %s-%s%s", name, e.StartTime, e.EndTime, marker))
	}
	fmt.Printf("%s  %s\n", label, strings.Join(names, ", "))
}

func validatePlacementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validatePlacement <package_id> <carer_id> <date> <shift_type> [start end]",
		Short: "Check a proposed placement against the staffing rules without committing",
		Args:  cobra.RangeArgs(4, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := buildCandidate(args)
			if err != nil {
				return err
			}
			if _, err := loadWeek(args[0], args[2]); err != nil {
				return err
			}

			result := app.validator.Validate(app.ctx, candidate)

			if result.IsValid {
				fmt.Printf("\nPlacement is valid.\n")
			} else if len(result.Violations) == 0 {
				fmt.Printf("\nValidation unavailable; the placement was not checked.\n")
			} else {
				fmt.Printf("\nPlacement violates %d rule(s):\n", len(result.Violations))
				for _, v := range result.Violations {
					fmt.Printf("  [error] %s: %s\n", v.Rule, v.Message)
				}
			}
			for _, w := range result.Warnings {
				fmt.Printf("  [warning] %s: %s\n", w.Rule, w.Message)
			}

			return nil
		},
	}
}

func placeEntryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "placeEntry <package_id> <carer_id> <date> <shift_type>",
		Short: "Place a carer onto a slot: validate first, commit only a valid placement",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			packageID, carerID := args[0], args[1]
			date, err := model.ParseDate(args[2])
			if err != nil {
				return err
			}
			shiftType, err := parseShiftType(args[3])
			if err != nil {
				return err
			}
			if _, err := loadWeek(packageID, args[2]); err != nil {
				return err
			}

			timeout := time.Duration(app.cfg.Scheduling.DragTimeoutMs) * time.Millisecond
			protocol := placement.NewProtocol(app.validator, app.orchestrator, timeout, app.logger)

			protocol.Begin(carerID, placement.Source{FromRoster: true})
			resolution := protocol.Drop(app.ctx, packageID, placement.SlotRef{Date: date, ShiftType: shiftType})

			switch resolution.Outcome {
			case placement.OutcomeCommitted:
				fmt.Printf("\n✓ Shift placed: %s on %s (%s), entry %s\n",
					carerID, date, shiftType, resolution.Entry.ID)
			case placement.OutcomeRejected:
				if resolution.Err != nil {
					return resolution.Err
				}
				if len(resolution.Result.Violations) == 0 {
					fmt.Printf("\n✗ Placement not committed: validation did not complete.\n")
					return nil
				}
				fmt.Printf("\n✗ Placement rejected by %d rule(s):\n", len(resolution.Result.Violations))
				for _, v := range resolution.Result.Violations {
					fmt.Printf("  [error] %s: %s\n", v.Rule, v.Message)
				}
			case placement.OutcomeStale:
				fmt.Printf("\nPlacement superseded by a newer drag.\n")
			}
			return nil
		},
	}
}

func addEntryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addEntry <package_id> <carer_id> <date> <shift_type> [start end]",
		Short: "Create a shift entry directly through the rota service",
		Args:  cobra.RangeArgs(4, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := buildCandidate(args)
			if err != nil {
				return err
			}
			if _, err := loadWeek(candidate.PackageID, args[2]); err != nil {
				return err
			}

			result, err := app.orchestrator.CreateEntry(app.ctx, candidate)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Shift entry created: %s\n", result.Entry.ID)
			return nil
		},
	}
}

// buildCandidate parses the shared placement argument shape. Start and end
// fall back to the configured slot defaults when omitted.
func buildCandidate(args []string) (model.ShiftEntry, error) {
	date, err := model.ParseDate(args[2])
	if err != nil {
		return model.ShiftEntry{}, err
	}
	shiftType, err := parseShiftType(args[3])
	if err != nil {
		return model.ShiftEntry{}, err
	}

	var start, end model.TimeOfDay
	if len(args) == 6 {
		if start, err = model.ParseTimeOfDay(args[4]); err != nil {
			return model.ShiftEntry{}, err
		}
		if end, err = model.ParseTimeOfDay(args[5]); err != nil {
			return model.ShiftEntry{}, err
		}
	} else if len(args) == 5 {
		return model.ShiftEntry{}, fmt.Errorf("start and end must be given together")
	}

	return app.validator.Candidate(args[0], args[1], date, shiftType, start, end), nil
}

func confirmEntryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirmEntry <package_id> <date> <entry_id>",
		Short: "Confirm a shift entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadWeek(args[0], args[1]); err != nil {
				return err
			}

			if err := app.orchestrator.ConfirmEntry(app.ctx, args[2]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Entry %s confirmed\n", args[2])
			return nil
		},
	}
}

func deleteEntriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deleteEntries <package_id> <date> <entry_id>...",
		Short: "Delete one or more shift entries",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadWeek(args[0], args[1]); err != nil {
				return err
			}
			entryIDs := args[2:]

			if len(entryIDs) == 1 {
				if err := app.orchestrator.DeleteEntry(app.ctx, entryIDs[0]); err != nil {
					return err
				}
				fmt.Printf("\n✓ Entry %s deleted\n", entryIDs[0])
				return nil
			}

			result, err := app.orchestrator.BatchDeleteEntries(app.ctx, entryIDs)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Deleted %d of %d entries\n", result.DeletedCount, len(entryIDs))
			for _, e := range result.Errors {
				fmt.Printf("  ✗ %s: %s\n", e.EntryID, e.Error)
			}
			return nil
		},
	}
}

func sendDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sendDigest <package_id> [date]",
		Short: "Email the standing violations digest for a package's week",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateArg := ""
			if len(args) > 1 {
				dateArg = args[1]
			}
			weekStart, err := loadWeek(args[0], dateArg)
			if err != nil {
				return err
			}

			// Gmail auth is only needed for this command, so it is wired
			// here rather than in initApp
			oauthCfg, err := config.LoadOAuthClientWithEnv(env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}
			oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
			if err != nil {
				return fmt.Errorf("failed to build OAuth config: %w", err)
			}
			token, err := utils.GetToken(app.ctx, env, oauthConfig)
			if err != nil {
				return fmt.Errorf("failed to obtain OAuth token: %w", err)
			}
			gmailClient, err := gmailclient.NewClient(app.ctx, oauthCfg, token, app.cfg.Gmail.Sender)
			if err != nil {
				return fmt.Errorf("failed to create gmail client: %w", err)
			}

			sent, err := services.SendViolationsDigest(
				gmailClient,
				app.logger,
				args[0],
				weekStart,
				app.aggregator.Standing(),
				app.cfg.Gmail.DigestRecipients,
			)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Digest sent to %d recipient(s)\n", sent)
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (authenticate once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without
re-initializing the scheduling session. The session will keep running until
you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			// Get all sibling commands (excluding interactive itself)
			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				// Parse command
				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				// Handle exit
				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("Goodbye!")
					return nil
				}

				// Handle help
				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				// Execute command via Cobra
				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				// Reset command flags and args
				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// Execute the command's RunE directly, bypassing the full Execute() flow
				// This avoids re-running PersistentPreRunE which would call initApp() again
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("Error parsing flags: %v\n\n", err)
					continue
				}

				// Get non-flag args after parsing flags
				cmdArgs = targetCmd.Flags().Args()

				// Validate args
				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("Error: %v\n\n", err)
					continue
				}

				// Execute the RunE function directly
				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						fmt.Printf("Error: %v\n\n", err)
					}
				} else if targetCmd.Run != nil {
					targetCmd.Run(targetCmd, cmdArgs)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	// Get command names and sort them
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	// Print each command with its short description
	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-55s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                           Show this help message")
	fmt.Println("  exit, quit                     Exit the interactive session")
}
