package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"featurepolicy-admin/internal/config"
	"featurepolicy-admin/internal/engine"
	"featurepolicy-admin/internal/model"
	"featurepolicy-admin/internal/parser"
	"featurepolicy-admin/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

var (
	configFile   string
	storeKind    string
	settingsFile string
	sqlitePath   string
	dsn          string
	configName   string
	logLevel     string
	logFile      string
	inputFile    string
	inputFormat  string
)

// flagKeys binds persistent flags to config keys.
var flagKeys = map[string]string{
	"store":         "store",
	"settings-file": "settings_file",
	"sqlite-path":   "sqlite_path",
	"dsn":           "dsn",
	"config-name":   "config_name",
	"log-level":     "log_level",
	"log-file":      "log_file",
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fpadmin",
		Short: "Configure the Feature Policy response header",
		Long: `fpadmin validates Feature Policy directive settings, normalizes them and
stores them where the component emitting the header reads them.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: ./fpadmin.yaml or ~/.config/fpadmin/fpadmin.yaml)")
	pf.StringVar(&storeKind, "store", config.StoreYAML, "Settings store: 'yaml', 'sqlite' or 'mariadb'")
	pf.StringVar(&settingsFile, "settings-file", "", "Settings YAML file (for 'yaml' store)")
	pf.StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file (for 'sqlite' store)")
	pf.StringVar(&dsn, "dsn", "", "Database connection string (for 'mariadb' store)")
	pf.StringVar(&configName, "config-name", config.DefaultConfigName, "Name the settings are stored under")
	pf.StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	rootCmd.AddCommand(
		newDirectivesCmd(),
		newShowCmd(),
		newValidateCmd(),
		newApplyCmd(),
		newCheckSourcesCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges defaults, config file, environment and explicitly set
// flags, then installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.New(configFile)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(setupLogger(cfg.LogLevel, cfg.LogFile))
	return cfg, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		logWriter = &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    5,
			MaxBackups: 1,
			MaxAge:     3,
		}
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	slog.Debug("Opening settings store", "store", cfg.Store)
	s, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open settings store", "store", cfg.Store, "error", err)
		return nil, err
	}
	return s, nil
}

func newDirectivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "directives",
		Short: "List policy types and configurable directives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			catalog := engine.DefaultCatalog()
			out := cmd.OutOrStdout()
			for _, pt := range catalog.PolicyTypes() {
				fmt.Fprintf(out, "policy-type\t%s\t%s\n", pt.Key, pt.Label)
			}
			for _, name := range catalog.Directives() {
				fmt.Fprintf(out, "directive\t%s\n", name)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			settings, err := s.Load(ctx)
			if err != nil {
				slog.Error("Failed to load settings", "error", err)
				return err
			}
			form := engine.NewEngine(engine.DefaultCatalog(), slog.Default()).FormState(settings)

			out := cmd.OutOrStdout()
			for _, w := range form.Warnings {
				fmt.Fprintf(out, "# %s\n", w)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return fmt.Errorf("encode settings: %w", err)
			}
			return enc.Close()
		},
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputFile, "input", "", "Submission file, '-' for stdin (required)")
	cmd.Flags().StringVar(&inputFormat, "format", "yaml", "Submission format: 'yaml' or 'form' (urlencoded)")
	cmd.MarkFlagRequired("input")
}

func readSubmission(cmd *cobra.Command) (model.Submission, error) {
	var r io.Reader = cmd.InOrStdin()
	if inputFile != "-" {
		f, err := os.Open(inputFile)
		if err != nil {
			slog.Error("Failed to open submission", "path", inputFile, "error", err)
			return nil, err
		}
		defer f.Close()
		r = f
	}

	switch inputFormat {
	case "yaml":
		return parser.ParseSubmissionYAML(r)
	case "form":
		return parser.ParseSubmissionForm(r)
	default:
		return nil, fmt.Errorf("unknown submission format: %s", inputFormat)
	}
}

func printFieldErrors(w io.Writer, err error) {
	var fieldErrs engine.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return
	}
	for _, fe := range fieldErrs {
		fmt.Fprintf(w, "%s\tInvalid domain or protocol provided.\n", fe.Field())
	}
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a settings submission without saving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			sub, err := readSubmission(cmd)
			if err != nil {
				return err
			}
			if errs := engine.NewEngine(engine.DefaultCatalog(), slog.Default()).Validate(sub); len(errs) > 0 {
				printFieldErrors(cmd.OutOrStdout(), errs)
				return errs
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Validate a settings submission and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sub, err := readSubmission(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := engine.NewEngine(engine.DefaultCatalog(), slog.Default()).Submit(ctx, s, sub); err != nil {
				printFieldErrors(cmd.OutOrStdout(), err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "The configuration options have been saved.")
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newCheckSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-sources SOURCES...",
		Short: "Check source expressions against the allow-list grammar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			raw := strings.Join(args, " ")
			for _, tok := range parser.SplitSources(raw) {
				status := "ok"
				if !parser.IsSchemeMarker(tok) && !parser.IsValidHost(tok) {
					status = "invalid"
				}
				fmt.Fprintf(out, "%s\t%s\n", status, tok)
			}
			_, err := parser.ValidateSources(raw)
			return err
		},
	}
}
