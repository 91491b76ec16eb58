// Package main implements the termcheck CLI, which audits the term tables
// against the entities and concepts actually present in each collection.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/config"
	"github.com/kailas-cloud/polaudit/internal/domain"
	logpkg "github.com/kailas-cloud/polaudit/internal/logger"
	"github.com/kailas-cloud/polaudit/internal/repository/catalog"
	"github.com/kailas-cloud/polaudit/internal/repository/terms"
	"github.com/kailas-cloud/polaudit/internal/transport/discovery"
	"github.com/kailas-cloud/polaudit/internal/usecase/termcheck"
	"github.com/kailas-cloud/polaudit/internal/version"
)

var (
	configPath string
	envName    string
	jsonOutput bool
	strict     bool
	timeout    time.Duration
)

// errMismatches is returned in strict mode so the process exits non-zero.
var errMismatches = errors.New("term tables are out of date")

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "termcheck",
	Short: "Audit term tables against the search collections",
	Long: `termcheck aggregates the entities and concepts of every configured
collection and reports terms without an article mapping, mapped articles
without a summary, and documents without a display name.

Examples:
  # Check using config/local.yaml
  termcheck

  # Use an explicit config file and fail on any mismatch
  termcheck --config /etc/polaudit/prod.yaml --strict

  # Machine-readable report
  termcheck --json`,
	Version:      version.String(),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file path (default: config/<env>.yaml)")
	rootCmd.Flags().StringVar(&envName, "env", "", "environment name (default: $ENV or local)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when mismatches are found")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall time limit")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := buildService(&cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, timeout)
	defer cancel()

	report, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("term check: %w", err)
	}

	if err := printReport(cmd.OutOrStdout(), &report, jsonOutput); err != nil {
		return err
	}
	if strict && !report.Clean() {
		return errMismatches
	}
	return nil
}

func buildService(cfg *config.Config, logger *zap.Logger) (*termcheck.Service, error) {
	resolver, err := terms.Load(terms.Paths{
		IgnoredTerms:     cfg.Data.IgnoredTerms,
		ArticleNames:     cfg.Data.ArticleNames,
		ArticleSummaries: cfg.Data.ArticleSummaries,
	})
	if err != nil {
		return nil, err
	}

	// Display names are optional; without them the document check is skipped.
	var docs termcheck.DocumentLister
	if cfg.Data.DisplayNames != "" {
		names, err := catalog.LoadDisplayNames(cfg.Data.DisplayNames)
		if err != nil {
			return nil, err
		}
		docs = catalog.New(cfg.Data.DocumentsDir, cfg.HTTP.PublicBaseURL, names, logger)
	}

	client := discovery.New(&discovery.Config{
		URL:           cfg.Discovery.URL,
		APIKey:        cfg.Discovery.APIKey,
		EnvironmentID: cfg.Discovery.EnvironmentID,
		Version:       cfg.Discovery.Version,
		RateLimit:     cfg.Discovery.RateLimitRPS,
		Burst:         cfg.Discovery.Burst,
		Logger:        logger,
	})

	subjects := domain.NewSubjects(cfg.Discovery.Collections)
	return termcheck.New(client, subjects, resolver, docs, logger), nil
}

func printReport(w io.Writer, r *termcheck.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "Terms checked: %d\n", r.Terms)
	section(w, "Missing term -> article mapping", r.MissingMappings)
	section(w, "Missing article summary", r.MissingSummaries)
	section(w, "Missing display name", r.MissingDisplayNames)
	if r.Clean() {
		fmt.Fprintln(w, "All tables up to date.")
	}
	return nil
}

func section(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(w, "  %s\n", it)
	}
}
