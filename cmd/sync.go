package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dbmirror/config"
	"dbmirror/internal"
	"dbmirror/mysql"
)

var syncCmd = &cobra.Command{
	Use:           "sync",
	Short:         "Sync all source tables into the destination",
	Args:          cobra.NoArgs,
	RunE:          runSync,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func runSync(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	dest, _ := cmd.Flags().GetString("dest")
	tables, _ := cmd.Flags().GetStringSlice("table")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	interactive, _ := cmd.Flags().GetBool("interactive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	output, _ := cmd.Flags().GetString("output")
	verbose, _ := cmd.Flags().GetBool("verbose")

	internal.VerboseMode = verbose
	if verbose {
		internal.SetupLogger("debug", "text")
	} else {
		internal.SetupLogger("error", "text")
	}

	switch output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}

	if source == "" || dest == "" {
		return fmt.Errorf("both --source and --dest are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sourceConn, err := config.ParseConnectionString(source)
	if err != nil {
		return fmt.Errorf("invalid source connection string: %w", err)
	}
	destConn, err := config.ParseConnectionString(dest)
	if err != nil {
		return fmt.Errorf("invalid destination connection string: %w", err)
	}

	sourceConfig, err := cfg.GetConnection(sourceConn.Client, sourceConn.Env, "SOURCE")
	if err != nil {
		return fmt.Errorf("failed to get source config: %w", err)
	}
	destConfig, err := cfg.GetConnection(destConn.Client, destConn.Env, "DEST")
	if err != nil {
		return fmt.Errorf("failed to get destination config: %w", err)
	}

	if batchSize == 0 {
		batchSize = cfg.BatchSize
	}
	skip = append(skip, cfg.SkipTables...)

	internal.Logger.Info("Starting sync",
		"source", source,
		"dest", dest,
		"batchSize", batchSize,
		"dryRun", dryRun)

	ctx := cmd.Context()

	sourceDB, err := mysql.Connect(ctx, *sourceConfig)
	if err != nil {
		return formatError(err)
	}
	defer sourceDB.Close()

	destDB, err := mysql.Connect(ctx, *destConfig)
	if err != nil {
		return formatError(err)
	}
	defer destDB.Close()

	opts := mysql.Options{
		BatchSize:  batchSize,
		SkipTables: skip,
		Tables:     tables,
		DryRun:     dryRun,
	}

	if interactive {
		candidates, err := mysql.NewSyncer(sourceDB, destDB, opts).Tables(ctx)
		if err != nil {
			return formatError(err)
		}
		selected, err := internal.NewTableSelector(candidates).SelectTables()
		if err != nil {
			return err
		}
		opts.Tables = selected
	}

	start := time.Now()
	syncer := mysql.NewSyncer(sourceDB, destDB, opts)

	var summary *mysql.RunSummary
	err = internal.WithSpinner(fmt.Sprintf("Syncing %s into %s", source, dest), func() error {
		s, runErr := syncer.Run(ctx)
		summary = s
		return runErr
	})
	if err != nil {
		return formatError(err)
	}
	internal.Logger.Info("Sync completed", "duration", time.Since(start))

	switch output {
	case "json":
		if err := summary.RenderJSON(os.Stdout); err != nil {
			return err
		}
	case "yaml":
		if err := summary.RenderYAML(os.Stdout); err != nil {
			return err
		}
	default:
		summary.RenderText(os.Stdout)
	}

	// Per-table failures are not fatal: callers inspect the summary.
	if summary.Failed() {
		internal.Logger.Warn("Some tables failed to sync", "failed", len(summary.Errors))
	}
	return nil
}

func formatError(err error) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") {
		return fmt.Errorf("❌ Cannot connect to MySQL server. Please check your connection settings.")
	}
	if strings.Contains(errStr, "Access denied") {
		return fmt.Errorf("❌ MySQL authentication failed. Please check your username and password.")
	}
	if strings.Contains(errStr, "Unknown database") {
		return fmt.Errorf("❌ Database does not exist. Please check your database name.")
	}
	return fmt.Errorf("❌ %s", errStr)
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("source", "", "Source in format client/env (required)")
	syncCmd.Flags().String("dest", "", "Destination in format client/env (required)")
	syncCmd.MarkFlagRequired("source")
	syncCmd.MarkFlagRequired("dest")

	syncCmd.Flags().StringSlice("table", nil, "Sync only the named tables (repeatable)")
	syncCmd.Flags().StringSlice("skip", nil, "Exclude the named tables from the run (repeatable)")
	syncCmd.Flags().Int("batch-size", 0, "Rows per transactional batch (default 1000)")
	syncCmd.Flags().Bool("interactive", false, "Pick tables to sync from a checklist")
	syncCmd.Flags().Bool("dry-run", false, "Classify rows without writing to the destination")
	syncCmd.Flags().String("output", "text", "Summary format: text, json or yaml")
	syncCmd.Flags().Bool("verbose", false, "Enable verbose logging")
}
