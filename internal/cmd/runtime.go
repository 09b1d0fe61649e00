package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/lpreport/internal/config"
	"github.com/harrison/lpreport/internal/logger"
	"github.com/harrison/lpreport/internal/report"
	"github.com/harrison/lpreport/internal/results"
)

// runtime bundles what every command needs: resolved configuration and a
// logger writing to the command's error stream.
type runtime struct {
	cfg *config.Config
	log *logger.ConsoleLogger
}

// loadRuntime resolves the project directory, loads configuration and
// applies CLI flag overrides.
func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	projectDir, _ := cmd.Flags().GetString("project-dir")
	if projectDir == "" {
		home, err := config.GetProjectHome()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project directory: %w", err)
		}
		projectDir = home
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	var cfg *config.Config
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		// Only the implicit .lpreport/config.yaml may be absent.
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		cfg.ProjectDir = projectDir
	} else {
		cfg, err = config.LoadConfigFromDir(projectDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var (
		csvPath, docPath, logLevel *string
		lockTimeout                *time.Duration
	)
	if cmd.Flags().Changed("csv") {
		v, _ := cmd.Flags().GetString("csv")
		csvPath = &v
	}
	if cmd.Flags().Changed("doc") {
		v, _ := cmd.Flags().GetString("doc")
		docPath = &v
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	if cmd.Flags().Lookup("lock-timeout") != nil && cmd.Flags().Changed("lock-timeout") {
		v, _ := cmd.Flags().GetDuration("lock-timeout")
		lockTimeout = &v
	}
	cfg.MergeWithFlags(csvPath, docPath, logLevel, lockTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	log.LogTrace(fmt.Sprintf("project directory %s", cfg.ProjectDir))

	return &runtime{cfg: cfg, log: log}, nil
}

// loadTable loads the results CSV and renders the markdown table.
func (rt *runtime) loadTable() ([]results.Record, string, error) {
	csvPath := rt.cfg.CSVFile()

	records, err := results.Load(csvPath)
	if err != nil {
		return nil, "", err
	}
	rt.log.LogDebug(fmt.Sprintf("loaded %d records from %s", len(records), csvPath))

	table, err := report.Render(records)
	if err != nil {
		return nil, "", err
	}

	shape, err := report.Inspect([]byte(table))
	if err != nil || !shape.Matches(len(records)) {
		rt.log.LogWarn(fmt.Sprintf("rendered table does not read back as a %d-row results table; check Instance values for '|'", len(records)))
	}

	return records, table, nil
}
