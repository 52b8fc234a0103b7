package main

import (
	"os"
	"testing"

	"dbmirror/config"
	"dbmirror/internal"
	"dbmirror/mysql"
)

// Integration tests that test components working together
func TestConfigIntegration(t *testing.T) {
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	defer os.Setenv("HOME", originalHome)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Errorf("Failed to load default config: %v", err)
	}

	// Should have default examples
	conns := cfg.ConfiguredConnections()
	if len(conns) == 0 {
		t.Error("Expected at least one connection in default config")
	}

	// Test parsing connection strings work with config
	for _, conn := range conns {
		connStr, err := config.ParseConnectionString(conn)
		if err != nil {
			t.Errorf("Failed to parse connection string '%s': %v", conn, err)
		}

		// Should be able to get config back
		_, err = cfg.GetConnection(connStr.Client, connStr.Env, "SOURCE")
		if err != nil {
			t.Errorf("Failed to get connection config for '%s': %v", conn, err)
		}
	}
}

func TestSyncerWithConfigDefaults(t *testing.T) {
	// Batch size and skip list from the config file must flow into the
	// syncer options the same way the CLI flags do.
	cfg := &config.Config{
		BatchSize:  250,
		SkipTables: []string{"audit_log"},
	}

	opts := mysql.Options{
		BatchSize:  cfg.BatchSize,
		SkipTables: cfg.SkipTables,
	}

	syncer := mysql.NewSyncer(nil, nil, opts)
	if syncer == nil {
		t.Fatal("Failed to create syncer")
	}
}

func TestSpinnerIntegration(t *testing.T) {
	internal.VerboseMode = false

	executed := false
	err := internal.WithSpinner("Test operation", func() error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !executed {
		t.Error("Operation should have been executed")
	}

	// Verbose mode disables the spinner but still executes
	internal.VerboseMode = true
	executed = false

	err = internal.WithSpinner("Test operation", func() error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !executed {
		t.Error("Operation should have been executed in verbose mode")
	}

	internal.VerboseMode = false
}
