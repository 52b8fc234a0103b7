package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"dbmirror/mysql"
)

// Config is the on-disk profile store. Connections are keyed client/env
// so the same invocation shape works across customers and stages.
type Config struct {
	Connections map[string]mysql.Config `json:"connections"`
	BatchSize   int                     `json:"batchSize,omitempty"`
	SkipTables  []string                `json:"skipTables,omitempty"`
}

type ConnectionString struct {
	Client string
	Env    string
}

func ParseConnectionString(connStr string) (*ConnectionString, error) {
	for i, char := range connStr {
		if char == '/' {
			if i == 0 || i == len(connStr)-1 {
				break
			}
			return &ConnectionString{Client: connStr[:i], Env: connStr[i+1:]}, nil
		}
	}
	return nil, fmt.Errorf("invalid connection string format: %s (expected client/env)", connStr)
}

// LoadConfig reads the profile store, creating a commented default on
// first run. A .env file next to the process is loaded first so secrets
// can stay out of the config file.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

func (c *Config) SaveConfig() error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConnection resolves a client/env pair to a connection profile, with
// the password overridable from the environment. role is "SOURCE" or
// "DEST" and selects the DBMIRROR_<role>_PASSWORD variable.
func (c *Config) GetConnection(client, env, role string) (*mysql.Config, error) {
	key := fmt.Sprintf("%s/%s", client, env)
	config, exists := c.Connections[key]
	if !exists {
		return nil, fmt.Errorf("connection config not found for %s", key)
	}
	if pw := os.Getenv("DBMIRROR_" + role + "_PASSWORD"); pw != "" {
		config.Password = pw
	}
	return &config, nil
}

func (c *Config) SetConnection(client, env string, config mysql.Config) {
	if c.Connections == nil {
		c.Connections = make(map[string]mysql.Config)
	}
	key := fmt.Sprintf("%s/%s", client, env)
	c.Connections[key] = config
}

func (c *Config) ConfiguredConnections() []string {
	var keys []string
	for key := range c.Connections {
		keys = append(keys, key)
	}
	return keys
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".dbmirror/config.json"
	}
	return filepath.Join(homeDir, ".dbmirror", "config.json")
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Connections: map[string]mysql.Config{
			"example/prod": {
				Host:     "prod.example.com",
				Port:     3306,
				User:     "replicator",
				Password: "password",
				Database: "appdb",
			},
			"example/local": {
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "password",
				Database: "appdb",
			},
		},
		BatchSize: mysql.DefaultBatchSize,
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.SaveConfig(); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}

	fmt.Printf("Created default config at %s\n", configPath)
	fmt.Println("Please edit the config file to add your database connections.")
	return config, nil
}
