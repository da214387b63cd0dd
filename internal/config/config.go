package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	DataDir     string `yaml:"-"`
	DBPath      string `yaml:"-"`
	UserSeedDir string `yaml:"-"`
	// ProjectSeedDir is relative to the working directory, like .uncase/seeds.
	ProjectSeedDir string `yaml:"-"`

	Store         string `yaml:"store"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	APIURL   string `yaml:"api_url"`
	AppURL   string `yaml:"app_url"`
	Landing  bool   `yaml:"landing"`
	BasePath string `yaml:"base_path"`

	ListenAddr string `yaml:"listen_addr"`

	SeedFetchTimeout time.Duration `yaml:"seed_fetch_timeout"`
	SandboxTimeout   time.Duration `yaml:"sandbox_timeout"`
	SimInterval      time.Duration `yaml:"sim_interval"`
}

// New builds the config from defaults, an optional .env file, an optional
// <data>/config.yaml, and the environment, in increasing precedence.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dataDir := getEnv("UNCASE_DATA_DIR", filepath.Join(homeDir, ".uncase"))

	c := &Config{
		DataDir:          dataDir,
		DBPath:           filepath.Join(dataDir, "uncase.db"),
		UserSeedDir:      filepath.Join(dataDir, "seeds"),
		ProjectSeedDir:   ".uncase/seeds",
		Store:            StoreSQLite,
		APIURL:           "http://localhost:8000",
		AppURL:           "http://localhost:3000",
		ListenAddr:       "127.0.0.1:7420",
		SeedFetchTimeout: 10 * time.Second,
		SandboxTimeout:   120 * time.Second,
		SimInterval:      2 * time.Second,
	}

	if err := c.loadFile(filepath.Join(dataDir, "config.yaml")); err != nil {
		return nil, err
	}
	if err := c.loadEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) loadFile(p string) error {
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", p, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.Store = getEnv("UNCASE_STORE", c.Store)
	c.RedisAddr = getEnv("UNCASE_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("UNCASE_REDIS_PASSWORD", c.RedisPassword)
	c.APIURL = getEnv("NEXT_PUBLIC_API_URL", c.APIURL)
	c.APIURL = getEnv("UNCASE_API_URL", c.APIURL)
	c.AppURL = getEnv("NEXT_PUBLIC_APP_URL", c.AppURL)
	c.BasePath = getEnv("BASEPATH", c.BasePath)
	c.ListenAddr = getEnv("UNCASE_LISTEN_ADDR", c.ListenAddr)

	if v, ok := os.LookupEnv("NEXT_PUBLIC_LANDING"); ok {
		c.Landing = v == "true" || v == "1"
	}

	for key, dst := range map[string]*time.Duration{
		"UNCASE_SEED_FETCH_TIMEOUT": &c.SeedFetchTimeout,
		"UNCASE_SANDBOX_TIMEOUT":    &c.SandboxTimeout,
		"UNCASE_SIM_INTERVAL":       &c.SimInterval,
	} {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile, StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis store requires UNCASE_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	return nil
}

func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.UserSeedDir, 0755); err != nil {
		return err
	}
	return nil
}

// StateDir holds the per-key files of the file store.
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// SeedDirs lists seed template directories, lowest precedence first.
func (c *Config) SeedDirs() []string {
	return []string{c.UserSeedDir, c.ProjectSeedDir}
}

// DashboardPath is the dashboard route under the deployment base path.
func (c *Config) DashboardPath() string {
	return c.route("dashboard")
}

// HomePath is where "home" links point: the landing page when it is
// enabled, the dashboard otherwise.
func (c *Config) HomePath() string {
	if c.Landing {
		return c.route("")
	}
	return c.DashboardPath()
}

// DashboardURL is the absolute dashboard URL.
func (c *Config) DashboardURL() string {
	return strings.TrimRight(c.AppURL, "/") + c.DashboardPath()
}

func (c *Config) route(p string) string {
	base := "/" + strings.Trim(c.BasePath, "/")
	return path.Join(base, p)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
