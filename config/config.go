// Package config handles YAML configuration loading.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viant/nearstop/index"
)

// Config represents the root configuration file structure.
type Config struct {
	Index    Index    `yaml:"index"`
	Join     Join     `yaml:"join"`
	Input    Input    `yaml:"input"`
	Output   Output   `yaml:"output"`
	Database Database `yaml:"database"`
	Server   Server   `yaml:"server"`
}

// Index selects and tunes the nearest neighbor strategy.
type Index struct {
	Kind        string  `yaml:"kind,omitempty"`
	LeafSize    int     `yaml:"leaf_size,omitempty"`
	CoverBase   float64 `yaml:"cover_base,omitempty"`
	CoverBound  string  `yaml:"cover_bound,omitempty"`
	CoverSearch string  `yaml:"cover_search,omitempty"`
}

// Join controls the building to stop join.
type Join struct {
	Workers     int  `yaml:"workers,omitempty"`
	SkipInvalid bool `yaml:"skip_invalid,omitempty"`
	Links       bool `yaml:"links,omitempty"`
}

// Input names the stop and building files.
type Input struct {
	Stops      string `yaml:"stops,omitempty"`
	Buildings  string `yaml:"buildings,omitempty"`
	IDProperty string `yaml:"id_property,omitempty"`
}

// Output names the result files.
type Output struct {
	GeoJSON string `yaml:"geojson,omitempty"`
	XLSX    string `yaml:"xlsx,omitempty"`
}

// Database names the SQLite database.
type Database struct {
	DSN   string `yaml:"dsn,omitempty"`
	Index string `yaml:"index,omitempty"`
}

// Server configures the HTTP service.
type Server struct {
	Addr     string `yaml:"addr,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	MaxK     int    `yaml:"max_k,omitempty"`
	MaxBatch int    `yaml:"max_batch,omitempty"`
	Cache    Cache  `yaml:"cache,omitempty"`
}

// Cache configures the optional Redis response cache; an empty Addr disables it.
type Cache struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Index.Kind == "" {
		c.Index.Kind = string(index.Auto)
	}
	if c.Input.IDProperty == "" {
		c.Input.IDProperty = "id"
	}
	if c.Database.Index == "" {
		c.Database.Index = "stops"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxK == 0 {
		c.Server.MaxK = 100
	}
	if c.Server.MaxBatch == 0 {
		c.Server.MaxBatch = 10000
	}
}

// Validate checks option values.
func (c *Config) Validate() error {
	if _, err := index.ParseKind(c.Index.Kind); err != nil {
		return err
	}
	if c.Index.LeafSize < 0 {
		return fmt.Errorf("index.leaf_size must not be negative: %d", c.Index.LeafSize)
	}
	if c.Index.CoverBase != 0 && c.Index.CoverBase <= 1 {
		return fmt.Errorf("index.cover_base must be greater than 1: %v", c.Index.CoverBase)
	}
	if c.Join.Workers < 0 {
		return fmt.Errorf("join.workers must not be negative: %d", c.Join.Workers)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxK < 0 || c.Server.MaxBatch < 0 {
		return fmt.Errorf("server limits must not be negative")
	}
	if c.Server.Cache.DB < 0 || c.Server.Cache.TTL < 0 {
		return fmt.Errorf("server.cache db and ttl must not be negative")
	}
	return nil
}

// IndexKind returns the parsed index kind.
func (c *Config) IndexKind() index.Kind {
	kind, _ := index.ParseKind(c.Index.Kind)
	return kind
}

// IndexOptions returns the strategy tuning options.
func (c *Config) IndexOptions() index.Options {
	return index.Options{
		LeafSize:    c.Index.LeafSize,
		CoverBase:   c.Index.CoverBase,
		CoverBound:  c.Index.CoverBound,
		CoverSearch: c.Index.CoverSearch,
	}
}
