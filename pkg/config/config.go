package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrCapacityMisconfiguration is returned when a leaf capacity or fan-out
// cannot produce a valid split.
var ErrCapacityMisconfiguration = errors.New("leaf capacity and fan-out must both be at least 2")

type Config struct {
	Tree     TreeConfig     `yaml:"tree"`
	MemTable MemTableConfig `yaml:"memtable"`
	Log      LogConfig      `yaml:"log"`
}

type TreeConfig struct {
	LeafCapacity   int     `yaml:"leaf_capacity"` // max entries per leaf before a split (C)
	FanOut         int     `yaml:"fan_out"`       // max children per inner node before a split (F)
	BloomSize      uint    `yaml:"bloom_size"`    // 0 disables the negative-lookup filter
	BloomFalseProb float64 `yaml:"bloom_false_prob"`
}

type MemTableConfig struct {
	Degree int `yaml:"degree"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Validate rejects capacities below 2. It is applied at load time so that a
// bad value never reaches the split path.
func (tc TreeConfig) Validate() error {
	if tc.LeafCapacity < 2 || tc.FanOut < 2 {
		return fmt.Errorf("%w: leaf_capacity=%d fan_out=%d", ErrCapacityMisconfiguration, tc.LeafCapacity, tc.FanOut)
	}
	return nil
}

func Default() *Config {
	return &Config{
		Tree: TreeConfig{
			LeafCapacity:   64,
			FanOut:         64,
			BloomSize:      100000,
			BloomFalseProb: 0.01,
		},
		MemTable: MemTableConfig{
			Degree: 32,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/blinkdb.yaml", "blinkdb.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				return decode(cfg, data)
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	return decode(cfg, data)
}

func decode(cfg *Config, data []byte) (*Config, error) {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}
	applyDefaults(cfg)
	return cfg, cfg.Tree.Validate()
}

// applyDefaults fills optional settings only. Capacities are left as written
// so that Validate can report them.
func applyDefaults(cfg *Config) {
	if cfg.Tree.BloomSize > 0 && (cfg.Tree.BloomFalseProb <= 0 || cfg.Tree.BloomFalseProb >= 1) {
		cfg.Tree.BloomFalseProb = 0.01
	}
	if cfg.MemTable.Degree < 2 {
		cfg.MemTable.Degree = 32
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
