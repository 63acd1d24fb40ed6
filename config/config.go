// Package config describes pool, worker, and scratchpad-policy settings,
// loaded from YAML with CLI flag overrides for the self-test/bench binary
// (SPEC_FULL.md §2, "Configuration").
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nthash/cryptonight"
	"github.com/nthash/cryptonight/scratchpad"
)

// Mode selects a worker's single- or double-hash loop (spec.md §4.6).
type Mode int

const (
	Single Mode = iota
	Double
)

func (m Mode) String() string {
	if m == Double {
		return "double"
	}
	return "single"
}

// UnmarshalYAML lets Mode be written as "single"/"double" in YAML.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "double":
		*m = Double
	case "single", "":
		*m = Single
	default:
		return fmt.Errorf("config: unknown worker mode %q", s)
	}
	return nil
}

// Thread is one worker's configuration: mode, variant, CPU pinning, and
// per-thread AES/huge-page overrides (SPEC_FULL.md §3, "WorkerConfig").
type Thread struct {
	Mode      Mode              `yaml:"mode"`
	Variant   cryptonight.Variant `yaml:"variant"`
	CPUID     int               `yaml:"cpu_id"`
	SoftAES   bool              `yaml:"soft_aes"`
	HugePages scratchpad.Policy `yaml:"huge_pages"`
}

// PoolConfig describes the pool connection parameters the hash core treats
// as opaque (SPEC_FULL.md §3). Only PoolID and Nicehash are consumed by
// the worker/pool packages; the rest exist for an external stratum client
// this repository does not implement.
type PoolConfig struct {
	PoolID   string `yaml:"pool_id"`
	URL      string `yaml:"url"`
	Login    string `yaml:"login"`
	Pass     string `yaml:"pass"`
	Nicehash bool   `yaml:"nicehash"`
	TLS      bool   `yaml:"tls"`
}

// Config is the top-level configuration for a miner process.
type Config struct {
	Pool    PoolConfig `yaml:"pool"`
	Threads []Thread   `yaml:"threads"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}

// FlagSet registers CLI overrides for the fields the self-test/bench
// binary cares about most: thread count and variant. A full config file
// still covers per-thread CPU pinning and pool settings.
func FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("cryptonight", pflag.ExitOnError)
	fs.Int("threads", 1, "number of worker threads")
	fs.Int("variant", 2, "CryptoNight variant (0, 1, or 2)")
	fs.Bool("soft-aes", false, "force the software AES path")
	fs.String("tests", "tests.txt", "path to the self-test vector file")
	return fs
}

// ApplyFlags overlays flag values parsed from fs onto a default uniform
// Config of the requested thread count.
func ApplyFlags(fs *pflag.FlagSet) (*Config, error) {
	threads, err := fs.GetInt("threads")
	if err != nil {
		return nil, err
	}
	variant, err := fs.GetInt("variant")
	if err != nil {
		return nil, err
	}
	softAES, err := fs.GetBool("soft-aes")
	if err != nil {
		return nil, err
	}
	if variant < 0 || variant > 2 {
		return nil, fmt.Errorf("config: variant must be 0, 1, or 2, got %d", variant)
	}

	c := &Config{Threads: make([]Thread, threads)}
	for i := range c.Threads {
		c.Threads[i] = Thread{
			Mode:      Single,
			Variant:   cryptonight.Variant(variant),
			CPUID:     -1,
			SoftAES:   softAES,
			HugePages: scratchpad.PrintWarning,
		}
	}
	return c, nil
}
