// Package config loads the TOML-driven system topology: processor count
// and per-processor cache/TLB shape, memory and I/O module layout, and
// the trap handler base address.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/cache"
	"github.com/twin64/t64sim/system"
)

// Config describes one system's hardware topology.
type Config struct {
	System struct {
		TrapBase   int64 `toml:"trap_base"`
		TrapStride int64 `toml:"trap_stride"`
	} `toml:"system"`

	Processors []ProcessorConfig `toml:"processor"`
	Memories   []MemoryConfig    `toml:"memory"`
	IOModules  []IOConfig        `toml:"io"`
}

// ProcessorConfig describes one processor's TLB sizes, cache geometry and
// direct-physical-addressing window.
type ProcessorConfig struct {
	ITLBSize   int   `toml:"itlb_size"`
	DTLBSize   int   `toml:"dtlb_size"`
	ICacheWays int   `toml:"icache_ways"`
	ICacheSets int   `toml:"icache_sets"`
	ICacheLine int   `toml:"icache_line"`
	DCacheWays int   `toml:"dcache_ways"`
	DCacheSets int   `toml:"dcache_sets"`
	DCacheLine int   `toml:"dcache_line"`
	PhysStart  int64 `toml:"phys_start"`
	PhysLimit  int64 `toml:"phys_limit"`
	IOStart    int64 `toml:"io_start"`
	IOLimit    int64 `toml:"io_limit"`
}

// MemoryConfig describes one memory module's HPA register window and SPA
// data region.
type MemoryConfig struct {
	Num      int   `toml:"num"`
	HPAStart int64 `toml:"hpa_start"`
	HPALen   int64 `toml:"hpa_len"`
	SPAStart int64 `toml:"spa_start"`
	SPALen   int64 `toml:"spa_len"`
}

// IOConfig describes one register-mapped I/O stub module.
type IOConfig struct {
	Num      int   `toml:"num"`
	HPAStart int64 `toml:"hpa_start"`
	HPALen   int64 `toml:"hpa_len"`
}

// DefaultConfig returns a minimal single-processor, single-memory system: a
// 2-way 64-set 32-byte-line cache pair, 16-entry TLBs, 1MiB of RAM at
// address 0, and a direct-physical-addressing window covering all of it.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.System.TrapBase = 0x10000
	cfg.System.TrapStride = 0x20

	cfg.Processors = []ProcessorConfig{{
		ITLBSize:   16,
		DTLBSize:   16,
		ICacheWays: 2,
		ICacheSets: 64,
		ICacheLine: 32,
		DCacheWays: 2,
		DCacheSets: 64,
		DCacheLine: 32,
		PhysStart:  0,
		PhysLimit:  1 << 20,
	}}

	cfg.Memories = []MemoryConfig{{
		Num:      0,
		HPAStart: 1 << 24,
		HPALen:   0x40,
		SPAStart: 0,
		SPALen:   1 << 20,
	}}

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "t64sim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "t64sim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "t64sim", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "t64sim", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}
	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, returning
// DefaultConfig if it does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-supplied config path
	if err != nil {
		return fmt.Errorf("config: failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: failed to encode config: %w", err)
	}
	return nil
}

// BuildSystem constructs a system.System from c: one processor per
// ProcessorConfig entry, wired to one bus shared with every configured
// memory and I/O module.
func (c *Config) BuildSystem() (*system.System, error) {
	sys := system.New()

	for _, mc := range c.Memories {
		m := system.NewMemory(mc.Num, bitfield.Word(mc.HPAStart), bitfield.Word(mc.HPALen), bitfield.Word(mc.SPAStart), bitfield.Word(mc.SPALen))
		if err := sys.AddMemory(m); err != nil {
			return nil, fmt.Errorf("config: memory %d: %w", mc.Num, err)
		}
	}
	for _, ic := range c.IOModules {
		m := system.NewIOModule(ic.Num, bitfield.Word(ic.HPAStart), bitfield.Word(ic.HPALen))
		if err := sys.AddIO(m); err != nil {
			return nil, fmt.Errorf("config: io %d: %w", ic.Num, err)
		}
	}
	for i, pc := range c.Processors {
		icType := cache.Type{Ways: pc.ICacheWays, Sets: pc.ICacheSets, LineSize: pc.ICacheLine}
		dcType := cache.Type{Ways: pc.DCacheWays, Sets: pc.DCacheSets, LineSize: pc.DCacheLine}
		_, err := sys.AddProcessor(pc.ITLBSize, pc.DTLBSize, icType, dcType,
			bitfield.Word(pc.PhysStart), bitfield.Word(pc.PhysLimit),
			bitfield.Word(pc.IOStart), bitfield.Word(pc.IOLimit),
			bitfield.Word(c.System.TrapBase), bitfield.Word(c.System.TrapStride))
		if err != nil {
			return nil, fmt.Errorf("config: processor %d: %w", i, err)
		}
	}
	return sys, nil
}
