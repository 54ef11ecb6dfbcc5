package session

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the whole session configuration. Every component receives the
// piece it needs at construction time; nothing reads process-wide state.
type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Field    FieldConfig    `yaml:"field"`
	Capacity CapacityConfig `yaml:"capacity"`
	Logic    LogicConfig    `yaml:"logic"`
	Window   WindowConfig   `yaml:"window"`
}

// ExchangeConfig locates the shared exchange folder. InputFile and UpdateFile
// are relative to Dir; their names are part of the wire protocol and rarely
// worth changing.
type ExchangeConfig struct {
	Dir        string `yaml:"dir"`
	InputFile  string `yaml:"input_file"`
	UpdateFile string `yaml:"update_file"`
	DataDir    string `yaml:"data_dir"`
}

// FieldConfig is the logical play field in world units.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// CapacityConfig bounds producer-chosen identities per kind.
type CapacityConfig struct {
	Sprites  int `yaml:"sprites"`
	Texts    int `yaml:"texts"`
	Channels int `yaml:"channels"`
}

// LogicConfig selects the game-logic producer. Command spawns an external
// interpreter (argv form, run with the exchange dir as working directory);
// Script runs an embedded tengo game instead. Exactly one may be set.
type LogicConfig struct {
	Command []string `yaml:"command"`
	Script  string   `yaml:"script"`
	// TickRate is the embedded script's ticks per second. The external
	// process paces itself.
	TickRate int `yaml:"tick_rate"`
}

// WindowConfig sizes the host window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Default returns the stock configuration: a 28x16 field, protocol-standard
// mailbox names and capacities, no producer.
func Default() Config {
	return Config{
		Exchange: ExchangeConfig{
			Dir:        "exchange",
			InputFile:  "input.txt",
			UpdateFile: "sprite.txt",
			DataDir:    "data",
		},
		Field:    FieldConfig{Width: 28, Height: 16},
		Capacity: CapacityConfig{Sprites: 1000, Texts: 100, Channels: 20},
		Logic:    LogicConfig{TickRate: 30},
		Window:   WindowConfig{Width: 1260, Height: 720, Title: "skiff"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations no session could run with.
func (c Config) Validate() error {
	if c.Exchange.Dir == "" {
		return fmt.Errorf("exchange.dir must be set")
	}
	if c.Exchange.InputFile == "" || c.Exchange.UpdateFile == "" {
		return fmt.Errorf("exchange mailbox file names must be set")
	}
	if c.Exchange.InputFile == c.Exchange.UpdateFile {
		return fmt.Errorf("inbound and outbound mailboxes must be distinct files")
	}
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		return fmt.Errorf("field dimensions must be positive, got %gx%g", c.Field.Width, c.Field.Height)
	}
	if c.Capacity.Sprites <= 0 || c.Capacity.Texts <= 0 || c.Capacity.Channels <= 0 {
		return fmt.Errorf("capacities must be positive, got %+v", c.Capacity)
	}
	if len(c.Logic.Command) > 0 && c.Logic.Script != "" {
		return fmt.Errorf("logic.command and logic.script are mutually exclusive")
	}
	if c.Logic.Script != "" && c.Logic.TickRate <= 0 {
		return fmt.Errorf("logic.tick_rate must be positive for an embedded script")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window dimensions must be positive")
	}
	return nil
}

// InputPath returns the absolute-ish path of the inbound mailbox file.
func (c Config) InputPath() string {
	return filepath.Join(c.Exchange.Dir, c.Exchange.InputFile)
}

// UpdatePath returns the path of the outbound mailbox file.
func (c Config) UpdatePath() string {
	return filepath.Join(c.Exchange.Dir, c.Exchange.UpdateFile)
}

// DataPath resolves an asset filename from an update record against the data
// directory. DataDir may be relative to the exchange dir or absolute.
func (c Config) DataPath(name string) string {
	return filepath.Join(c.ResolvedDataDir(), name)
}

// ResolvedDataDir returns the data directory path.
func (c Config) ResolvedDataDir() string {
	if filepath.IsAbs(c.Exchange.DataDir) {
		return c.Exchange.DataDir
	}
	return filepath.Join(c.Exchange.Dir, c.Exchange.DataDir)
}
