package server

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/decred/dcrd/dcrutil/v4"
	"gopkg.in/yaml.v3"

	"github.com/pokerlite/pokerlite/pkg/logging"
	"github.com/pokerlite/pokerlite/pkg/poker"
)

// Server defaults.
const (
	DefaultTickInterval   = time.Second
	DefaultRunoutDelay    = 2 * time.Second
	DefaultEventQueueSize = 1000
	DefaultEventWorkers   = 3

	configFileName = "pokersrv.yaml"
)

// TableDefaults are applied to tables created without explicit options.
type TableDefaults struct {
	SmallBlind    int64         `yaml:"smallblind"`
	BigBlind      int64         `yaml:"bigblind"`
	StartingStack int64         `yaml:"startingstack"`
	MaxPlayers    int           `yaml:"maxplayers"`
	TurnTimeout   time.Duration `yaml:"turntimeout"`
}

// Config is the server configuration, read from pokersrv.yaml in the data
// directory and overridden by command line flags.
type Config struct {
	DataDir     string `yaml:"-"`
	DBFile      string `yaml:"dbfile"`
	LogFile     string `yaml:"logfile"`
	DebugLevel  string `yaml:"debuglevel"`
	MaxLogFiles int    `yaml:"maxlogfiles"`

	TickInterval   time.Duration `yaml:"tickinterval"`
	RunoutDelay    time.Duration `yaml:"runoutdelay"`
	EventQueueSize int           `yaml:"eventqueuesize"`
	EventWorkers   int           `yaml:"eventworkers"`

	// Seed makes every table's deck deterministic. Zero means random.
	Seed  int64         `yaml:"seed"`
	Table TableDefaults `yaml:"table"`

	LogBackend *logging.LogBackend `yaml:"-"`
}

// setDefaults fills unset fields. Zero TickInterval and friends mean the
// default; a negative RunoutDelay means no pause between runout streets.
func (cfg *Config) setDefaults() {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.RunoutDelay == 0 {
		cfg.RunoutDelay = DefaultRunoutDelay
	}
	if cfg.RunoutDelay < 0 {
		cfg.RunoutDelay = 0
	}
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = DefaultEventQueueSize
	}
	if cfg.EventWorkers <= 0 {
		cfg.EventWorkers = DefaultEventWorkers
	}
}

// tableConfig builds the engine config for a new table.
func (cfg *Config) tableConfig(id string, opts TableOptions) poker.TableConfig {
	tc := poker.TableConfig{
		ID:            id,
		SmallBlind:    cfg.Table.SmallBlind,
		BigBlind:      cfg.Table.BigBlind,
		StartingStack: cfg.Table.StartingStack,
		MaxPlayers:    cfg.Table.MaxPlayers,
		TurnTimeout:   cfg.Table.TurnTimeout,
		Seed:          cfg.Seed,
	}
	if opts.SmallBlind > 0 {
		tc.SmallBlind = opts.SmallBlind
	}
	if opts.BigBlind > 0 {
		tc.BigBlind = opts.BigBlind
	}
	if opts.StartingStack > 0 {
		tc.StartingStack = opts.StartingStack
	}
	if opts.MaxPlayers > 0 {
		tc.MaxPlayers = opts.MaxPlayers
	}
	if opts.TurnTimeout > 0 {
		tc.TurnTimeout = opts.TurnTimeout
	}
	if opts.Seed != 0 {
		tc.Seed = opts.Seed
	}
	if opts.Now != nil {
		tc.Now = opts.Now
	}
	return tc
}

// Flags holds the server command line flags.
type Flags struct {
	DataDir      *string
	DBFile       *string
	DebugLevel   *string
	TickInterval *time.Duration
	RunoutDelay  *time.Duration
	TurnTimeout  *time.Duration
	Seed         *int64
}

// RegisterFlags registers the server flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		DataDir:      fs.String("datadir", "", "Directory to load config file from and store data in"),
		DBFile:       fs.String("db", "", "Path to SQLite hand history database"),
		DebugLevel:   fs.String("debuglevel", "", "Logging level: trace, debug, info, warn, error"),
		TickInterval: fs.Duration("tick", 0, "Table timer tick interval"),
		RunoutDelay:  fs.Duration("runoutdelay", 0, "Pause between streets of an all-in runout"),
		TurnTimeout:  fs.Duration("turntimeout", 0, "Time a player has to act"),
		Seed:         fs.Int64("seed", 0, "Deterministic RNG seed for decks (0 = random)"),
	}
}

// LoadConfig reads <datadir>/pokersrv.yaml, if present, and applies flag
// overrides. The data directory defaults to the per-user app data dir.
func LoadConfig(flags *Flags, appName string) (*Config, error) {
	datadir := ""
	if flags != nil && flags.DataDir != nil {
		datadir = *flags.DataDir
	}
	if datadir == "" {
		datadir = dcrutil.AppDataDir(appName, false)
	}

	cfg := &Config{DataDir: datadir}
	data, err := os.ReadFile(filepath.Join(datadir, configFileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configFileName, err)
		}
	}

	if flags != nil {
		if flags.DBFile != nil && *flags.DBFile != "" {
			cfg.DBFile = *flags.DBFile
		}
		if flags.DebugLevel != nil && *flags.DebugLevel != "" {
			cfg.DebugLevel = *flags.DebugLevel
		}
		if flags.TickInterval != nil && *flags.TickInterval > 0 {
			cfg.TickInterval = *flags.TickInterval
		}
		if flags.RunoutDelay != nil && *flags.RunoutDelay > 0 {
			cfg.RunoutDelay = *flags.RunoutDelay
		}
		if flags.TurnTimeout != nil && *flags.TurnTimeout > 0 {
			cfg.Table.TurnTimeout = *flags.TurnTimeout
		}
		if flags.Seed != nil && *flags.Seed != 0 {
			cfg.Seed = *flags.Seed
		}
	}

	if cfg.DBFile == "" {
		cfg.DBFile = filepath.Join(datadir, "hands.sqlite")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(datadir, "logs", appName+".log")
	}
	if cfg.DebugLevel == "" {
		cfg.DebugLevel = "info"
	}
	return cfg, nil
}
