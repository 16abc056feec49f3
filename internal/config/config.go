package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/srediag/shmbridge/pkg/datum"
	"github.com/srediag/shmbridge/pkg/shm"
)

// Prefix is prepended to every environment variable, e.g. SHMBRIDGE_SHM_DIRS.
const Prefix = "SHMBRIDGE"

// Config holds all shmbridge configuration.
type Config struct {
	SharedMemory SharedMemoryConfig `envconfig:"SHM"`
	Transfer     TransferConfig     `envconfig:"TRANSFER"`
	Logging      LogConfig          `envconfig:"LOG"`
	Health       HealthConfig       `envconfig:"HEALTH"`
}

// SharedMemoryConfig selects the region backend and how regions are read.
type SharedMemoryConfig struct {
	Backend        string        `envconfig:"BACKEND" default:"os"`
	Dirs           []string      `envconfig:"DIRS" default:"/dev/shm"`
	DirSuffix      string        `envconfig:"DIR_SUFFIX" default:"AzureFunctions"`
	ReadRetries    uint64        `envconfig:"READ_RETRIES" default:"10"`
	ReadInterval   time.Duration `envconfig:"READ_INTERVAL" default:"5ms"`
	ReleaseWorkers int           `envconfig:"RELEASE_WORKERS" default:"4"`
}

// TransferConfig decides which values go through shared memory.
type TransferConfig struct {
	Enabled bool   `envconfig:"ENABLED" default:"false"`
	MinSize uint64 `envconfig:"MIN_SIZE" default:"1048576"`
	MaxSize uint64 `envconfig:"MAX_SIZE" default:"2147483648"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"warn"`
	Development bool   `envconfig:"DEV" default:"false"`
}

// HealthConfig holds the health endpoint configuration.
type HealthConfig struct {
	Addr string `envconfig:"ADDR" default:":8086"`
	// MinFreeBytes is the free space a directory needs to be ready.
	MinFreeBytes uint64 `envconfig:"MIN_FREE_BYTES" default:"1048576"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		SharedMemory: SharedMemoryConfig{
			Backend:        string(shm.BackendOS),
			Dirs:           shm.DefaultDirs(),
			DirSuffix:      shm.DefaultDirSuffix,
			ReadRetries:    10,
			ReadInterval:   5 * time.Millisecond,
			ReleaseWorkers: 4,
		},
		Transfer: TransferConfig{
			Enabled: false,
			MinSize: datum.DefaultMinTransferSize,
			MaxSize: datum.DefaultMaxTransferSize,
		},
		Logging: LogConfig{
			Level: "warn",
		},
		Health: HealthConfig{
			Addr:         ":8086",
			MinFreeBytes: 1 << 20,
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch shm.Backend(c.SharedMemory.Backend) {
	case shm.BackendOS:
		if len(c.SharedMemory.Dirs) == 0 {
			return errors.New("config: os backend needs at least one directory")
		}
	case shm.BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q", c.SharedMemory.Backend)
	}
	if c.Transfer.MinSize > c.Transfer.MaxSize {
		return fmt.Errorf("config: transfer min size %d exceeds max size %d",
			c.Transfer.MinSize, c.Transfer.MaxSize)
	}
	if c.SharedMemory.ReleaseWorkers <= 0 {
		return fmt.Errorf("config: release workers must be positive, got %d", c.SharedMemory.ReleaseWorkers)
	}
	return nil
}

// AccessorOptions maps the configuration onto shm.NewAccessor options.
func (c *Config) AccessorOptions(log *zap.Logger) shm.Options {
	return shm.Options{
		Backend:   shm.Backend(c.SharedMemory.Backend),
		Dirs:      append([]string(nil), c.SharedMemory.Dirs...),
		DirSuffix: c.SharedMemory.DirSuffix,
		Logger:    log,
	}
}

// ManagerOptions maps the configuration onto shm.NewManager options.
func (c *Config) ManagerOptions(log *zap.Logger) []shm.ManagerOption {
	opts := []shm.ManagerOption{
		shm.WithReadRetry(c.SharedMemory.ReadRetries, c.SharedMemory.ReadInterval),
		shm.WithReleaseWorkers(c.SharedMemory.ReleaseWorkers),
	}
	if log != nil {
		opts = append(opts, shm.WithLogger(log))
	}
	if c.Transfer.MaxSize > 0 && c.Transfer.MaxSize <= uint64(maxInt) {
		opts = append(opts, shm.WithMaxSize(int(c.Transfer.MaxSize)))
	}
	return opts
}

// BridgeOptions maps the configuration onto datum.NewBridge options. With
// transfer disabled the window is empty and every value is sent inline.
func (c *Config) BridgeOptions(log *zap.Logger) []datum.BridgeOption {
	opts := []datum.BridgeOption{datum.WithLogger(log)}
	if c.Transfer.Enabled {
		opts = append(opts, datum.WithTransferWindow(c.Transfer.MinSize, c.Transfer.MaxSize))
	} else {
		opts = append(opts, datum.WithTransferWindow(1, 0))
	}
	return opts
}

const maxInt = int(^uint(0) >> 1)
