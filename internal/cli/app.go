// Package cli implements the shmctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/srediag/shmbridge/internal/config"
	"github.com/srediag/shmbridge/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

type envKey struct{}

// env is what every command works with, resolved once in Before.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func fromContext(c *cli.Context) *env {
	if e, ok := c.Context.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{cfg: config.Default(), log: logging.NewOrNop(logging.DefaultConfig())}
}

// App returns the shmctl application.
func App() *cli.App {
	return &cli.App{
		Name:    "shmctl",
		Usage:   "Inspect, move and clean up shared memory regions",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "dir",
				Usage: "shared memory directory, repeatable (default from SHMBRIDGE_SHM_DIRS)",
			},
			&cli.StringFlag{
				Name:  "suffix",
				Usage: "subdirectory holding the regions (default from SHMBRIDGE_SHM_DIR_SUFFIX)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Before: before,
		After:  after,
		Commands: []*cli.Command{
			ListCommand(),
			InspectCommand(),
			RemoveCommand(),
			PutCommand(),
			GetCommand(),
			HealthCommand(),
		},
	}
}

func before(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if dirs := c.StringSlice("dir"); len(dirs) > 0 {
		cfg.SharedMemory.Dirs = dirs
	}
	if c.IsSet("suffix") {
		cfg.SharedMemory.DirSuffix = c.String("suffix")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	log, _, err := logging.New(logCfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	c.Context = context.WithValue(parent, envKey{}, &env{cfg: cfg, log: log})
	return nil
}

func after(c *cli.Context) error {
	if e, ok := c.Context.Value(envKey{}).(*env); ok {
		_ = e.log.Sync()
	}
	return nil
}

// regionDirs returns every directory regions may live in.
func (e *env) regionDirs() []string {
	dirs := make([]string, 0, len(e.cfg.SharedMemory.Dirs))
	for _, dir := range e.cfg.SharedMemory.Dirs {
		dirs = append(dirs, filepath.Join(dir, e.cfg.SharedMemory.DirSuffix))
	}
	return dirs
}

// resolve finds the file for a region name, or returns arg unchanged when it
// already is a path.
func (e *env) resolve(arg string) (string, error) {
	if filepath.IsAbs(arg) || filepath.Base(arg) != arg {
		return arg, nil
	}
	for _, dir := range e.regionDirs() {
		path := filepath.Join(dir, arg)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("region %s not found in %v", arg, e.regionDirs())
}
