package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/srediag/shmbridge/internal/health"
	"github.com/srediag/shmbridge/internal/metrics"
	internalshm "github.com/srediag/shmbridge/internal/shm"
	"github.com/srediag/shmbridge/pkg/shm"
)

// ListCommand lists the regions found in the configured directories.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List shared memory regions and their header state",
		Flags:   []cli.Flag{formatFlag()},
		Action:  listAction,
	}
}

func listAction(c *cli.Context) error {
	e := fromContext(c)
	f, err := parseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	var details []shm.RegionDetail
	for _, dir := range e.regionDirs() {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			d, err := shm.ReadRegionDetail(path)
			if err != nil {
				e.log.Debug("skipping file", zap.String("path", path), zap.Error(err))
				continue
			}
			details = append(details, d)
		}
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Path < details[j].Path })
	return renderDetails(c.App.Writer, f, details)
}

// InspectCommand prints the decoded header of one region.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the header of a region",
		ArgsUsage: "<region-name|path>",
		Flags:     []cli.Flag{formatFlag()},
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("region name required", 1)
	}
	e := fromContext(c)
	path, err := e.resolve(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if !c.IsSet("format") {
		return shm.DebugRegionDetail(c.App.Writer, path)
	}
	f, err := parseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	d, err := shm.ReadRegionDetail(path)
	if err != nil {
		return err
	}
	return renderDetails(c.App.Writer, f, []shm.RegionDetail{d})
}

// RemoveCommand unlinks regions by name. Removing a missing region is not an
// error.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove shared memory regions",
		ArgsUsage: "<region-name>...",
		Action:    removeAction,
	}
}

func removeAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("at least one region name required", 1)
	}
	e := fromContext(c)
	acc, err := shm.NewAccessor(e.cfg.AccessorOptions(e.log))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	for _, name := range c.Args().Slice() {
		status := "not found"
		if acc.Delete(name, nil) {
			status = "removed"
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", name, status)
	}
	return nil
}

// HealthCommand serves liveness, readiness and metrics over HTTP until
// interrupted.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Serve /live, /ready and /metrics for the shared memory directories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (default from SHMBRIDGE_HEALTH_ADDR)",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "run the checks once, print the result and exit",
			},
		},
		Action: healthAction,
	}
}

// healthMux routes /metrics to the session registry and everything else to
// the health checks.
func (e *env) healthMux(sess *session) (*http.ServeMux, error) {
	dirs := e.regionDirs()
	if err := metrics.RegisterFreeSpace(sess.reg, dirs, internalshm.FreeBytes); err != nil {
		return nil, err
	}
	sess.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(sess.reg, promhttp.HandlerOpts{}))
	mux.Handle("/", health.NewHandler(health.Options{
		Dirs:         dirs,
		MinFreeBytes: e.cfg.Health.MinFreeBytes,
		Ready:        health.ManagerCheck(sess.mgr),
	}))
	return mux, nil
}

func healthAction(c *cli.Context) error {
	e := fromContext(c)
	sess, err := e.openSession()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer sess.close(e.log)
	mux, err := e.healthMux(sess)
	if err != nil {
		return err
	}

	if c.Bool("once") {
		status := "ok"
		code := 0
		for _, path := range []string{"/live", "/ready?full=1", "/metrics"} {
			rec := &statusRecorder{header: http.Header{}}
			req, _ := http.NewRequestWithContext(c.Context, http.MethodGet, path, nil)
			mux.ServeHTTP(rec, req)
			body := rec.body
			if path == "/metrics" {
				body = []byte(rec.header.Get("Content-Type") + "\n")
			}
			fmt.Fprintf(c.App.Writer, "%s\t%d\t%s", path, rec.status, body)
			if rec.status != http.StatusOK {
				status, code = "unhealthy", 1
			}
		}
		if code != 0 {
			return cli.Exit(status, code)
		}
		return nil
	}

	addr := e.cfg.Health.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("serving health", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	header http.Header
	status int
	body   []byte
}

func (w *statusRecorder) Header() http.Header { return w.header }

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body = append(w.body, b...)
	return len(b), nil
}

func (w *statusRecorder) WriteHeader(code int) { w.status = code }
