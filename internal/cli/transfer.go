package cli

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/srediag/shmbridge/internal/metrics"
	"github.com/srediag/shmbridge/pkg/datum"
	"github.com/srediag/shmbridge/pkg/rpc"
	"github.com/srediag/shmbridge/pkg/shm"
)

// session is the accessor, manager and bridge a command moves values with,
// built from the loaded configuration.
type session struct {
	mgr    *shm.Manager
	bridge *datum.Bridge
	reg    *prometheus.Registry
}

func (e *env) openSession() (*session, error) {
	acc, err := shm.NewAccessor(e.cfg.AccessorOptions(e.log))
	if err != nil {
		return nil, err
	}
	mgr, err := shm.NewManager(acc, e.cfg.ManagerOptions(e.log)...)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg, mgr.Len)
	if err != nil {
		_ = mgr.Close()
		return nil, err
	}
	opts := append(e.cfg.BridgeOptions(e.log), datum.WithRecorder(m))
	return &session{
		mgr:    mgr,
		bridge: datum.NewBridge(mgr, opts...),
		reg:    reg,
	}, nil
}

func (s *session) close(log *zap.Logger) {
	if err := s.mgr.Close(); err != nil {
		log.Warn("close region manager failed", zap.Error(err))
	}
}

// writeStats writes the session's collectors in the prometheus text format.
func (s *session) writeStats(w io.Writer) error {
	families, err := s.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func statsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "stats",
		Usage: "print transfer counters to stderr when done",
	}
}

// PutCommand copies a file or stdin into a new region and prints its
// descriptor. The region outlives the command; remove it with rm.
func PutCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Write a payload into a new shared memory region",
		ArgsUsage: "[file|-]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "string",
				Usage: "store the payload as UTF-8 text instead of bytes",
			},
			formatFlag(),
			statsFlag(),
		},
		Action: putAction,
	}
}

func putAction(c *cli.Context) error {
	e := fromContext(c)
	f, err := parseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	payload, err := readInput(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	d := datum.NewBytes(payload)
	if c.Bool("string") {
		if !utf8.Valid(payload) {
			return cli.Exit("payload is not valid UTF-8", 1)
		}
		d = datum.NewString(string(payload))
	}

	sess, err := e.openSession()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer sess.close(e.log)

	desc, err := sess.bridge.Write(d)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	// Hand the region over instead of deleting it when the manager closes.
	sess.mgr.Disown(desc.Name)
	e.log.Info("wrote region", zap.String("region", desc.Name), zap.Uint64("count", desc.Count))

	if c.Bool("stats") {
		if err := sess.writeStats(c.App.ErrWriter); err != nil {
			return err
		}
	}
	return renderDescriptor(c.App.Writer, f, desc)
}

func readInput(c *cli.Context) ([]byte, error) {
	arg := c.Args().First()
	if arg == "" || arg == "-" {
		in := c.App.Reader
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	return os.ReadFile(arg)
}

// GetCommand copies a range of a region's payload to stdout.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read a payload range out of a shared memory region",
		ArgsUsage: "<region-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "bytes or string",
				Value: "bytes",
			},
			&cli.Uint64Flag{
				Name:  "offset",
				Usage: "payload offset to start at",
			},
			&cli.Uint64Flag{
				Name:  "count",
				Usage: "bytes to read (default: up to the content length)",
			},
			statsFlag(),
		},
		Action: getAction,
	}
}

func getAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("region name required", 1)
	}
	e := fromContext(c)
	name := c.Args().First()
	typ, err := parseDataType(c.String("type"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	offset := c.Uint64("offset")
	count := c.Uint64("count")
	if !c.IsSet("count") {
		if count, err = e.remaining(name, offset); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	sess, err := e.openSession()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer sess.close(e.log)

	desc := &rpc.RpcSharedMemory{Name: name, Offset: offset, Count: count, Type: typ}
	d, err := sess.bridge.Read(desc)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if d == nil {
		return cli.Exit(fmt.Sprintf("region %s: range [%d, %d) is not readable", name, offset, offset+count), 1)
	}
	switch raw := d.Raw().(type) {
	case datum.Bytes:
		_, err = c.App.Writer.Write(raw)
	case datum.String:
		_, err = io.WriteString(c.App.Writer, string(raw))
	}
	if err != nil {
		return err
	}
	if c.Bool("stats") {
		return sess.writeStats(c.App.ErrWriter)
	}
	return nil
}

// remaining is the payload length of name past offset, read from the region file.
func (e *env) remaining(name string, offset uint64) (uint64, error) {
	path, err := e.resolve(name)
	if err != nil {
		return 0, fmt.Errorf("%w; pass --count", err)
	}
	d, err := shm.ReadRegionDetail(path)
	if err != nil {
		return 0, err
	}
	if offset > d.ContentLength {
		return 0, fmt.Errorf("offset %d past content length %d of %s", offset, d.ContentLength, name)
	}
	return d.ContentLength - offset, nil
}

func parseDataType(s string) (rpc.RpcDataType, error) {
	switch s {
	case "bytes":
		return rpc.RpcDataTypeBytes, nil
	case "string":
		return rpc.RpcDataTypeString, nil
	default:
		return rpc.RpcDataTypeUnknown, fmt.Errorf("invalid type: %q (must be bytes or string)", s)
	}
}
