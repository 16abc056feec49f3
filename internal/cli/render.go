package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/srediag/shmbridge/pkg/rpc"
	"github.com/srediag/shmbridge/pkg/shm"
)

type format string

const (
	formatTable format = "table"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch strings.ToLower(s) {
	case "", "table":
		return formatTable, nil
	case "json":
		return formatJSON, nil
	case "yaml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be table, json or yaml)", s)
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"o"},
		Usage:   "output format: table, json or yaml",
		Value:   string(formatTable),
	}
}

// encode writes v as JSON or YAML. It reports false for the table format.
func encode(out io.Writer, f format, v any) (bool, error) {
	switch f {
	case formatJSON:
		enc := sonic.ConfigStd.NewEncoder(out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// renderDetails writes details to out in f.
func renderDetails(out io.Writer, f format, details []shm.RegionDetail) error {
	if done, err := encode(out, f, details); done {
		return err
	}
	if len(details) == 0 {
		_, err := fmt.Fprintln(out, "(no regions)")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tSIZE\tSTATE\tCONTENT_LENGTH")
	for _, d := range details {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", d.Path, d.Size, d.State, d.ContentLength)
	}
	return w.Flush()
}

type descriptor struct {
	Name   string `json:"name" yaml:"name"`
	Offset uint64 `json:"offset" yaml:"offset"`
	Count  uint64 `json:"count" yaml:"count"`
	Type   string `json:"type" yaml:"type"`
}

// renderDescriptor writes the shared memory descriptor of a written value.
func renderDescriptor(out io.Writer, f format, desc *rpc.RpcSharedMemory) error {
	d := descriptor{Name: desc.Name, Offset: desc.Offset, Count: desc.Count, Type: desc.Type.String()}
	if done, err := encode(out, f, d); done {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tOFFSET\tCOUNT\tTYPE")
	fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Name, d.Offset, d.Count, d.Type)
	return w.Flush()
}
