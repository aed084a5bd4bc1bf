package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/compare"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

func NewTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row(header))
	return t
}

// Render writes data as json or yaml.
// yaml output is derived from the json representation so that both formats
// carry the same field names and null values.
func Render(w io.Writer, format string, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// ReportError prints the user message and hint of err to stderr.
// The returned error only signals the failure to cobra.
func ReportError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	ue := compare.Describe(err)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\nHint:  %s\n", ue.Message, ue.Hint)
	return ue
}
