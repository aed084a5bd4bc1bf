package drivers

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

func NewDriversCmd() *cobra.Command {
	var query util.QueryFlags
	var format string
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "lists the drivers of a session",
		Example: `  ftl drivers --season 2023 --event Monza --type R
  ftl drivers --season 2023 --key 9141`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.ReportError(cmd,
				listDrivers(cmd.Context(), cmd.OutOrStdout(), &query, format))
		},
	}
	query.Register(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", util.FormatTable,
		"output format (table, json, yaml)")
	return cmd
}

//nolint:whitespace // editor/linter issue
func listDrivers(
	ctx context.Context,
	w io.Writer,
	query *util.QueryFlags,
	format string,
) error {
	q, err := query.Query()
	if err != nil {
		return err
	}
	env, err := util.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	h, drivers, err := env.Service.Drivers(ctx, q)
	if err != nil {
		return err
	}
	if format != util.FormatTable {
		return util.Render(w, format, struct {
			Session model.SessionHandle `json:"session"`
			Drivers []model.DriverRef   `json:"drivers"`
		}{h, drivers})
	}
	fmt.Fprintf(w, "%s (key %s)\n", h, h.Key)
	WriteTable(w, drivers)
	return nil
}

func WriteTable(w io.Writer, drivers []model.DriverRef) {
	t := util.NewTable(w, "ID", "Driver", "Name", "Team")
	for _, d := range drivers {
		t.AppendRow([]any{d.ID, d.Label, d.FullName, d.Team})
	}
	t.Render()
}
