package sessions

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

func NewSessionsCmd() *cobra.Command {
	var year int
	var format string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "lists the sessions of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.ReportError(cmd, listSessions(cmd.Context(), cmd.OutOrStdout(), year, format))
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season to list")
	cmd.Flags().StringVarP(&format, "output", "o", util.FormatTable,
		"output format (table, json, yaml)")
	return cmd
}

func listSessions(ctx context.Context, w io.Writer, year int, format string) error {
	env, err := util.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	sessions, err := env.Service.Sessions(ctx, year)
	if err != nil {
		return err
	}
	if format != util.FormatTable {
		return util.Render(w, format, sessions)
	}
	WriteTable(w, sessions)
	return nil
}

func WriteTable(w io.Writer, sessions []model.SessionHandle) {
	t := util.NewTable(w, "Key", "Date", "Event", "Circuit", "Session", "Type")
	for _, s := range sessions {
		t.AppendRow([]any{
			s.Key,
			s.DateStart.Format(time.DateOnly),
			s.EventName,
			s.CircuitName,
			s.Label,
			s.Type.Code(),
		})
	}
	t.Render()
}
