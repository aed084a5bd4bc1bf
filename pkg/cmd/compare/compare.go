package compare

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/chart"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/util"
	comparesvc "github.com/mpapenbr/f1-telemetry-lab/pkg/compare"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

type options struct {
	query    util.QueryFlags
	driverA  string
	driverB  string
	mode     string
	channels []string
	format   string
}

func NewCompareCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "compares the telemetry of two drivers",
		Example: `  ftl compare --season 2023 --event Monza --type R --driver-a VER --driver-b SAI
  ftl compare --season 2023 --key 9141 --driver-a 1 --driver-b 55 --mode session -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.ReportError(cmd, run(cmd.Context(), cmd.OutOrStdout(), opts))
		},
	}
	opts.query.Register(cmd)
	cmd.Flags().StringVarP(&opts.driverA, "driver-a", "a", "", "first driver (id or code)")
	cmd.Flags().StringVarP(&opts.driverB, "driver-b", "b", "", "second driver (id or code)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(model.ModeDefault),
		"lap (fastest lap, distance axis), session (whole session, time axis) or default")
	cmd.Flags().StringSliceVar(&opts.channels, "channels", nil,
		"channels to compare (speed, throttle, brake, rpm, gear). Default: all")
	cmd.Flags().StringVarP(&opts.format, "output", "o", util.FormatTable,
		"output format (table, json, yaml)")
	_ = cmd.MarkFlagRequired("driver-a")
	_ = cmd.MarkFlagRequired("driver-b")
	return cmd
}

func run(ctx context.Context, w io.Writer, opts *options) error {
	req, channels, err := opts.request()
	if err != nil {
		return err
	}
	env, err := util.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.Service.Compare(ctx, req)
	if err != nil {
		return err
	}
	rep, err := comparesvc.NewReport(res, channels...)
	if err != nil {
		return err
	}
	if opts.format != util.FormatTable {
		return util.Render(w, opts.format, rep)
	}
	WriteSummary(w, rep)
	return nil
}

func (o *options) request() (comparesvc.Request, []model.Channel, error) {
	q, err := o.query.Query()
	if err != nil {
		return comparesvc.Request{}, nil, err
	}
	mode, err := model.ParseMode(o.mode)
	if err != nil {
		return comparesvc.Request{}, nil, fmt.Errorf("%w: %w", model.ErrInvalidQuery, err)
	}
	channels, err := chart.ParseChannels(o.channels...)
	if err != nil {
		return comparesvc.Request{}, nil, err
	}
	return comparesvc.Request{Query: q, DriverA: o.driverA, DriverB: o.driverB, Mode: mode},
		channels, nil
}

// WriteSummary prints the lap summary and the channel statistics of both drivers
func WriteSummary(w io.Writer, rep *comparesvc.Report) {
	fmt.Fprintf(w, "%s (key %s), mode %s\n", rep.Session, rep.Session.Key, rep.Mode)
	laps := util.NewTable(w, "Driver", "Lap", "Lap time", "Samples")
	for _, d := range rep.Drivers {
		lap, lapTime := "-", "-"
		if d.Lap != nil {
			lap = fmt.Sprintf("%d", d.Lap.Number)
			lapTime = d.Lap.LapTime
		}
		laps.AppendRow([]any{d.Driver.DisplayName(), lap, lapTime, d.Samples})
	}
	laps.Render()

	stats := util.NewTable(w, "Channel", "Driver", "Values", "Min", "Max", "Mean")
	for _, c := range rep.Charts {
		for _, s := range c.Series {
			st := s.Stats()
			stats.AppendRow([]any{
				c.YTitle, s.Name, st.Count,
				fmt.Sprintf("%.1f", st.Min),
				fmt.Sprintf("%.1f", st.Max),
				fmt.Sprintf("%.1f", st.Mean),
			})
		}
		stats.AppendSeparator()
	}
	stats.Render()
}
