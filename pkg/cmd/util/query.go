package util

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
)

// QueryFlags holds the flags addressing a session
type QueryFlags struct {
	Season int
	Event  string
	Type   string
	Key    string
}

func (f *QueryFlags) Register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Season, "season", 0, "season (year) of the session")
	cmd.Flags().StringVar(&f.Event, "event", "",
		"event, circuit, location or country of the session")
	cmd.Flags().StringVar(&f.Type, "type", "R", "session type (R, Q, FP1, FP2, FP3)")
	cmd.Flags().StringVar(&f.Key, "key", "", "backend session key (instead of --event)")
	cmd.MarkFlagsMutuallyExclusive("event", "key")
}

// Query builds the session query. Validation is left to the resolver.
func (f *QueryFlags) Query() (model.SessionQuery, error) {
	if f.Key != "" {
		return model.NewKeyQuery(f.Season, f.Key), nil
	}
	typ, err := model.ParseSessionType(f.Type)
	if err != nil {
		return model.SessionQuery{}, fmt.Errorf("%w: %w", model.ErrInvalidQuery, err)
	}
	return model.NewEventQuery(f.Season, f.Event, typ), nil
}
