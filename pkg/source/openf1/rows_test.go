package openf1

import (
	"errors"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/google/go-cmp/cmp"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

func TestDecodeSessions(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []api.SessionRow
		wantErr error
	}{
		{
			name: "full row",
			body: `[{"session_key":9141,"session_name":"Race","meeting_name":"Italian Grand Prix",
				"circuit_short_name":"Monza","location":"Monza","country_name":"Italy",
				"date_start":"2023-09-03T13:00:00+00:00","year":2023}]`,
			want: []api.SessionRow{{
				Key: "9141", Season: 2023, EventName: "Italian Grand Prix",
				CircuitName: "Monza", Location: "Monza", CountryName: "Italy",
				Label: "Race", Type: model.STRace,
				DateStart: time.Date(2023, 9, 3, 13, 0, 0, 0, time.UTC),
			}},
		},
		{
			name: "season from date, sprint is unknown",
			body: `[{"session_key":"9139","session_name":"Sprint",
				"date_start":"2023-07-29T14:30:00"}]`,
			want: []api.SessionRow{{
				Key: "9139", Season: 2023, Label: "Sprint", Type: model.STUnknown,
				DateStart: time.Date(2023, 7, 29, 14, 30, 0, 0, time.UTC),
			}},
		},
		{name: "empty array", body: `[]`, wantErr: api.ErrEmptyResult},
		{name: "not json", body: `<html>`, wantErr: api.ErrBadResponse},
		{name: "not tabular", body: `{"detail":"x"}`, wantErr: api.ErrBadResponse},
		{name: "row not an object", body: `[1,2]`, wantErr: api.ErrBadResponse},
		{
			name:    "missing required field",
			body:    `[{"session_key":1,"session_name":"Race"}]`,
			wantErr: api.ErrBadResponse,
		},
		{
			name:    "invalid timestamp",
			body:    `[{"session_key":1,"session_name":"Race","date_start":"yesterday"}]`,
			wantErr: api.ErrBadResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRows([]byte(tt.body), sessionSchema)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("decodeRows() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("decodeRows() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeTelemetry(t *testing.T) {
	body := `[
		{"date":"2023-09-03T13:01:38.500000+00:00","speed":320,"throttle":100,
		 "brake":0,"rpm":11800,"n_gear":8},
		{"date":"2023-09-03T13:02:00+00:00","speed":null,"throttle":99.5,"gear":3}
	]`
	got, err := decodeRows([]byte(body), telemetrySchema)
	if err != nil {
		t.Fatalf("decodeRows() error = %v", err)
	}
	want := []api.TelemetryRow{
		{
			Date:     time.Date(2023, 9, 3, 13, 1, 38, 500000000, time.UTC),
			Speed:    null.From(320.0),
			Throttle: null.From(100.0),
			Brake:    null.From(0.0),
			RPM:      null.From(11800.0),
			Gear:     null.From(8.0),
		},
		{
			Date:     time.Date(2023, 9, 3, 13, 2, 0, 0, time.UTC),
			Throttle: null.From(99.5),
			Gear:     null.From(3.0),
		},
	}
	opt := cmp.AllowUnexported(null.Val[float64]{})
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("decodeRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLaps(t *testing.T) {
	body := `[
		{"lap_number":1,"date_start":null,"lap_duration":null,"is_pit_out_lap":true},
		{"lap_number":2,"date_start":"2023-09-03T13:01:38.5","lap_duration":85.25,
		 "is_pit_out_lap":false}
	]`
	got, err := decodeRows([]byte(body), lapSchema)
	if err != nil {
		t.Fatalf("decodeRows() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("decodeRows() got %d rows, want 2", len(got))
	}
	first := got[0].Record()
	if first.Number != 1 || first.Valid {
		t.Errorf("first lap = %+v, want invalid lap 1", first)
	}
	second := got[1].Record()
	want := model.LapRecord{
		Number:   2,
		Start:    time.Date(2023, 9, 3, 13, 1, 38, 500000000, time.UTC),
		Duration: 85250 * time.Millisecond,
		Valid:    true,
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("second lap mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "int", value: int64(44), want: "44"},
		{name: "integral float", value: 44.0, want: "44"},
		{name: "string", value: "abc", want: "abc"},
		{name: "fraction", value: 4.5, wantErr: true},
		{name: "largest exact float", value: float64(1 << 53), want: "9007199254740992"},
		{name: "float beyond exact range", value: 1e19, wantErr: true},
		{name: "negative float beyond exact range", value: -1e300, wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyString(rawRow{"k": tt.value}, "k")
			if (err != nil) != tt.wantErr {
				t.Fatalf("keyString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("keyString() = %v, want %v", got, tt.want)
			}
		})
	}
}
