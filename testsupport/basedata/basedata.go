// Package basedata provides a small 2023 archive used by the tests of all backends.
//
// Race (Monza): VER and SAI have valid laps and car data, LEC has no valid lap,
// HAM has a valid lap but no car data.
package basedata

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository/sqlite"
)

const (
	MonzaRaceID       int64 = 9141
	MonzaQualifyingID int64 = 9140
	ZandvoortRaceID   int64 = 9100
)

// DriverNumbers maps the driver codes to the numbers used by the REST API
var DriverNumbers = map[string]string{
	"VER": "1",
	"SAI": "55",
	"LEC": "16",
	"HAM": "44",
}

type Archive struct {
	Sessions []*repository.Session
	Laps     map[int64][]*repository.Lap
	CarData  map[int64]map[string][]*repository.CarData
}

func ptr(v float64) *float64 { return &v }

func TestTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func MonzaRaceStart() time.Time {
	return TestTime("2023-09-03T13:00:00Z")
}

//nolint:funlen // fixture data
func SampleArchive() *Archive {
	return &Archive{
		Sessions: []*repository.Session{
			{
				ID: ZandvoortRaceID, Season: 2023, EventName: "Dutch Grand Prix",
				CircuitName: "Zandvoort", TypeCode: "R", Label: "Race",
				DateStart: TestTime("2023-08-27T13:00:00Z"),
			},
			{
				ID: MonzaQualifyingID, Season: 2023, EventName: "Italian Grand Prix",
				CircuitName: "Monza", TypeCode: "Q", Label: "Qualifying",
				DateStart: TestTime("2023-09-02T14:00:00Z"),
			},
			{
				ID: MonzaRaceID, Season: 2023, EventName: "Italian Grand Prix",
				CircuitName: "Monza", TypeCode: "R", Label: "Race",
				DateStart: MonzaRaceStart(),
			},
		},
		Laps: map[int64][]*repository.Lap{
			MonzaRaceID: {
				{Driver: "VER", LapNumber: 1, LapStart: ptr(10), LapTime: ptr(88.5)},
				// lap 2 and 3 tie, lap 2 is the fastest
				{Driver: "VER", LapNumber: 2, LapStart: ptr(98.5), LapTime: ptr(85.25)},
				{Driver: "VER", LapNumber: 3, LapStart: ptr(183.75), LapTime: ptr(85.25)},
				{Driver: "VER", LapNumber: 4, LapStart: ptr(269)},
				{Driver: "SAI", LapNumber: 1, LapStart: ptr(10), LapTime: ptr(89)},
				{Driver: "SAI", LapNumber: 2, LapStart: ptr(99), LapTime: ptr(86), Deleted: true},
				{Driver: "SAI", LapNumber: 3, LapStart: ptr(185), LapTime: ptr(86.5)},
				{Driver: "LEC", LapNumber: 1, LapStart: ptr(10), LapTime: ptr(90), PitOut: true},
				{Driver: "LEC", LapNumber: 2, LapStart: ptr(100), LapTime: ptr(85), Deleted: true},
				{Driver: "HAM", LapNumber: 1, LapStart: ptr(10), LapTime: ptr(87)},
			},
			MonzaQualifyingID: {
				{Driver: "VER", LapNumber: 1, LapStart: ptr(60), LapTime: ptr(80.3)},
			},
		},
		CarData: map[int64]map[string][]*repository.CarData{
			MonzaRaceID: {
				"VER": {
					{SessionTime: 50, Distance: ptr(400), Speed: ptr(250), Gear: ptr(6)},
					{
						SessionTime: 98.5, Distance: ptr(1000), Speed: ptr(320),
						Throttle: ptr(100), Brake: ptr(0), RPM: ptr(11800), Gear: ptr(8),
					},
					{
						SessionTime: 120, Distance: ptr(1600), Speed: ptr(150),
						Throttle: ptr(0), Brake: ptr(100), RPM: ptr(9000), Gear: ptr(3),
					},
					{
						SessionTime: 150, Distance: ptr(2500), Speed: ptr(280),
						Throttle: ptr(90), Brake: ptr(0), RPM: ptr(11000),
					},
					{SessionTime: 183.75, Distance: ptr(3200), Speed: ptr(330), Gear: ptr(8)},
				},
				"SAI": {
					{SessionTime: 185, Speed: ptr(300), Throttle: ptr(100), Gear: ptr(8)},
					{SessionTime: 200, Speed: ptr(306), Throttle: ptr(100), Gear: ptr(8)},
					{SessionTime: 230, Throttle: ptr(20), Gear: ptr(4)},
					{SessionTime: 260, Speed: ptr(288), Throttle: ptr(80), Gear: ptr(7)},
					{SessionTime: 272, Speed: ptr(310), Gear: ptr(8)},
				},
				"LEC": {
					{SessionTime: 20, Speed: ptr(200)},
				},
			},
		},
	}
}

// InsertSQLite writes the archive into a migrated sqlite database
func (a *Archive) InsertSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	//nolint:errcheck // no-op after commit
	defer tx.Rollback()
	for _, s := range a.Sessions {
		if _, err := tx.ExecContext(ctx,
			"insert into session values (?,?,?,?,?,?,?)",
			s.ID, s.Season, s.EventName, s.CircuitName, s.TypeCode, s.Label,
			sqlite.FormatTime(s.DateStart)); err != nil {
			return err
		}
	}
	for id, laps := range a.Laps {
		for _, l := range laps {
			if _, err := tx.ExecContext(ctx,
				"insert into lap values (?,?,?,?,?,?,?)",
				id, l.Driver, l.LapNumber, l.LapStart, l.LapTime,
				l.PitOut, l.Deleted); err != nil {
				return err
			}
		}
	}
	for id, drivers := range a.CarData {
		for driver, data := range drivers {
			for _, d := range data {
				if _, err := tx.ExecContext(ctx,
					"insert into car_data values (?,?,?,?,?,?,?,?,?)",
					id, driver, d.SessionTime, d.Distance, d.Speed, d.Throttle,
					d.Brake, d.RPM, d.Gear); err != nil {
					return err
				}
			}
		}
	}
	return tx.Commit()
}

// InsertPostgres writes the archive into a migrated postgres database
func (a *Archive) InsertPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, s := range a.Sessions {
			if _, err := tx.Exec(ctx,
				"insert into session values ($1,$2,$3,$4,$5,$6,$7)",
				s.ID, s.Season, s.EventName, s.CircuitName, s.TypeCode, s.Label,
				s.DateStart); err != nil {
				return err
			}
		}
		for id, laps := range a.Laps {
			for _, l := range laps {
				if _, err := tx.Exec(ctx,
					"insert into lap values ($1,$2,$3,$4,$5,$6,$7)",
					id, l.Driver, l.LapNumber, l.LapStart, l.LapTime,
					l.PitOut, l.Deleted); err != nil {
					return err
				}
			}
		}
		for id, drivers := range a.CarData {
			for driver, data := range drivers {
				for _, d := range data {
					if _, err := tx.Exec(ctx,
						"insert into car_data values ($1,$2,$3,$4,$5,$6,$7,$8,$9)",
						id, driver, d.SessionTime, d.Distance, d.Speed, d.Throttle,
						d.Brake, d.RPM, d.Gear); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func CreateSampleArchive(pool *pgxpool.Pool) *Archive {
	a := SampleArchive()
	if err := a.InsertPostgres(context.Background(), pool); err != nil {
		log.Fatalf("createSampleArchive: %v\n", err)
	}
	return a
}
