// Package fakeopenf1 serves the sample archive through the endpoints of the
// OpenF1 REST API.
package fakeopenf1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/repository"
	"github.com/mpapenbr/f1-telemetry-lab/testsupport/basedata"
)

type (
	row = map[string]any

	Server struct {
		*httptest.Server
		archive *basedata.Archive

		mu     sync.Mutex
		hits   map[string]int
		status map[string]int
		raw    map[string]string
	}
)

func New(archive *basedata.Archive) *Server {
	s := &Server{
		archive: archive,
		hits:    map[string]int{},
		status:  map[string]int{},
		raw:     map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", s.handle("sessions", s.sessions))
	mux.HandleFunc("/v1/drivers", s.handle("drivers", s.drivers))
	mux.HandleFunc("/v1/car_data", s.handle("car_data", s.carData))
	mux.HandleFunc("/v1/laps", s.handle("laps", s.laps))
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL is the value for openf1.WithBaseURL
func (s *Server) BaseURL() string {
	return s.URL + "/v1"
}

// Hits returns the number of requests received for endpoint
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// FailWith lets endpoint answer with status code. 0 restores normal operation.
func (s *Server) FailWith(endpoint string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[endpoint] = code
}

// RespondWith lets endpoint answer with body instead of the archive data
func (s *Server) RespondWith(endpoint, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[endpoint] = body
}

func (s *Server) handle(endpoint string, data func(q urlQuery) []row) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[endpoint]++
		code := s.status[endpoint]
		raw, hasRaw := s.raw[endpoint]
		s.mu.Unlock()

		if code != 0 {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if hasRaw {
			//nolint:errcheck // test server
			w.Write([]byte(raw))
			return
		}
		//nolint:errcheck // test server
		json.NewEncoder(w).Encode(data(r.URL.Query().Get))
	}
}

type urlQuery func(key string) string

func (s *Server) session(q urlQuery) *repository.Session {
	for _, item := range s.archive.Sessions {
		if strconv.FormatInt(item.ID, 10) == q("session_key") {
			return item
		}
	}
	return nil
}

func driverCode(number string) string {
	for code, num := range basedata.DriverNumbers {
		if num == number {
			return code
		}
	}
	return ""
}

func (s *Server) sessions(q urlQuery) []row {
	ret := make([]row, 0)
	for _, item := range s.archive.Sessions {
		if strconv.Itoa(item.Season) != q("year") {
			continue
		}
		ret = append(ret, row{
			"session_key":        item.ID,
			"session_name":       item.Label,
			"meeting_name":       item.EventName,
			"circuit_short_name": item.CircuitName,
			"location":           item.CircuitName,
			"country_name":       "",
			"date_start":         item.DateStart.Format("2006-01-02T15:04:05-07:00"),
			"year":               item.Season,
		})
	}
	return ret
}

func (s *Server) drivers(q urlQuery) []row {
	ret := make([]row, 0)
	sess := s.session(q)
	if sess == nil {
		return ret
	}
	seen := map[string]bool{}
	for _, l := range s.archive.Laps[sess.ID] {
		if seen[l.Driver] {
			continue
		}
		seen[l.Driver] = true
		num, _ := strconv.Atoi(basedata.DriverNumbers[l.Driver])
		ret = append(ret, row{
			"driver_number": num,
			"name_acronym":  l.Driver,
			"full_name":     "",
			"team_name":     "",
		})
	}
	return ret
}

func (s *Server) laps(q urlQuery) []row {
	ret := make([]row, 0)
	sess := s.session(q)
	if sess == nil {
		return ret
	}
	code := driverCode(q("driver_number"))
	for _, l := range s.archive.Laps[sess.ID] {
		if l.Driver != code || l.Deleted {
			continue
		}
		item := row{
			"lap_number":     l.LapNumber,
			"date_start":     nil,
			"lap_duration":   nil,
			"is_pit_out_lap": l.PitOut,
		}
		if l.LapStart != nil {
			item["date_start"] = isoTime(sess.DateStart, *l.LapStart)
		}
		if l.LapTime != nil {
			item["lap_duration"] = *l.LapTime
		}
		ret = append(ret, item)
	}
	return ret
}

func (s *Server) carData(q urlQuery) []row {
	ret := make([]row, 0)
	sess := s.session(q)
	if sess == nil {
		return ret
	}
	for _, d := range s.archive.CarData[sess.ID][driverCode(q("driver_number"))] {
		ret = append(ret, row{
			"date":     isoTime(sess.DateStart, d.SessionTime),
			"speed":    d.Speed,
			"throttle": d.Throttle,
			"brake":    d.Brake,
			"rpm":      d.RPM,
			"n_gear":   d.Gear,
		})
	}
	return ret
}

func isoTime(start time.Time, secs float64) string {
	return start.Add(time.Duration(secs * float64(time.Second))).
		UTC().Format("2006-01-02T15:04:05.000000+00:00")
}
