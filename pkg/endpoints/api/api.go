// Package api provides the read-only HTTP JSON endpoints.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/chart"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/compare"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/version"
)

const RequestIDHeader = "X-Request-Id"

type Option func(*Server)

func WithLogger(arg *log.Logger) Option {
	return func(s *Server) {
		s.log = arg
	}
}

type Server struct {
	service *compare.Service
	log     *log.Logger
	router  *mux.Router
}

var _ http.Handler = (*Server)(nil)

func NewServer(service *compare.Service, opts ...Option) *Server {
	ret := &Server{
		service: service,
		log:     log.Default().Named("api"),
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.router.Use(ret.requestLogger)
	ret.router.HandleFunc("/healthz", ret.health).Methods(http.MethodGet)
	sub := ret.router.PathPrefix("/api").Subrouter()
	sub.HandleFunc("/sessions", ret.sessions).Methods(http.MethodGet)
	sub.HandleFunc("/session", ret.session).Methods(http.MethodGet)
	sub.HandleFunc("/drivers", ret.drivers).Methods(http.MethodGet)
	sub.HandleFunc("/compare", ret.compare).Methods(http.MethodGet)
	return ret
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger assigns a request id and logs the request once it is done.
// Handlers find the request logger in the request context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		l := s.log.With(log.String("requestId", id))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(log.AddToContext(r.Context(), l)))
		l.Info("request",
			log.String("method", r.Method),
			log.String("uri", r.URL.RequestURI()),
			log.Int("status", rec.status),
			log.Duration("duration", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := s.service.Sessions(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ret)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	q, err := sessionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := s.service.Session(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ret)
}

type driversResponse struct {
	Session model.SessionHandle `json:"session"`
	Drivers []model.DriverRef   `json:"drivers"`
}

func (s *Server) drivers(w http.ResponseWriter, r *http.Request) {
	q, err := sessionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h, drivers, err := s.service.Drivers(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, driversResponse{Session: h, Drivers: drivers})
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	q, err := sessionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params := r.URL.Query()
	mode, err := model.ParseMode(params.Get("mode"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", model.ErrInvalidQuery, err))
		return
	}
	channels, err := chart.ParseChannels(params["channels"]...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.service.Compare(r.Context(), compare.Request{
		Query:   q,
		DriverA: params.Get("a"),
		DriverB: params.Get("b"),
		Mode:    mode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := compare.NewReport(res, channels...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// sessionQuery reads season plus either event and type or key
func sessionQuery(r *http.Request) (model.SessionQuery, error) {
	season, err := intParam(r, "season")
	if err != nil {
		return model.SessionQuery{}, err
	}
	params := r.URL.Query()
	if key := params.Get("key"); key != "" {
		if params.Get("event") != "" {
			return model.SessionQuery{}, fmt.Errorf("%w: use either event or key",
				model.ErrInvalidQuery)
		}
		return model.NewKeyQuery(season, key), nil
	}
	typeParam := params.Get("type")
	if typeParam == "" {
		typeParam = "R"
	}
	typ, err := model.ParseSessionType(typeParam)
	if err != nil {
		return model.SessionQuery{}, fmt.Errorf("%w: %w", model.ErrInvalidQuery, err)
	}
	return model.NewEventQuery(season, params.Get("event"), typ), nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%w: parameter %s required", model.ErrInvalidQuery, name)
	}
	ret, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %s: %q is not a number",
			model.ErrInvalidQuery, name, v)
	}
	return ret, nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ue := compare.Describe(err)
	status := ue.Kind.HTTPStatus()
	l := log.GetFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		l.Warn("request failed", log.String("kind", string(ue.Kind)), log.ErrorField(err))
	} else {
		l.Debug("request failed", log.String("kind", string(ue.Kind)), log.ErrorField(err))
	}
	writeJSON(w, r, status, ue)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.GetFromContext(r.Context()).Warn("could not write response", log.ErrorField(err))
	}
}
