// Package server exposes finished analyses over HTTP.
//
// The server is read-only: analyses complete before it starts, and
// every endpoint answers from the finished stores, so handlers need no
// locking.
package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sparkqual/sparkqual/pkg/analysis"
	"github.com/sparkqual/sparkqual/pkg/report"
	"github.com/sparkqual/sparkqual/pkg/store"
)

// Server serves report queries for a set of analyzed applications.
type Server struct {
	host     string
	port     int
	version  string
	sessions []*analysis.Session
	byIndex  map[int]*analysis.Session
	handler  http.Handler
}

// New builds a server over the given finished sessions.
func New(host string, port int, version string, sessions []*analysis.Session) *Server {
	s := &Server{host: host, port: port, version: version, sessions: sessions}

	// Sessions are addressed by their assigned application index, which
	// may be sparse when some applications in a batch failed.
	s.byIndex = make(map[int]*analysis.Session, len(sessions))
	for _, sess := range sessions {
		s.byIndex[sess.Store.AppIndex] = sess
	}

	s.handler = s.routes()
	return s
}

func (s *Server) Host() string { return s.host }
func (s *Server) Port() int    { return s.port }

// Addr returns the host:port listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/api/applications", s.handleApplications)
	r.Get("/api/applications/{index}/reports/{name}", s.handleReport)

	return r
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status       string `json:"status"`
	Applications int    `json:"applications"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "healthy",
		Applications: len(s.sessions),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// ApplicationSummary is one entry in the /api/applications listing.
type ApplicationSummary struct {
	AppIndex int    `json:"app_index"`
	AppID    string `json:"app_id"`
	AppName  string `json:"app_name"`
	Source   string `json:"source"`
}

func (s *Server) handleApplications(w http.ResponseWriter, _ *http.Request) {
	out := make([]ApplicationSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sum := ApplicationSummary{
			AppIndex: sess.Store.AppIndex,
			Source:   sess.SourceName,
		}
		if app := sess.Store.App; app != nil {
			sum.AppID = app.AppID
			sum.AppName = app.AppName
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

// reportFuncs maps URL report names to query functions.
var reportFuncs = map[string]func(*store.Store) report.Result{
	"application":            report.ApplicationInfo,
	"executors":              report.ExecutorInfo,
	"jobs":                   report.JobMapping,
	"sql-plan-metrics":       report.SQLPlanMetrics,
	"failed-tasks":           report.FailedTasks,
	"failed-stages":          report.FailedStages,
	"failed-jobs":            report.FailedJobs,
	"removed-executors":      report.RemovedExecutors,
	"removed-block-managers": report.RemovedBlockManagers,
	"unsupported-nodes":      report.UnsupportedNodes,
	"shuffle-skew":           report.ShuffleSkew,
	"job-aggregates":         report.JobAggregates,
	"stage-aggregates":       report.StageAggregates,
	"sql-aggregates":         report.SQLAggregates,
	"qualification":          report.QualificationSummary,
}

// reportDoc is the JSON shape of one rendered report.
type reportDoc struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	NoData  bool       `json:"no_data"`
}

func (s *Server) handleReport(w http.ResponseWriter, req *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(req, "index"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown application index")
		return
	}
	sess, ok := s.byIndex[idx]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown application index")
		return
	}

	name := chi.URLParam(req, "name")
	if name == "properties" {
		s.handleProperties(w, req, sess)
		return
	}
	fn, ok := reportFuncs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown report "+name)
		return
	}

	res := fn(sess.Store)
	writeJSON(w, http.StatusOK, reportDoc{
		Name:    name,
		Columns: res.Columns,
		Rows:    res.Rows,
		NoData:  res.Empty(),
	})
}

// handleProperties serves the property listing, narrowed by the
// optional ?source= and ?key= (glob) query parameters.
func (s *Server) handleProperties(w http.ResponseWriter, req *http.Request, sess *analysis.Session) {
	filter := report.PropertyFilter{
		Source:  req.URL.Query().Get("source"),
		KeyGlob: req.URL.Query().Get("key"),
	}
	res, err := report.Properties(sess.Store, filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reportDoc{
		Name:    "properties",
		Columns: res.Columns,
		Rows:    res.Rows,
		NoData:  res.Empty(),
	})
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
