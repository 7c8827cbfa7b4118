// Package server exposes the latest stored dataset over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"companydash/cache"
	"companydash/finance"
	"companydash/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Source provides the dataset the API serves.
type Source interface {
	Latest(ctx context.Context) (*finance.Dataset, error)
}

// Server serves the dataset API.
type Server struct {
	src Source
	// rdb memoizes rendered workbooks; nil renders on every request.
	rdb    redis.Cmdable
	ttl    time.Duration
	router *mux.Router
}

// New returns a server reading from src.
func New(src Source, rdb redis.Cmdable, ttl time.Duration) *Server {
	s := &Server{src: src, rdb: rdb, ttl: ttl, router: mux.NewRouter()}
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/dataset", s.handleDataset).Methods(http.MethodGet)
	s.router.HandleFunc("/companies", s.handleCompanies).Methods(http.MethodGet)
	s.router.HandleFunc("/companies/{name}", s.handleCompany).Methods(http.MethodGet)
	s.router.HandleFunc("/workbook", s.handleWorkbook).Methods(http.MethodGet)
	return s
}

// Handler returns the router wrapped in recovery, access logging and compression.
func (s *Server) Handler() http.Handler {
	logOut := zap.NewStdLog(zap.L())
	var h http.Handler = s.router
	h = Encode(h)
	h = handlers.CombinedLoggingHandler(logOut.Writer(), h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(logOut), handlers.PrintRecoveryStack(true))(h)
	return h
}

// ListenAndServe serves on port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type companiesResponse struct {
	RunID     string    `json:"runId"`
	Finished  time.Time `json:"finishedAt"`
	Companies []string  `json:"companies"`
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, companiesResponse{
		RunID:     ds.RunID,
		Finished:  ds.FinishedAt,
		Companies: ds.Names(),
	})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" {
		http.Error(w, "Company name is required", http.StatusBadRequest)
		return
	}

	ds, ok := s.latest(w, r)
	if !ok {
		return
	}
	rec, found := ds.Find(name)
	if !found {
		http.Error(w, fmt.Sprintf("Company %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.latest(w, r)
	if !ok {
		return
	}

	render := func() ([]byte, error) {
		var buf bytes.Buffer
		if err := workbook.Write(*ds, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var (
		body []byte
		err  error
	)
	if s.rdb != nil {
		body, err = cache.Memoize(r.Context(), s.rdb, "companydash:workbook:"+ds.RunID, s.ttl, render)
	} else {
		body, err = render()
	}
	if err != nil {
		zap.L().Error("render workbook", zap.String("run_id", ds.RunID), zap.Error(err))
		http.Error(w, "Error rendering workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workbook.Filename(ds.FinishedAt)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// latest loads the dataset or writes the error response.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*finance.Dataset, bool) {
	ds, err := s.src.Latest(r.Context())
	switch {
	case err == nil:
		return ds, true
	case errors.Is(err, cache.ErrNoSnapshot):
		http.Error(w, "No dataset has been collected yet", http.StatusNotFound)
	default:
		zap.L().Error("load dataset", zap.Error(err))
		http.Error(w, "Error loading dataset", http.StatusServiceUnavailable)
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonData, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		http.Error(w, "Error marshaling to JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonData)
}
