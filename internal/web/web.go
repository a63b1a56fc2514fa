package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"hirecal/internal/config"
	"hirecal/internal/ics"
	appLog "hirecal/internal/log"
	"hirecal/internal/model"
	"hirecal/internal/schedule"
	"hirecal/internal/store"
)

// Server exposes the interview schedule over a JSON API: the three
// materialized calendar views, event creation and cancellation, and an
// iCalendar export of the displayed month.
type Server struct {
	cfg    *config.Config
	events *store.Store
	mux    *http.ServeMux

	// cursor is the server-side navigation state: displayed month and
	// year plus the selected day. Grid requests without explicit
	// parameters are resolved against it.
	cursorMu  sync.Mutex
	cursor    schedule.Cursor
	cursorSet bool

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewServer constructs a Server over the given store.
func NewServer(cfg *config.Config, events *store.Store) *Server {
	s := &Server{
		cfg:    cfg,
		events: events,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware protects every endpoint except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="hirecal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/grid/month", s.handleMonthGrid)
	s.mux.HandleFunc("GET /api/grid/week", s.handleWeekGrid)
	s.mux.HandleFunc("GET /api/grid/day", s.handleDayGrid)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("POST /api/events/cancel", s.handleCancelEvent)
	s.mux.HandleFunc("GET /api/cursor", s.handleCursor)
	s.mux.HandleFunc("POST /api/cursor/next", s.handleCursorNext)
	s.mux.HandleFunc("POST /api/cursor/prev", s.handleCursorPrev)
	s.mux.HandleFunc("POST /api/cursor/select", s.handleCursorSelect)
	s.mux.HandleFunc("GET /calendar.ics", s.handleExport)
}

// ensureCursorLocked lazily initializes the cursor on today's date.
// Caller must hold cursorMu.
func (s *Server) ensureCursorLocked() {
	if !s.cursorSet {
		s.cursor = schedule.NewCursor(s.now().In(s.cfg.Location()))
		s.cursorSet = true
	}
}

func (s *Server) cursorState() schedule.Cursor {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	s.ensureCursorLocked()
	return s.cursor
}

func (s *Server) handleCursor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cursorState())
}

func (s *Server) handleCursorNext(w http.ResponseWriter, _ *http.Request) {
	s.cursorMu.Lock()
	s.ensureCursorLocked()
	s.cursor.NextMonth()
	c := s.cursor
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCursorPrev(w http.ResponseWriter, _ *http.Request) {
	s.cursorMu.Lock()
	s.ensureCursorLocked()
	s.cursor.PrevMonth()
	c := s.cursor
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, c)
}

// handleCursorSelect sets the selected day without changing the
// displayed month.
//
// POST /api/cursor/select?day=15
func (s *Server) handleCursorSelect(w http.ResponseWriter, r *http.Request) {
	day := parseIntDefault(r.URL.Query().Get("day"), 0)
	if day < 1 || day > store.MaxDay {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}

	s.cursorMu.Lock()
	s.ensureCursorLocked()
	s.cursor.SelectDay(day)
	c := s.cursor
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// monthGridResponse is the JSON shape of the month view: a flat cell
// sequence (null for the leading blanks before the 1st) that the client
// wraps into a 7-column grid.
type monthGridResponse struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	WeekStart string           `json:"week_start"`
	Cells     []*schedule.Cell `json:"cells"`
}

// handleMonthGrid materializes the month view.
//
// GET /api/grid/month?year=2024&month=3
// Missing parameters default to the current month.
func (s *Server) handleMonthGrid(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.yearMonth(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	cells := schedule.MonthView(s.events.Snapshot(), year, month, s.cfg.WeekStartDay())
	writeJSON(w, http.StatusOK, monthGridResponse{
		Year:      year,
		Month:     int(month),
		WeekStart: s.cfg.WeekStart,
		Cells:     cells,
	})
}

type weekGridResponse struct {
	Start time.Time          `json:"start"`
	Days  []schedule.WeekDay `json:"days"`
}

// handleWeekGrid materializes the 7x24 week matrix around a reference
// date.
//
// GET /api/grid/week?date=2024-03-15
func (s *Server) handleWeekGrid(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.refDate(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	week := schedule.WeekView(s.events.Snapshot(), ref, s.cfg.WeekStartDay())
	writeJSON(w, http.StatusOK, weekGridResponse{
		Start: week[0].Date,
		Days:  week[:],
	})
}

type dayGridResponse struct {
	Date  string                    `json:"date"`
	Slots [][]schedule.VisibleEvent `json:"slots"`
}

// handleDayGrid materializes the 24-slot agenda for a single day.
//
// GET /api/grid/day?date=2024-03-15
func (s *Server) handleDayGrid(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.refDate(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	slots := schedule.DayView(s.events.Snapshot(), ref)
	writeJSON(w, http.StatusOK, dayGridResponse{
		Date:  ref.Format(model.DateLayout),
		Slots: slots[:],
	})
}

// addEventRequest is the creation payload. Day is the day-of-month
// bucket; it may be omitted when Date is set.
type addEventRequest struct {
	Day   int         `json:"day"`
	Event model.Event `json:"event"`
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ev, err := s.events.Add(req.Day, req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Info("event added", "event_id", ev.ID, "candidate", ev.CandidateName)
	writeJSON(w, http.StatusCreated, ev)
}

// handleCancelEvent flips the event to cancelled. The response reflects
// the status flip immediately; the store removes the event after the
// grace period. Repeat cancels are no-ops.
//
// POST /api/events/cancel?id=<event-id>
func (s *Server) handleCancelEvent(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := s.events.Cancel(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	appLog.Info("event cancelled", "event_id", id)

	ev, _ := s.events.Find(id)
	writeJSON(w, http.StatusOK, ev)
}

// handleExport serves the displayed month as iCalendar.
//
// GET /calendar.ics?year=2024&month=3
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.yearMonth(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	payload := ics.ExportMonth(s.events.Snapshot(), year, month, s.cfg.Location())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="interviews.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

// yearMonth reads year/month query parameters (month 1..12), defaulting
// to the cursor's displayed month.
func (s *Server) yearMonth(r *http.Request) (int, time.Month, bool) {
	c := s.cursorState()
	q := r.URL.Query()

	year := parseIntDefault(q.Get("year"), c.Year)
	monthN := parseIntDefault(q.Get("month"), int(c.Month))
	if year < 1 || monthN < 1 || monthN > 12 {
		return 0, 0, false
	}
	return year, time.Month(monthN), true
}

// refDate reads the date query parameter, defaulting to the cursor's
// selected day.
func (s *Server) refDate(r *http.Request) (time.Time, bool) {
	loc := s.cfg.Location()
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.cursorState().Reference(loc), true
	}
	t, err := time.ParseInLocation(model.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
