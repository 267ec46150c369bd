// Package apitest runs an in-process fake of the remote event API for tests. It keeps
// accounts, events, RSVPs and reviews in memory and issues opaque tokens.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	evdomain "event-management/client/internal/events/domain"
	userdomain "event-management/client/internal/user/domain"
)

type account struct {
	user     userdomain.User
	password string
}

type fault struct {
	status int
	body   string
	times  int
}

// Server is the fake API. All exported methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	now      func() time.Time
	nextID   int
	accounts map[string]*account // by email
	byID     map[int]*account
	access   map[string]int // access token -> user id
	refresh  map[string]int
	events   map[int]*evdomain.Event
	rsvps    map[int]map[int]evdomain.RSVPStatus // event id -> user id -> status
	reviews  map[int][]reviewRow
	calls    map[string]int
	faults   map[string]*fault
	delays   map[string]time.Duration
	paginate bool
	rotate   bool
}

type reviewRow struct {
	eventID int
	userID  int
	review  evdomain.Review
}

// New starts a fake API and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		now:      func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
		accounts: make(map[string]*account),
		byID:     make(map[int]*account),
		access:   make(map[string]int),
		refresh:  make(map[string]int),
		events:   make(map[int]*evdomain.Event),
		rsvps:    make(map[int]map[int]evdomain.RSVPStatus),
		reviews:  make(map[int][]reviewRow),
		calls:    make(map[string]int),
		faults:   make(map[string]*fault),
		delays:   make(map[string]time.Duration),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", s.handleLogin)
	mux.HandleFunc("POST /auth/register/", s.handleRegister)
	mux.HandleFunc("POST /auth/logout/", s.handleLogout)
	mux.HandleFunc("POST /auth/token/refresh/", s.handleRefresh)
	mux.HandleFunc("GET /auth/profile/", s.handleGetProfile)
	mux.HandleFunc("PATCH /auth/profile/", s.handlePatchProfile)
	mux.HandleFunc("GET /events/", s.handleListEvents)
	mux.HandleFunc("POST /events/", s.handleCreateEvent)
	mux.HandleFunc("GET /events/{id}/", s.handleGetEvent)
	mux.HandleFunc("PATCH /events/{id}/", s.handleUpdateEvent)
	mux.HandleFunc("DELETE /events/{id}/", s.handleDeleteEvent)
	mux.HandleFunc("POST /events/{id}/rsvp/", s.handleRSVP)
	mux.HandleFunc("GET /events/{id}/reviews/", s.handleListReviews)
	mux.HandleFunc("POST /events/{id}/reviews/", s.handleCreateReview)
	mux.HandleFunc("PATCH /reviews/{id}/", s.handleUpdateReview)
	mux.HandleFunc("DELETE /reviews/{id}/", s.handleDeleteReview)
	mux.HandleFunc("GET /dashboard/", s.handleDashboard)
	return s.intercept(mux)
}

// intercept counts calls and applies injected delays and faults before routing.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		delay := s.delays[key]
		f := s.faults[key]
		var status int
		var body string
		if f != nil && f.times != 0 {
			status, body = f.status, f.body
			if f.times > 0 {
				f.times--
			}
		}
		s.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes the next times calls to "METHOD path" answer status with body. times < 0 fails forever.
func (s *Server) Fail(method, path string, status int, body string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = &fault{status: status, body: body, times: times}
}

// Delay holds every call to "METHOD path" for d before answering.
func (s *Server) Delay(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[method+" "+path] = d
}

// Calls returns how many requests "METHOD path" received.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Paginate switches list endpoints to the {"count","results"} envelope.
func (s *Server) Paginate(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paginate = on
}

// RotateRefresh makes the refresh endpoint issue a new refresh token with each exchange.
func (s *Server) RotateRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate = on
}

// ExpireAccessTokens invalidates every issued access token; refresh tokens keep working.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]int)
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]int)
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(email, password, fullName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	words := strings.Fields(fullName)
	u := userdomain.User{Username: email, Email: email}
	if len(words) > 0 {
		u.FirstName = words[0]
	}
	if len(words) > 1 {
		u.LastName = words[1]
	}
	return s.addAccountLocked(u, password, fullName).user.ID
}

func (s *Server) addAccountLocked(u userdomain.User, password, fullName string) *account {
	s.nextID++
	u.ID = s.nextID
	u.Profile = &userdomain.Profile{ID: u.ID, FullName: fullName}
	a := &account{user: u, password: password}
	s.accounts[u.Email] = a
	s.byID[u.ID] = a
	return a
}

// Issue returns a fresh token pair for userID, as a login would.
func (s *Server) Issue(userID int) userdomain.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

func (s *Server) issueLocked(userID int) userdomain.Tokens {
	s.nextID++
	t := userdomain.Tokens{
		Access:  fmt.Sprintf("access-%d-%d", userID, s.nextID),
		Refresh: fmt.Sprintf("refresh-%d-%d", userID, s.nextID),
	}
	s.access[t.Access] = userID
	s.refresh[t.Refresh] = userID
	return t
}

// AddEvent stores ev organized by organizerID and returns its id.
func (s *Server) AddEvent(organizerID int, ev evdomain.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev.ID = s.nextID
	ev.OrganizerID = organizerID
	if a := s.byID[organizerID]; a != nil {
		ev.Organizer = a.user.Username
	}
	ev.CreatedAt, ev.UpdatedAt = s.now(), s.now()
	s.events[ev.ID] = &ev
	return ev.ID
}

// Event returns the stored event, without viewer fields.
func (s *Server) Event(id int) (evdomain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return evdomain.Event{}, false
	}
	return *ev, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, key, msg string) {
	writeJSON(w, status, map[string]string{key: msg})
}

// viewer resolves the bearer token. ok is false when a token was sent but is not valid,
// in which case a 401 has been written.
func (s *Server) viewer(w http.ResponseWriter, r *http.Request) (userID int, ok bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return 0, true
	}
	tok := strings.TrimPrefix(h, "Bearer ")
	s.mu.Lock()
	id, found := s.access[tok]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Given token not valid for any token type",
			"code":   "token_not_valid",
		})
		return 0, false
	}
	return id, true
}

func (s *Server) requireViewer(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := s.viewer(w, r)
	if !ok {
		return 0, false
	}
	if id == 0 {
		writeError(w, http.StatusUnauthorized, "detail", "Authentication credentials were not provided.")
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "detail", "Not found.")
		return 0, false
	}
	return id, true
}

func (s *Server) list(w http.ResponseWriter, items any, n int) {
	s.mu.Lock()
	paginate := s.paginate
	s.mu.Unlock()
	if paginate {
		writeJSON(w, http.StatusOK, map[string]any{"count": n, "next": nil, "previous": nil, "results": items})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// viewEventLocked copies ev with the viewer-relative fields filled in.
func (s *Server) viewEventLocked(ev *evdomain.Event, viewerID int, detail bool) evdomain.Event {
	out := *ev
	out.AttendeeCount = 0
	for _, st := range s.rsvps[ev.ID] {
		if st == evdomain.RSVPGoing {
			out.AttendeeCount++
		}
	}
	out.UserRSVP = nil
	if st, ok := s.rsvps[ev.ID][viewerID]; ok && viewerID != 0 {
		st := st
		out.UserRSVP = &st
	}
	out.CanEdit = viewerID != 0 && viewerID == ev.OrganizerID
	out.Reviews, out.RSVPs = nil, nil
	if detail {
		out.Reviews = s.reviewsLocked(ev.ID, viewerID)
		out.RSVPs = []evdomain.RSVP{}
		for uid, st := range s.rsvps[ev.ID] {
			out.RSVPs = append(out.RSVPs, evdomain.RSVP{Event: ev.ID, User: s.byID[uid].user.Username, EventTitle: ev.Title, Status: st})
		}
		sort.Slice(out.RSVPs, func(i, j int) bool { return out.RSVPs[i].User < out.RSVPs[j].User })
	}
	return out
}

func (s *Server) visibleLocked(ev *evdomain.Event, viewerID int) bool {
	if ev.IsPublic || (viewerID != 0 && ev.OrganizerID == viewerID) {
		return true
	}
	_, rsvped := s.rsvps[ev.ID][viewerID]
	return viewerID != 0 && rsvped
}

func (s *Server) reviewsLocked(eventID, viewerID int) []evdomain.Review {
	out := []evdomain.Review{}
	rows := s.reviews[eventID]
	for i := len(rows) - 1; i >= 0; i-- {
		rv := rows[i].review
		rv.CanEdit = viewerID != 0 && rows[i].userID == viewerID
		out = append(out, rv)
	}
	return out
}
