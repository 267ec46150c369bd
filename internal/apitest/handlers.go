package apitest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	evdomain "event-management/client/internal/events/domain"
	userdomain "event-management/client/internal/user/domain"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "detail", "JSON parse error")
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[in.Email]
	if a == nil || a.password != in.Password {
		writeError(w, http.StatusBadRequest, "error", "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, userdomain.AuthResponse{User: s.userLocked(a), Tokens: s.issueLocked(a.user.ID)})
}

func (s *Server) userLocked(a *account) *userdomain.User {
	u := a.user
	if a.user.Profile != nil {
		p := *a.user.Profile
		u.Profile = &p
	}
	return &u
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in userdomain.RegisterRequest
	if !decode(w, r, &in) {
		return
	}
	if len(in.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"password": {"This password is too short. It must contain at least 8 characters."}})
		return
	}
	if in.Password != in.ConfirmPassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"password": "Password fields didn't match."})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[in.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"user with this email already exists."}})
		return
	}
	a := s.addAccountLocked(userdomain.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}, in.Password, in.FullName)
	writeJSON(w, http.StatusCreated, userdomain.AuthResponse{User: s.userLocked(a), Tokens: s.issueLocked(a.user.ID)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireViewer(w, r); !ok {
		return
	}
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	delete(s.refresh, in.RefreshToken)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.refresh[in.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}
	t := s.issueLocked(uid)
	resp := map[string]string{"access": t.Access}
	if s.rotate {
		delete(s.refresh, in.Refresh)
		resp["refresh"] = t.Refresh
	} else {
		delete(s.refresh, t.Refresh)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) profileLocked(a *account) userdomain.Profile {
	p := userdomain.Profile{}
	if a.user.Profile != nil {
		p = *a.user.Profile
	}
	p.ID = a.user.ID
	p.Username, p.Email = a.user.Username, a.user.Email
	p.FirstName, p.LastName = a.user.FirstName, a.user.LastName
	return p
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.profileLocked(s.byID[uid]))
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	var in userdomain.ProfileUpdate
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.byID[uid]
	if a.user.Profile == nil {
		a.user.Profile = &userdomain.Profile{}
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.user.FirstName, in.FirstName)
	set(&a.user.LastName, in.LastName)
	set(&a.user.Profile.FullName, in.FullName)
	set(&a.user.Profile.Bio, in.Bio)
	set(&a.user.Profile.Location, in.Location)
	writeJSON(w, http.StatusOK, s.profileLocked(a))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.viewer(w, r)
	if !ok {
		return
	}
	search := strings.ToLower(r.URL.Query().Get("search"))
	location := strings.ToLower(r.URL.Query().Get("location"))
	s.mu.Lock()
	out := []evdomain.Event{}
	for _, ev := range s.events {
		if !s.visibleLocked(ev, uid) {
			continue
		}
		hay := strings.ToLower(ev.Title + " " + ev.Description + " " + ev.Location + " " + ev.Organizer)
		if search != "" && !strings.Contains(hay, search) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(ev.Location), location) {
			continue
		}
		out = append(out, s.viewEventLocked(ev, uid, false))
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	s.list(w, out, len(out))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	var in evdomain.EventInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}
	id := s.AddEvent(uid, evdomain.Event{
		Title: in.Title, Description: in.Description, Location: in.Location,
		StartTime: in.StartTime, EndTime: in.EndTime, IsPublic: in.IsPublic,
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.viewEventLocked(s.events[id], uid, false))
}

// eventFor loads event id for the viewer, writing 401/404 as needed.
func (s *Server) eventFor(w http.ResponseWriter, r *http.Request, needAuth bool) (*evdomain.Event, int, bool) {
	var (
		uid int
		ok  bool
	)
	if needAuth {
		uid, ok = s.requireViewer(w, r)
	} else {
		uid, ok = s.viewer(w, r)
	}
	if !ok {
		return nil, 0, false
	}
	id, ok := pathID(w, r)
	if !ok {
		return nil, 0, false
	}
	s.mu.Lock()
	ev := s.events[id]
	visible := ev != nil && s.visibleLocked(ev, uid)
	s.mu.Unlock()
	if !visible {
		writeError(w, http.StatusNotFound, "detail", "Not found.")
		return nil, 0, false
	}
	return ev, uid, true
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, uid, ok := s.eventFor(w, r, false)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.viewEventLocked(ev, uid, true))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ev, uid, ok := s.eventFor(w, r, true)
	if !ok {
		return
	}
	if ev.OrganizerID != uid {
		writeError(w, http.StatusForbidden, "detail", "You do not have permission to perform this action.")
		return
	}
	var in evdomain.EventInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Title, ev.Description, ev.Location = in.Title, in.Description, in.Location
	ev.StartTime, ev.EndTime, ev.IsPublic = in.StartTime, in.EndTime, in.IsPublic
	ev.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, s.viewEventLocked(ev, uid, false))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ev, uid, ok := s.eventFor(w, r, true)
	if !ok {
		return
	}
	if ev.OrganizerID != uid {
		writeError(w, http.StatusForbidden, "detail", "You do not have permission to perform this action.")
		return
	}
	s.mu.Lock()
	delete(s.events, ev.ID)
	delete(s.rsvps, ev.ID)
	delete(s.reviews, ev.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRSVP(w http.ResponseWriter, r *http.Request) {
	ev, uid, ok := s.eventFor(w, r, true)
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Status == "" {
		in.Status = string(evdomain.RSVPGoing)
	}
	st, err := evdomain.ParseRSVPStatus(in.Status)
	if err != nil || string(st) != in.Status {
		writeError(w, http.StatusBadRequest, "error", "Invalid RSVP status")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rsvps[ev.ID] == nil {
		s.rsvps[ev.ID] = make(map[int]evdomain.RSVPStatus)
	}
	s.rsvps[ev.ID][uid] = st
	view := s.viewEventLocked(ev, uid, false)
	writeJSON(w, http.StatusOK, evdomain.RSVPResult{
		Message:       "RSVP updated to " + string(st),
		RSVP:          evdomain.RSVP{Event: ev.ID, User: s.byID[uid].user.Username, EventTitle: ev.Title, Status: st},
		AttendeeCount: view.AttendeeCount,
	})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	ev, uid, ok := s.eventFor(w, r, false)
	if !ok {
		return
	}
	s.mu.Lock()
	out := s.reviewsLocked(ev.ID, uid)
	s.mu.Unlock()
	s.list(w, out, len(out))
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	ev, uid, ok := s.eventFor(w, r, true)
	if !ok {
		return
	}
	var in evdomain.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.reviews[ev.ID] {
		if row.userID == uid {
			writeError(w, http.StatusBadRequest, "error", "You have already reviewed this event")
			return
		}
	}
	if in.Rating < 1 || in.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"rating": {"Rating must be between 1 and 5"}})
		return
	}
	if len(strings.TrimSpace(in.Comment)) < 3 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"comment": {"Comment must be at least 3 characters long"}})
		return
	}
	s.nextID++
	a := s.byID[uid]
	rv := evdomain.Review{
		ID: s.nextID, User: a.user.Username, UserFullName: a.user.DisplayName(),
		Rating: in.Rating, Comment: strings.TrimSpace(in.Comment),
		CreatedAt: s.now(), UpdatedAt: s.now(),
	}
	s.reviews[ev.ID] = append(s.reviews[ev.ID], reviewRow{eventID: ev.ID, userID: uid, review: rv})
	rv.CanEdit = true
	writeJSON(w, http.StatusCreated, rv)
}

// findReviewLocked returns the stored row for review id.
func (s *Server) findReviewLocked(id int) *reviewRow {
	for eid := range s.reviews {
		for i := range s.reviews[eid] {
			if s.reviews[eid][i].review.ID == id {
				return &s.reviews[eid][i]
			}
		}
	}
	return nil
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in evdomain.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.findReviewLocked(id)
	if row == nil {
		writeError(w, http.StatusNotFound, "detail", "Not found.")
		return
	}
	if row.userID != uid {
		writeError(w, http.StatusForbidden, "detail", "You do not have permission to perform this action.")
		return
	}
	row.review.Rating, row.review.Comment, row.review.UpdatedAt = in.Rating, strings.TrimSpace(in.Comment), s.now()
	rv := row.review
	rv.CanEdit = true
	writeJSON(w, http.StatusOK, rv)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.findReviewLocked(id)
	if row == nil {
		writeError(w, http.StatusNotFound, "detail", "Not found.")
		return
	}
	if row.userID != uid {
		writeError(w, http.StatusForbidden, "detail", "You do not have permission to perform this action.")
		return
	}
	rows := s.reviews[row.eventID]
	for i := range rows {
		if rows[i].review.ID == id {
			s.reviews[row.eventID] = append(rows[:i], rows[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := evdomain.Dashboard{OrganizedEvents: []evdomain.Event{}, RSVPedEvents: []evdomain.Event{}}
	ids := make([]int, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	for _, id := range ids {
		ev := s.events[id]
		if ev.OrganizerID == uid {
			d.OrganizedEvents = append(d.OrganizedEvents, s.viewEventLocked(ev, uid, false))
		}
		if st, ok := s.rsvps[id][uid]; ok && (st == evdomain.RSVPGoing || st == evdomain.RSVPMaybe) {
			d.RSVPedEvents = append(d.RSVPedEvents, s.viewEventLocked(ev, uid, false))
		}
	}
	d.OrganizedCount, d.RSVPCount = len(d.OrganizedEvents), len(d.RSVPedEvents)
	writeJSON(w, http.StatusOK, d)
}
