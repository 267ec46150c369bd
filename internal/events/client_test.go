package events

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"event-management/client/internal/apitest"
	"event-management/client/internal/events/domain"
	"event-management/client/internal/gateway"
	"event-management/client/internal/storage"
)

type fixture struct {
	srv    *apitest.Server
	repo   *storage.MemoryRepository
	client *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	repo := storage.NewMemoryRepository()
	return &fixture{srv: srv, repo: repo, client: NewClient(gateway.New(srv.URL, repo))}
}

// signIn stores a token pair for a new account and returns its id.
func (f *fixture) signIn(t *testing.T, email string) int {
	t.Helper()
	id := f.srv.AddUser(email, "secret123", "Ada Lovelace")
	tokens := f.srv.Issue(id)
	ctx := context.Background()
	if err := f.repo.Set(ctx, storage.KeyAccessToken, tokens.Access); err != nil {
		t.Fatalf("Set access: %v", err)
	}
	if err := f.repo.Set(ctx, storage.KeyRefreshToken, tokens.Refresh); err != nil {
		t.Fatalf("Set refresh: %v", err)
	}
	return id
}

func meetup(title, location string) domain.Event {
	start := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
	return domain.Event{
		Title: title, Description: "talks", Location: location,
		StartTime: start, EndTime: start.Add(2 * time.Hour), IsPublic: true,
	}
}

func TestList_BareAndPaginated(t *testing.T) {
	f := newFixture(t)
	org := f.srv.AddUser("org@example.com", "secret123", "Org")
	f.srv.AddEvent(org, meetup("Go Meetup", "Berlin"))
	f.srv.AddEvent(org, meetup("Rust Night", "Paris"))

	for _, paginate := range []bool{false, true} {
		f.srv.Paginate(paginate)
		got, err := f.client.List(context.Background(), domain.ListFilter{})
		if err != nil {
			t.Fatalf("List (paginate=%v): %v", paginate, err)
		}
		if len(got) != 2 {
			t.Errorf("List (paginate=%v) = %d events, want 2", paginate, len(got))
		}
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	org := f.srv.AddUser("org@example.com", "secret123", "Org")
	f.srv.AddEvent(org, meetup("Go Meetup", "Berlin"))
	f.srv.AddEvent(org, meetup("Go Conference", "Paris"))

	got, err := f.client.List(context.Background(), domain.ListFilter{Search: " go ", Location: "paris"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Go Conference" {
		t.Errorf("List = %+v, want only Go Conference", got)
	}
}

func TestQuery_OmitsEmptyFields(t *testing.T) {
	q := Query(domain.ListFilter{Search: "  ", Ordering: "-start_time"})
	if q.Has("search") || q.Has("location") {
		t.Errorf("Query = %v, want blank fields omitted", q)
	}
	if q.Get("ordering") != "-start_time" {
		t.Errorf("ordering = %q", q.Get("ordering"))
	}
}

func TestCreate_ValidatesBeforeSending(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "ada@example.com")

	in := domain.InputFrom(&domain.Event{Title: "x", Description: "y", Location: "z"})
	_, err := f.client.Create(context.Background(), in)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if n := f.srv.Calls(http.MethodPost, "/events/"); n != 0 {
		t.Errorf("POST /events/ calls = %d, want 0", n)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "ada@example.com")
	ctx := context.Background()

	ev := meetup("Go Meetup", "Berlin")
	in := domain.InputFrom(&ev)
	created, err := f.client.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.CanEdit {
		t.Error("organizer should be able to edit the new event")
	}

	in.Title = "Go Meetup #2"
	updated, err := f.client.Update(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Go Meetup #2" {
		t.Errorf("Title = %q", updated.Title)
	}

	if err := f.client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = f.client.Get(ctx, created.ID)
	if gateway.StatusOf(err) != http.StatusNotFound {
		t.Errorf("Get after delete: err = %v, want 404", err)
	}
}

func TestUpdate_ForbiddenForNonOrganizer(t *testing.T) {
	f := newFixture(t)
	org := f.srv.AddUser("org@example.com", "secret123", "Org")
	id := f.srv.AddEvent(org, meetup("Go Meetup", "Berlin"))
	f.signIn(t, "ada@example.com")

	ev := meetup("Hijacked", "Berlin")
	_, err := f.client.Update(context.Background(), id, domain.InputFrom(&ev))
	if gateway.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestRSVP(t *testing.T) {
	f := newFixture(t)
	org := f.srv.AddUser("org@example.com", "secret123", "Org")
	id := f.srv.AddEvent(org, meetup("Go Meetup", "Berlin"))
	f.signIn(t, "ada@example.com")
	ctx := context.Background()

	res, err := f.client.RSVP(ctx, id, domain.RSVPGoing)
	if err != nil {
		t.Fatalf("RSVP: %v", err)
	}
	if res.AttendeeCount != 1 || res.RSVP.Status != domain.RSVPGoing {
		t.Errorf("RSVP = %+v", res)
	}

	ev, err := f.client.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ev.UserRSVP == nil || *ev.UserRSVP != domain.RSVPGoing {
		t.Errorf("UserRSVP = %v, want going", ev.UserRSVP)
	}

	res, err = f.client.RSVP(ctx, id, domain.RSVPMaybe)
	if err != nil {
		t.Fatalf("RSVP maybe: %v", err)
	}
	if res.AttendeeCount != 0 || res.RSVP.Status != domain.RSVPMaybe {
		t.Errorf("RSVP maybe = %+v", res)
	}
	ev, err = f.client.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ev.UserRSVP == nil || *ev.UserRSVP != domain.RSVPMaybe {
		t.Errorf("UserRSVP = %v, want maybe", ev.UserRSVP)
	}
	if len(ev.RSVPs) != 1 {
		t.Fatalf("rsvps = %+v, want one answer replaced in place", ev.RSVPs)
	}
	if ev.RSVPs[0].Status != domain.RSVPMaybe || ev.AttendeeCount != 0 {
		t.Errorf("rsvp = %+v, attendee_count = %d; want maybe and 0", ev.RSVPs[0], ev.AttendeeCount)
	}
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	org := f.srv.AddUser("org@example.com", "secret123", "Org")
	id := f.srv.AddEvent(org, meetup("Go Meetup", "Berlin"))
	f.signIn(t, "ada@example.com")
	f.srv.Paginate(true)
	ctx := context.Background()

	if _, err := f.client.SubmitReview(ctx, id, domain.ReviewInput{Rating: 5, Comment: "ok"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("short comment: err = %v, want ErrValidation", err)
	}

	rv, err := f.client.SubmitReview(ctx, id, domain.ReviewInput{Rating: 4, Comment: "  Great talks  "})
	if err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}
	if rv.Comment != "Great talks" || !rv.CanEdit {
		t.Errorf("review = %+v", rv)
	}

	_, err = f.client.SubmitReview(ctx, id, domain.ReviewInput{Rating: 3, Comment: "Again!"})
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) || apiErr.MessageOr("") != "You have already reviewed this event" {
		t.Errorf("second review: err = %v", err)
	}

	if _, err := f.client.UpdateReview(ctx, rv.ID, domain.ReviewInput{Rating: 2, Comment: "Changed my mind"}); err != nil {
		t.Fatalf("UpdateReview: %v", err)
	}
	list, err := f.client.Reviews(ctx, id)
	if err != nil {
		t.Fatalf("Reviews: %v", err)
	}
	if len(list) != 1 || list[0].Rating != 2 {
		t.Fatalf("Reviews = %+v", list)
	}

	if err := f.client.DeleteReview(ctx, rv.ID); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	list, err = f.client.Reviews(ctx, id)
	if err != nil || len(list) != 0 {
		t.Errorf("Reviews after delete = %+v, %v", list, err)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	uid := f.signIn(t, "ada@example.com")
	org := f.srv.AddUser("org@example.com", "secret123", "Org")
	f.srv.AddEvent(uid, meetup("Mine", "Berlin"))
	other := f.srv.AddEvent(org, meetup("Theirs", "Paris"))
	ctx := context.Background()
	if _, err := f.client.RSVP(ctx, other, domain.RSVPGoing); err != nil {
		t.Fatalf("RSVP: %v", err)
	}

	d, err := f.client.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.OrganizedEvents) != 1 || d.OrganizedEvents[0].Title != "Mine" {
		t.Errorf("organized = %+v", d.OrganizedEvents)
	}
	if len(d.RSVPedEvents) != 1 || d.RSVPedEvents[0].Title != "Theirs" {
		t.Errorf("rsvped = %+v", d.RSVPedEvents)
	}
}

func TestDashboard_RequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Dashboard(context.Background())
	if gateway.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}
