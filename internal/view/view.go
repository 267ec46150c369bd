// Package view holds the page controllers. Each page loads its data through the query
// cache, gates its actions through the policy engine, and reports mutations through a
// Notifier; navigation requests go to a Navigator.
package view

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"event-management/client/internal/events"
	"event-management/client/internal/events/domain"
	"event-management/client/internal/policy/engine"
	"event-management/client/internal/query"
	sessiondomain "event-management/client/internal/session/domain"
	userdomain "event-management/client/internal/user/domain"
)

// Notifier shows transient success and error messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// Routes.
const (
	RouteHome      = "/"
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
	RouteProfile   = "/profile"
	RouteNewEvent  = "/events/new"
)

// EventRoute is the detail route of event id.
func EventRoute(id int) string { return fmt.Sprintf("/events/%d", id) }

// EditEventRoute is the edit route of event id.
func EditEventRoute(id int) string { return fmt.Sprintf("/events/%d/edit", id) }

// Session is the part of the session store pages read and write.
type Session interface {
	IsAuthenticated() bool
	Profile(ctx context.Context) (*userdomain.Profile, error)
	UpdateProfile(ctx context.Context, upd userdomain.ProfileUpdate) (*userdomain.Profile, error)
}

// EventsAPI is the events client as pages use it.
type EventsAPI interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.Event, error)
	Get(ctx context.Context, id int) (*domain.Event, error)
	Create(ctx context.Context, in domain.EventInput) (*domain.Event, error)
	Update(ctx context.Context, id int, in domain.EventInput) (*domain.Event, error)
	Delete(ctx context.Context, id int) error
	RSVP(ctx context.Context, id int, status domain.RSVPStatus) (*domain.RSVPResult, error)
	Reviews(ctx context.Context, id int) ([]domain.Review, error)
	SubmitReview(ctx context.Context, id int, in domain.ReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, id int, in domain.ReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, id int) error
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
}

var _ EventsAPI = (*events.Client)(nil)

// DefaultStaleTime is how long a fetched read is served without refetching.
const DefaultStaleTime = 30 * time.Second

// Config wires an App. Session and Events are required.
type Config struct {
	Session   Session
	Events    EventsAPI
	Cache     *query.Cache
	Policy    engine.Evaluator // nil denies every gated action
	Notifier  Notifier
	Navigator Navigator
	StaleTime time.Duration
	Debounce  time.Duration
}

// App is shared by every page.
type App struct {
	session   Session
	events    EventsAPI
	cache     *query.Cache
	policy    engine.Evaluator
	notify    Notifier
	nav       Navigator
	staleTime time.Duration
	debounce  time.Duration
}

type discard struct{}

func (discard) Success(string)  {}
func (discard) Error(string)    {}
func (discard) Navigate(string) {}

// New returns an App with defaults filled in.
func New(cfg Config) *App {
	a := &App{
		session:   cfg.Session,
		events:    cfg.Events,
		cache:     cfg.Cache,
		policy:    cfg.Policy,
		notify:    cfg.Notifier,
		nav:       cfg.Navigator,
		staleTime: cfg.StaleTime,
		debounce:  cfg.Debounce,
	}
	if a.cache == nil {
		a.cache = query.NewCache()
	}
	if a.policy == nil {
		a.policy = engine.Static(engine.Decision{})
	}
	if a.notify == nil {
		a.notify = discard{}
	}
	if a.nav == nil {
		a.nav = discard{}
	}
	if a.staleTime <= 0 {
		a.staleTime = DefaultStaleTime
	}
	if a.debounce <= 0 {
		a.debounce = query.DefaultDebounce
	}
	return a
}

// Cache returns the query cache the pages read through.
func (a *App) Cache() *query.Cache { return a.cache }

// SessionSource publishes session changes.
type SessionSource interface {
	Snapshot() sessiondomain.Session
	Subscribe(fn func(sessiondomain.Session)) (unsubscribe func())
}

// ClearOnSessionChange drops every cached read when the signed-in user changes, so one
// viewer never sees another's can_edit flags. Token refreshes keep the cache.
func (a *App) ClearOnSessionChange(src SessionSource) (stop func()) {
	var mu sync.Mutex
	last := viewerID(src.Snapshot())
	return src.Subscribe(func(s sessiondomain.Session) {
		mu.Lock()
		defer mu.Unlock()
		if id := viewerID(s); id != last {
			last = id
			a.cache.Clear()
		}
	})
}

func viewerID(s sessiondomain.Session) int {
	if !s.IsAuthenticated() {
		return 0
	}
	return s.User.ID
}

// decide evaluates action policy for the viewer against ev and rv, either may be nil.
func (a *App) decide(ctx context.Context, ev *domain.Event, rv *domain.Review) engine.Decision {
	in := engine.Input{Authenticated: a.session.IsAuthenticated()}
	if ev != nil {
		in.Event = &engine.Subject{CanEdit: ev.CanEdit}
	}
	if rv != nil {
		in.Review = &engine.Subject{CanEdit: rv.CanEdit}
	}
	d, err := a.policy.Evaluate(ctx, in)
	if err != nil {
		log.Printf("view: policy: %v", err)
		return engine.Decision{}
	}
	return d
}

func eventKey(id int) query.Key   { return query.Key{Kind: query.KindEvent, ID: strconv.Itoa(id)} }
func reviewsKey(id int) query.Key { return query.Key{Kind: query.KindReviews, ID: strconv.Itoa(id)} }

func (a *App) event(ctx context.Context, id int) (*domain.Event, error) {
	return query.Fetch(ctx, a.cache, eventKey(id), a.staleTime, func(ctx context.Context) (*domain.Event, error) {
		return a.events.Get(ctx, id)
	})
}

func (a *App) reviews(ctx context.Context, id int) ([]domain.Review, error) {
	return query.Fetch(ctx, a.cache, reviewsKey(id), a.staleTime, func(ctx context.Context) ([]domain.Review, error) {
		return a.events.Reviews(ctx, id)
	})
}
