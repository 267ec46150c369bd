package view

import (
	"context"
	"errors"
	"strconv"

	"event-management/client/internal/query"
	"event-management/client/internal/session"
)

// Mutation names a write a page can perform.
type Mutation int

const (
	MutationCreateEvent Mutation = iota
	MutationUpdateEvent
	MutationDeleteEvent
	MutationRSVP
	MutationSubmitReview
	MutationUpdateReview
	MutationDeleteReview
	MutationUpdateProfile
)

// Target is a cache invalidation: every entry of Kind, or only ID when set.
type Target struct {
	Kind string
	ID   string
}

// Invalidates returns the cache entries a successful m on event eventID makes stale.
func Invalidates(m Mutation, eventID int) []Target {
	id := strconv.Itoa(eventID)
	switch m {
	case MutationCreateEvent:
		return []Target{{Kind: query.KindEvents}, {Kind: query.KindDashboard}}
	case MutationUpdateEvent, MutationDeleteEvent:
		return []Target{{Kind: query.KindEvent, ID: id}, {Kind: query.KindEvents}, {Kind: query.KindDashboard}}
	case MutationRSVP:
		return []Target{{Kind: query.KindEvent, ID: id}, {Kind: query.KindDashboard}}
	case MutationSubmitReview, MutationUpdateReview, MutationDeleteReview:
		return []Target{{Kind: query.KindReviews, ID: id}, {Kind: query.KindEvent, ID: id}}
	case MutationUpdateProfile:
		return []Target{{Kind: query.KindProfile}}
	}
	return nil
}

// mutate runs fn. On success it invalidates m's targets and shows the message fn returns.
// On failure it shows the server message, or fallback, and leaves the cache untouched.
func (a *App) mutate(ctx context.Context, m Mutation, eventID int, fallback string, fn func(context.Context) (string, error)) error {
	msg, err := fn(ctx)
	if err != nil {
		a.fail(err, fallback)
		return err
	}
	for _, t := range Invalidates(m, eventID) {
		a.cache.Invalidate(t.Kind, t.ID)
	}
	if msg != "" {
		a.notify.Success(msg)
	}
	return nil
}

// fail reports err. Auth failures also send the user to login.
func (a *App) fail(err error, fallback string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if Classify(err) == KindAuth {
		a.notify.Error(MsgLoginRequired)
		a.nav.Navigate(RouteLogin)
		return
	}
	a.notify.Error(messageOf(err, fallback))
}

// requireLogin prompts and redirects to login when nobody is signed in.
func (a *App) requireLogin(prompt string) error {
	if a.session.IsAuthenticated() {
		return nil
	}
	a.notify.Error(prompt)
	a.nav.Navigate(RouteLogin)
	return session.ErrNotAuthenticated
}

func (a *App) deny(msg string) error {
	a.notify.Error(msg)
	return ErrPermissionDenied
}

// invalid reports a local validation failure.
func (a *App) invalid(err error) error {
	a.notify.Error(messageOf(err, MsgUnexpected))
	return err
}
