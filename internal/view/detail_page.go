package view

import (
	"context"

	"golang.org/x/sync/errgroup"

	"event-management/client/internal/events/domain"
	"event-management/client/internal/policy/engine"
)

// EventDetail is everything the detail page renders.
type EventDetail struct {
	Event   Result[*domain.Event]
	Reviews Result[[]domain.Review]
	Actions engine.Decision
}

// EventDetailPage shows one event with its reviews.
type EventDetailPage struct {
	app *App
	id  int
}

// EventDetailPage opens the detail page of event id.
func (a *App) EventDetailPage(id int) *EventDetailPage {
	return &EventDetailPage{app: a, id: id}
}

// Load fetches the event and its reviews concurrently and evaluates the offered actions.
func (p *EventDetailPage) Load(ctx context.Context) EventDetail {
	var (
		ev           *domain.Event
		rvs          []domain.Review
		evErr, rvErr error
		g            errgroup.Group
	)
	g.Go(func() error {
		ev, evErr = p.app.event(ctx, p.id)
		return nil
	})
	g.Go(func() error {
		rvs, rvErr = p.app.reviews(ctx, p.id)
		return nil
	})
	_ = g.Wait()

	d := EventDetail{
		Event:   resultOf(ev, evErr, nil),
		Reviews: resultOf(rvs, rvErr, isEmpty[domain.Review]),
	}
	if evErr == nil {
		d.Actions = p.app.decide(ctx, ev, nil)
	}
	return d
}

// ReviewActions returns what the viewer may do with rv.
func (p *EventDetailPage) ReviewActions(ctx context.Context, rv domain.Review) engine.Decision {
	return p.app.decide(ctx, nil, &rv)
}

// RSVP records the viewer's answer.
func (p *EventDetailPage) RSVP(ctx context.Context, status domain.RSVPStatus) (*domain.RSVPResult, error) {
	if err := p.app.requireLogin(MsgLoginToRSVP); err != nil {
		return nil, err
	}
	if !p.app.decide(ctx, nil, nil).RSVP {
		return nil, p.app.deny(MsgNoRSVPPermission)
	}
	var res *domain.RSVPResult
	err := p.app.mutate(ctx, MutationRSVP, p.id, MsgRSVPFailed, func(ctx context.Context) (string, error) {
		r, err := p.app.events.RSVP(ctx, p.id, status)
		if err != nil {
			return "", err
		}
		res = r
		return msgRSVPUpdated + string(status), nil
	})
	return res, err
}

// SubmitReview adds the viewer's review.
func (p *EventDetailPage) SubmitReview(ctx context.Context, in domain.ReviewInput) (*domain.Review, error) {
	if err := p.app.requireLogin(MsgLoginToReview); err != nil {
		return nil, err
	}
	if !p.app.decide(ctx, nil, nil).SubmitReview {
		return nil, p.app.deny(MsgNoReviewPermission)
	}
	if err := in.Validate(); err != nil {
		return nil, p.app.invalid(err)
	}
	var out *domain.Review
	err := p.app.mutate(ctx, MutationSubmitReview, p.id, MsgReviewFailed, func(ctx context.Context) (string, error) {
		rv, err := p.app.events.SubmitReview(ctx, p.id, in)
		if err != nil {
			return "", err
		}
		out = rv
		return MsgReviewSent, nil
	})
	return out, err
}

// UpdateReview edits rv, which must be the viewer's own.
func (p *EventDetailPage) UpdateReview(ctx context.Context, rv domain.Review, in domain.ReviewInput) (*domain.Review, error) {
	if err := p.app.requireLogin(MsgLoginToReview); err != nil {
		return nil, err
	}
	if !p.app.decide(ctx, nil, &rv).EditReview {
		return nil, p.app.deny(MsgNoEditReview)
	}
	if err := in.Validate(); err != nil {
		return nil, p.app.invalid(err)
	}
	var out *domain.Review
	err := p.app.mutate(ctx, MutationUpdateReview, p.id, MsgReviewUpdateFailed, func(ctx context.Context) (string, error) {
		updated, err := p.app.events.UpdateReview(ctx, rv.ID, in)
		if err != nil {
			return "", err
		}
		out = updated
		return MsgReviewUpdated, nil
	})
	return out, err
}

// DeleteReview removes rv, which must be the viewer's own.
func (p *EventDetailPage) DeleteReview(ctx context.Context, rv domain.Review) error {
	if err := p.app.requireLogin(MsgLoginToReview); err != nil {
		return err
	}
	if !p.app.decide(ctx, nil, &rv).EditReview {
		return p.app.deny(MsgNoEditReview)
	}
	return p.app.mutate(ctx, MutationDeleteReview, p.id, MsgReviewDeleteFailed, func(ctx context.Context) (string, error) {
		if err := p.app.events.DeleteReview(ctx, rv.ID); err != nil {
			return "", err
		}
		return MsgReviewDeleted, nil
	})
}

// Delete removes the event and returns to the home page.
func (p *EventDetailPage) Delete(ctx context.Context) error {
	if err := p.app.requireLogin(MsgLoginToEdit); err != nil {
		return err
	}
	ev, err := p.app.event(ctx, p.id)
	if err != nil {
		p.app.fail(err, MsgLoadFailed)
		return err
	}
	if !p.app.decide(ctx, ev, nil).DeleteEvent {
		return p.app.deny(MsgNoDeletePermission)
	}
	err = p.app.mutate(ctx, MutationDeleteEvent, p.id, MsgDeleteFailed, func(ctx context.Context) (string, error) {
		if err := p.app.events.Delete(ctx, p.id); err != nil {
			return "", err
		}
		return MsgEventDeleted, nil
	})
	if err != nil {
		return err
	}
	p.app.nav.Navigate(RouteHome)
	return nil
}
