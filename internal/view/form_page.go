package view

import (
	"context"

	"event-management/client/internal/events/domain"
)

// EventFormPage creates an event, or edits one when opened with an id.
type EventFormPage struct {
	app *App
	id  int
}

// CreateEventPage opens an empty form.
func (a *App) CreateEventPage() *EventFormPage {
	return &EventFormPage{app: a}
}

// EditEventPage opens the form for event id.
func (a *App) EditEventPage(id int) *EventFormPage {
	return &EventFormPage{app: a, id: id}
}

// Editing reports whether the form edits an existing event.
func (p *EventFormPage) Editing() bool { return p.id != 0 }

// Load returns the initial form values. Editing an event the viewer can't edit is refused
// and sends the user back to the event.
func (p *EventFormPage) Load(ctx context.Context) (domain.EventInput, error) {
	if !p.Editing() {
		if err := p.canCreate(ctx); err != nil {
			return domain.EventInput{}, err
		}
		return domain.EventInput{IsPublic: true}, nil
	}
	ev, err := p.editable(ctx)
	if err != nil {
		return domain.EventInput{}, err
	}
	return domain.InputFrom(ev), nil
}

// Submit validates in and saves it, then opens the saved event.
func (p *EventFormPage) Submit(ctx context.Context, in domain.EventInput) (*domain.Event, error) {
	m, fallback, done := MutationCreateEvent, MsgCreateFailed, MsgEventCreated
	if p.Editing() {
		m, fallback, done = MutationUpdateEvent, MsgUpdateFailed, MsgEventUpdated
		if _, err := p.editable(ctx); err != nil {
			return nil, err
		}
	} else if err := p.canCreate(ctx); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, p.app.invalid(err)
	}

	var out *domain.Event
	err := p.app.mutate(ctx, m, p.id, fallback, func(ctx context.Context) (string, error) {
		var err error
		if p.Editing() {
			out, err = p.app.events.Update(ctx, p.id, in)
		} else {
			out, err = p.app.events.Create(ctx, in)
		}
		if err != nil {
			return "", err
		}
		return done, nil
	})
	if err != nil {
		return nil, err
	}
	p.app.nav.Navigate(EventRoute(out.ID))
	return out, nil
}

func (p *EventFormPage) canCreate(ctx context.Context) error {
	if err := p.app.requireLogin(MsgLoginToCreate); err != nil {
		return err
	}
	if !p.app.decide(ctx, nil, nil).CreateEvent {
		return p.app.deny(MsgNoCreatePermission)
	}
	return nil
}

func (p *EventFormPage) editable(ctx context.Context) (*domain.Event, error) {
	if err := p.app.requireLogin(MsgLoginToEdit); err != nil {
		return nil, err
	}
	ev, err := p.app.event(ctx, p.id)
	if err != nil {
		p.app.fail(err, MsgLoadFailed)
		return nil, err
	}
	if !p.app.decide(ctx, ev, nil).EditEvent {
		err := p.app.deny(MsgNoEditPermission)
		p.app.nav.Navigate(EventRoute(p.id))
		return nil, err
	}
	return ev, nil
}
