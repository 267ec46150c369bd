package view

import (
	"context"
	"sync"

	"event-management/client/internal/events/domain"
	"event-management/client/internal/query"
)

// EventsPage lists events. Filter edits are debounced; only the latest filter's result is
// kept and reported.
type EventsPage struct {
	app      *App
	ctx      context.Context
	cancel   context.CancelFunc
	deb      *query.Debouncer[domain.ListFilter]
	onChange func(Result[[]domain.Event])

	mu     sync.Mutex
	filter domain.ListFilter
	result Result[[]domain.Event]
}

// EventsPage opens the list page. onChange, when set, receives each settled result.
func (a *App) EventsPage(onChange func(Result[[]domain.Event])) *EventsPage {
	ctx, cancel := context.WithCancel(context.Background())
	p := &EventsPage{app: a, ctx: ctx, cancel: cancel, onChange: onChange}
	p.deb = query.NewDebouncer(a.debounce, func(f domain.ListFilter) { p.fetch(p.ctx, f) })
	return p
}

// Load fetches the list for the current filter now.
func (p *EventsPage) Load(ctx context.Context) Result[[]domain.Event] {
	return p.fetch(ctx, p.Filter())
}

// SetSearch changes the search text and schedules a reload.
func (p *EventsPage) SetSearch(s string) {
	p.mu.Lock()
	p.filter.Search = s
	f := p.filter
	p.mu.Unlock()
	p.deb.Trigger(f)
}

// SetLocation changes the location filter and schedules a reload.
func (p *EventsPage) SetLocation(s string) {
	p.mu.Lock()
	p.filter.Location = s
	f := p.filter
	p.mu.Unlock()
	p.deb.Trigger(f)
}

// Flush runs a scheduled reload immediately. It reports whether one was pending.
func (p *EventsPage) Flush() bool { return p.deb.Flush() }

// Filter returns the current filter.
func (p *EventsPage) Filter() domain.ListFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Result returns the last settled result.
func (p *EventsPage) Result() Result[[]domain.Event] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Close cancels pending and in-flight reloads.
func (p *EventsPage) Close() {
	p.deb.Stop()
	p.cancel()
}

func (p *EventsPage) fetch(ctx context.Context, f domain.ListFilter) Result[[]domain.Event] {
	key := query.Key{Kind: query.KindEvents, Filters: f.String()}
	list, err := query.Fetch(ctx, p.app.cache, key, p.app.staleTime, func(ctx context.Context) ([]domain.Event, error) {
		return p.app.events.List(ctx, f)
	})
	res := resultOf(list, err, isEmpty[domain.Event])
	if ctx.Err() != nil {
		return res
	}

	p.mu.Lock()
	if p.filter != f {
		// A newer filter is pending; its fetch reports instead.
		p.mu.Unlock()
		return res
	}
	p.result = res
	p.mu.Unlock()
	if p.onChange != nil {
		p.onChange(res)
	}
	return res
}
