package view

import (
	"context"

	"event-management/client/internal/events/domain"
	"event-management/client/internal/query"
	userdomain "event-management/client/internal/user/domain"
)

// DashboardPage shows the viewer's organized and attended events.
type DashboardPage struct {
	app *App
}

// DashboardPage opens the dashboard.
func (a *App) DashboardPage() *DashboardPage {
	return &DashboardPage{app: a}
}

// Load fetches the dashboard. It is Empty when the viewer neither organizes nor attends anything.
func (p *DashboardPage) Load(ctx context.Context) Result[*domain.Dashboard] {
	if err := p.app.requireLogin(MsgLoginToDashboard); err != nil {
		return resultOf[*domain.Dashboard](nil, err, nil)
	}
	d, err := query.Fetch(ctx, p.app.cache, query.Key{Kind: query.KindDashboard}, p.app.staleTime,
		func(ctx context.Context) (*domain.Dashboard, error) { return p.app.events.Dashboard(ctx) })
	return resultOf(d, err, func(d *domain.Dashboard) bool {
		return len(d.OrganizedEvents) == 0 && len(d.RSVPedEvents) == 0
	})
}

// ProfilePage shows and edits the viewer's profile.
type ProfilePage struct {
	app *App
}

// ProfilePage opens the profile page.
func (a *App) ProfilePage() *ProfilePage {
	return &ProfilePage{app: a}
}

// Load fetches the profile.
func (p *ProfilePage) Load(ctx context.Context) Result[*userdomain.Profile] {
	if err := p.app.requireLogin(MsgLoginToProfile); err != nil {
		return resultOf[*userdomain.Profile](nil, err, nil)
	}
	prof, err := query.Fetch(ctx, p.app.cache, query.Key{Kind: query.KindProfile}, p.app.staleTime, p.app.session.Profile)
	return resultOf(prof, err, nil)
}

// Save applies upd.
func (p *ProfilePage) Save(ctx context.Context, upd userdomain.ProfileUpdate) (*userdomain.Profile, error) {
	if err := p.app.requireLogin(MsgLoginToProfile); err != nil {
		return nil, err
	}
	var out *userdomain.Profile
	err := p.app.mutate(ctx, MutationUpdateProfile, 0, MsgProfileUpdateFailed, func(ctx context.Context) (string, error) {
		prof, err := p.app.session.UpdateProfile(ctx, upd)
		if err != nil {
			return "", err
		}
		out = prof
		return MsgProfileUpdated, nil
	})
	return out, err
}
