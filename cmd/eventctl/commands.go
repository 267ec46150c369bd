package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"event-management/client/internal/config"
	"event-management/client/internal/events/domain"
	"event-management/client/internal/security"
	"event-management/client/internal/session"
	userdomain "event-management/client/internal/user/domain"
	"event-management/client/internal/view"
)

// shell builds an env for each leaf command that needs one.
type shell struct {
	ctx context.Context
	con *console
}

type leafFunc func(ctx context.Context, e *env, fs *pflag.FlagSet, args []string) error

func (s *shell) with(fn leafFunc) func(*pflag.FlagSet, []string) error {
	return func(fs *pflag.FlagSet, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		e, err := newEnv(s.ctx, cfg, s.con)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(s.ctx, e, fs, args)
	}
}

// displayError is a failure whose message is meant for the user as is.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

func loadFailed[T any](r view.Result[T]) error {
	return &displayError{msg: r.Message, err: r.Err}
}

func rootCommand(s *shell) *command {
	return &command{
		name:    "eventctl",
		usage:   "eventctl <command> [flags]",
		summary: "Browse events, RSVP and review them, and manage the events you organize.",
		subcommands: []*command{
			loginCommand(s),
			registerCommand(s),
			{
				name:    "logout",
				summary: "Sign out and forget the stored session",
				run: s.with(func(ctx context.Context, e *env, _ *pflag.FlagSet, _ []string) error {
					if err := e.store.Logout(ctx); err != nil {
						return err
					}
					fmt.Fprintln(e.con.out, "Logged out")
					return nil
				}),
			},
			{
				name:    "whoami",
				summary: "Show the signed-in user",
				run:     s.with(whoami),
			},
			eventsCommand(s),
			{
				name:    "rsvp",
				usage:   "eventctl rsvp ID going|maybe|not_going",
				summary: "Answer an event invitation",
				run:     s.with(rsvp),
			},
			reviewsCommand(s),
			{
				name:    "dashboard",
				summary: "Show the events you organize and attend",
				run:     s.with(dashboard),
			},
			profileCommand(s),
		},
	}
}

func loginCommand(s *shell) *command {
	return &command{
		name:    "login",
		usage:   "eventctl login --email EMAIL --password PASSWORD",
		summary: "Sign in",
		flags: func(fs *pflag.FlagSet) {
			fs.String("email", "", "account email")
			fs.String("password", "", "account password")
		},
		run: s.with(func(ctx context.Context, e *env, fs *pflag.FlagSet, _ []string) error {
			email, _ := fs.GetString("email")
			password, _ := fs.GetString("password")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			u, err := e.store.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.con.out, "Logged in as %s\n", u.DisplayName())
			return nil
		}),
	}
}

func registerCommand(s *shell) *command {
	return &command{
		name:    "register",
		usage:   "eventctl register --email EMAIL --password PASSWORD --confirm-password PASSWORD --full-name NAME",
		summary: "Create an account and sign in",
		flags: func(fs *pflag.FlagSet) {
			fs.String("email", "", "account email, also used as the username")
			fs.String("password", "", "password")
			fs.String("confirm-password", "", "password again")
			fs.String("full-name", "", "full name")
			fs.String("first-name", "", "first name (default: first word of --full-name)")
			fs.String("last-name", "", "last name (default: second word of --full-name)")
		},
		run: s.with(func(ctx context.Context, e *env, fs *pflag.FlagSet, _ []string) error {
			var in userdomain.RegisterInput
			in.Email, _ = fs.GetString("email")
			in.Password, _ = fs.GetString("password")
			in.ConfirmPassword, _ = fs.GetString("confirm-password")
			in.FullName, _ = fs.GetString("full-name")
			in.FirstName, _ = fs.GetString("first-name")
			in.LastName, _ = fs.GetString("last-name")
			if in.Email == "" || in.Password == "" {
				return errors.New("--email and --password are required")
			}
			u, err := e.store.Register(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.con.out, "Welcome, %s\n", u.DisplayName())
			return nil
		}),
	}
}

func whoami(_ context.Context, e *env, _ *pflag.FlagSet, _ []string) error {
	snap := e.store.Snapshot()
	if !snap.IsAuthenticated() {
		return &displayError{msg: "not logged in", err: session.ErrNotAuthenticated}
	}
	u := snap.User
	fmt.Fprintf(e.con.out, "%s <%s> (id %d)\n", u.DisplayName(), u.Email, u.ID)
	if exp, ok := security.ExpiresAt(snap.AccessToken); ok {
		fmt.Fprintf(e.con.out, "access token expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func eventsCommand(s *shell) *command {
	formFlags := func(fs *pflag.FlagSet) {
		fs.String("title", "", "event title")
		fs.String("description", "", "event description")
		fs.String("location", "", "where it takes place")
		fs.String("start", "", "start time, RFC 3339 or \"2006-01-02 15:04\" local")
		fs.String("end", "", "end time, same formats as --start")
		fs.Bool("private", false, "only visible to you and invitees")
	}
	return &command{
		name:    "events",
		usage:   "eventctl events <command>",
		summary: "List, show, create, update and delete events",
		subcommands: []*command{
			{
				name:    "list",
				usage:   "eventctl events list [--search TEXT] [--location TEXT]",
				summary: "List events",
				flags: func(fs *pflag.FlagSet) {
					fs.String("search", "", "free-text search")
					fs.String("location", "", "location filter")
				},
				run: s.with(listEvents),
			},
			{
				name:    "show",
				usage:   "eventctl events show ID",
				summary: "Show an event with its reviews",
				run:     s.with(showEvent),
			},
			{
				name:    "create",
				usage:   "eventctl events create --title T --description D --location L --start TIME --end TIME [--private]",
				summary: "Create an event",
				flags:   formFlags,
				run:     s.with(saveEvent(false)),
			},
			{
				name:    "update",
				usage:   "eventctl events update ID [flags]",
				summary: "Change an event you organize",
				flags:   formFlags,
				run:     s.with(saveEvent(true)),
			},
			{
				name:    "delete",
				usage:   "eventctl events delete ID",
				summary: "Delete an event you organize",
				run: s.with(func(ctx context.Context, e *env, _ *pflag.FlagSet, args []string) error {
					id, err := eventID(args)
					if err != nil {
						return err
					}
					return e.app.EventDetailPage(id).Delete(ctx)
				}),
			},
		},
	}
}

func eventID(args []string) (int, error) {
	if err := wantArgs(args, 1, "an event ID"); err != nil {
		return 0, err
	}
	return parseID(args[0])
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

func listEvents(ctx context.Context, e *env, fs *pflag.FlagSet, _ []string) error {
	page := e.app.EventsPage(nil)
	defer page.Close()
	if v, _ := fs.GetString("search"); v != "" {
		page.SetSearch(v)
	}
	if v, _ := fs.GetString("location"); v != "" {
		page.SetLocation(v)
	}
	r := page.Load(ctx)
	switch r.State {
	case view.StateError, view.StateNotFound:
		return loadFailed(r)
	case view.StateEmpty:
		fmt.Fprintln(e.con.out, "No events found")
		return nil
	}
	printEvents(e.con.out, r.Data)
	return nil
}

func showEvent(ctx context.Context, e *env, _ *pflag.FlagSet, args []string) error {
	id, err := eventID(args)
	if err != nil {
		return err
	}
	d := e.app.EventDetailPage(id).Load(ctx)
	if d.Event.Err != nil {
		return loadFailed(d.Event)
	}
	printEventDetail(e.con.out, d)
	return nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// applyForm copies the flags that were set onto in.
func applyForm(fs *pflag.FlagSet, in *domain.EventInput) error {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	str("title", &in.Title)
	str("description", &in.Description)
	str("location", &in.Location)
	for name, dst := range map[string]*time.Time{"start": &in.StartTime, "end": &in.EndTime} {
		if !fs.Changed(name) {
			continue
		}
		v, _ := fs.GetString(name)
		t, err := parseTime(v)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = t
	}
	if fs.Changed("private") {
		private, _ := fs.GetBool("private")
		in.IsPublic = !private
	}
	return nil
}

// saveEvent creates an event, or with editing updates the event named by the one argument.
func saveEvent(editing bool) leafFunc {
	return func(ctx context.Context, e *env, fs *pflag.FlagSet, args []string) error {
		form := e.app.CreateEventPage()
		if editing {
			id, err := eventID(args)
			if err != nil {
				return err
			}
			form = e.app.EditEventPage(id)
		} else if err := wantArgs(args, 0, "no arguments"); err != nil {
			return err
		}
		in, err := form.Load(ctx)
		if err != nil {
			return err
		}
		if err := applyForm(fs, &in); err != nil {
			return err
		}
		ev, err := form.Submit(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.con.out, "%d\t%s\n", ev.ID, ev.Title)
		return nil
	}
}

func rsvp(ctx context.Context, e *env, _ *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 2, "an event ID and a status"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status, err := domain.ParseRSVPStatus(args[1])
	if err != nil {
		return err
	}
	res, err := e.app.EventDetailPage(id).RSVP(ctx, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.con.out, "%d attending\n", res.AttendeeCount)
	return nil
}

func reviewsCommand(s *shell) *command {
	return &command{
		name:    "reviews",
		usage:   "eventctl reviews <command>",
		summary: "Read and write event reviews",
		subcommands: []*command{
			{
				name:    "list",
				usage:   "eventctl reviews list ID",
				summary: "List the reviews of an event",
				run: s.with(func(ctx context.Context, e *env, _ *pflag.FlagSet, args []string) error {
					id, err := eventID(args)
					if err != nil {
						return err
					}
					d := e.app.EventDetailPage(id).Load(ctx)
					if d.Reviews.Err != nil {
						return loadFailed(d.Reviews)
					}
					if d.Reviews.State == view.StateEmpty {
						fmt.Fprintln(e.con.out, "No reviews yet")
						return nil
					}
					printReviews(e.con.out, d.Reviews.Data)
					return nil
				}),
			},
			{
				name:    "add",
				usage:   "eventctl reviews add ID --rating 1-5 --comment TEXT",
				summary: "Review an event",
				flags: func(fs *pflag.FlagSet) {
					fs.Int("rating", 5, "rating from 1 to 5")
					fs.String("comment", "", "what you thought")
				},
				run: s.with(func(ctx context.Context, e *env, fs *pflag.FlagSet, args []string) error {
					id, err := eventID(args)
					if err != nil {
						return err
					}
					var in domain.ReviewInput
					in.Rating, _ = fs.GetInt("rating")
					in.Comment, _ = fs.GetString("comment")
					_, err = e.app.EventDetailPage(id).SubmitReview(ctx, in)
					return err
				}),
			},
		},
	}
}

func dashboard(ctx context.Context, e *env, _ *pflag.FlagSet, _ []string) error {
	r := e.app.DashboardPage().Load(ctx)
	if r.Err != nil {
		return loadFailed(r)
	}
	printDashboard(e.con.out, r.Data)
	return nil
}

func profileCommand(s *shell) *command {
	return &command{
		name:    "profile",
		usage:   "eventctl profile <command>",
		summary: "Show or edit your profile",
		subcommands: []*command{
			{
				name:    "show",
				summary: "Show your profile",
				run: s.with(func(ctx context.Context, e *env, _ *pflag.FlagSet, _ []string) error {
					r := e.app.ProfilePage().Load(ctx)
					if r.Err != nil {
						return loadFailed(r)
					}
					printProfile(e.con.out, r.Data)
					return nil
				}),
			},
			{
				name:    "update",
				usage:   "eventctl profile update [--first-name N] [--last-name N] [--full-name N] [--bio B] [--location L]",
				summary: "Edit your profile",
				flags: func(fs *pflag.FlagSet) {
					fs.String("first-name", "", "first name")
					fs.String("last-name", "", "last name")
					fs.String("full-name", "", "full name")
					fs.String("bio", "", "short bio")
					fs.String("location", "", "where you are based")
				},
				run: s.with(func(ctx context.Context, e *env, fs *pflag.FlagSet, _ []string) error {
					upd := profileUpdate(fs)
					if upd.IsEmpty() {
						return errors.New("nothing to update")
					}
					p, err := e.app.ProfilePage().Save(ctx, upd)
					if err != nil {
						return err
					}
					printProfile(e.con.out, p)
					return nil
				}),
			},
		},
	}
}

func profileUpdate(fs *pflag.FlagSet) userdomain.ProfileUpdate {
	opt := func(name string) *string {
		if !fs.Changed(name) {
			return nil
		}
		v, _ := fs.GetString(name)
		return &v
	}
	return userdomain.ProfileUpdate{
		FirstName: opt("first-name"),
		LastName:  opt("last-name"),
		FullName:  opt("full-name"),
		Bio:       opt("bio"),
		Location:  opt("location"),
	}
}
