package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"event-management/client/internal/events/domain"
	userdomain "event-management/client/internal/user/domain"
	"event-management/client/internal/view"
)

const timeFormat = "Mon Jan 2 2006 15:04"

func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeFormat)
}

func printEvents(w io.Writer, list []domain.Event) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTARTS\tLOCATION\tGOING\tRSVP")
	for _, ev := range list {
		status := "-"
		if ev.UserRSVP != nil {
			status = string(*ev.UserRSVP)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", ev.ID, ev.Title, when(ev.StartTime), ev.Location, ev.AttendeeCount, status)
	}
	_ = tw.Flush()
}

func printEventDetail(w io.Writer, d view.EventDetail) {
	ev := d.Event.Data
	visibility := "public"
	if !ev.IsPublic {
		visibility = "private"
	}
	fmt.Fprintf(w, "%s (#%d, %s)\n", ev.Title, ev.ID, visibility)
	fmt.Fprintf(w, "Organizer: %s\n", ev.Organizer)
	fmt.Fprintf(w, "When:      %s to %s\n", when(ev.StartTime), when(ev.EndTime))
	fmt.Fprintf(w, "Where:     %s\n", ev.Location)
	fmt.Fprintf(w, "Going:     %d\n", ev.AttendeeCount)
	if ev.UserRSVP != nil {
		fmt.Fprintf(w, "Your RSVP: %s\n", *ev.UserRSVP)
	}
	fmt.Fprintf(w, "\n%s\n", ev.Description)
	if actions := actionNames(d); len(actions) > 0 {
		fmt.Fprintf(w, "\nYou can: %s\n", strings.Join(actions, ", "))
	}
	if len(d.Reviews.Data) > 0 {
		fmt.Fprintln(w, "\nReviews:")
		printReviews(w, d.Reviews.Data)
	}
}

func actionNames(d view.EventDetail) []string {
	var out []string
	a := d.Actions
	for _, x := range []struct {
		ok   bool
		name string
	}{
		{a.RSVP, "rsvp"},
		{a.SubmitReview, "review"},
		{a.EditEvent, "edit"},
		{a.DeleteEvent, "delete"},
	} {
		if x.ok {
			out = append(out, x.name)
		}
	}
	return out
}

func printReviews(w io.Writer, list []domain.Review) {
	for _, rv := range list {
		name := rv.UserFullName
		if name == "" {
			name = rv.User
		}
		fmt.Fprintf(w, "  %s %s, %s\n", stars(rv.Rating), name, rv.CreatedAt.Local().Format("Jan 2 2006"))
		fmt.Fprintf(w, "    %s\n", rv.Comment)
	}
}

func stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("*", rating) + strings.Repeat(".", 5-rating)
}

func printDashboard(w io.Writer, d *domain.Dashboard) {
	fmt.Fprintf(w, "Organizing (%d):\n", d.OrganizedCount)
	if len(d.OrganizedEvents) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		printEvents(w, d.OrganizedEvents)
	}
	fmt.Fprintf(w, "\nAttending (%d):\n", d.RSVPCount)
	if len(d.RSVPedEvents) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		printEvents(w, d.RSVPedEvents)
	}
}

func printProfile(w io.Writer, p *userdomain.Profile) {
	name := p.FullName
	if name == "" {
		name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	fmt.Fprintf(w, "%s <%s>\n", name, p.Email)
	if p.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", p.Location)
	}
	if p.Bio != "" {
		fmt.Fprintf(w, "Bio:      %s\n", p.Bio)
	}
}
