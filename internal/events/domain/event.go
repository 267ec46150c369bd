package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrValidation marks input rejected before it reaches the API.
var ErrValidation = errors.New("validation failed")

// Messages shown for rejected input.
const (
	MsgRequiredFields   = "Please fill in all required fields"
	MsgTimesRequired    = "Please select both start and end date/time"
	MsgEndBeforeStart   = "End date/time must be after start date/time"
	MsgRatingRange      = "Rating must be between 1 and 5"
	MsgCommentTooShort  = "Comment must be at least 3 characters long"
	MsgCommentRequired  = "Please write a comment"
	MsgInvalidRSVP      = "Invalid RSVP status"
	minReviewCommentLen = 3
)

// ValidationError is input rejected locally. It matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// RSVPStatus is the viewer's attendance answer.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPNotGoing RSVPStatus = "not_going"
)

// ParseRSVPStatus accepts a wire value; "not-going" is accepted as an alias.
func ParseRSVPStatus(s string) (RSVPStatus, error) {
	switch st := RSVPStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")); st {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return st, nil
	default:
		return "", invalid(MsgInvalidRSVP)
	}
}

// Event is an event as listed or shown. UserRSVP and CanEdit are relative to the viewer.
type Event struct {
	ID            int         `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Organizer     string      `json:"organizer"`
	OrganizerID   int         `json:"organizer_id"`
	Location      string      `json:"location"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	IsPublic      bool        `json:"is_public"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	AttendeeCount int         `json:"attendee_count"`
	UserRSVP      *RSVPStatus `json:"user_rsvp"`
	CanEdit       bool        `json:"can_edit"`

	// Detail responses only.
	Reviews []Review `json:"reviews,omitempty"`
	RSVPs   []RSVP   `json:"rsvps,omitempty"`
}

// RSVP is one attendance record.
type RSVP struct {
	ID         int        `json:"id"`
	Event      int        `json:"event"`
	User       string     `json:"user"`
	EventTitle string     `json:"event_title"`
	Status     RSVPStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RSVPResult is the response of POST /events/{id}/rsvp/.
type RSVPResult struct {
	Message       string `json:"message"`
	RSVP          RSVP   `json:"rsvp"`
	AttendeeCount int    `json:"attendee_count"`
}

// Review is a rating and comment left on an event.
type Review struct {
	ID           int       `json:"id"`
	User         string    `json:"user"`
	UserFullName string    `json:"user_full_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CanEdit      bool      `json:"can_edit"`
}

// ReviewInput is a new or edited review.
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate checks rating bounds and comment length. The comment is trimmed in place.
func (r *ReviewInput) Validate() error {
	r.Comment = strings.TrimSpace(r.Comment)
	if r.Comment == "" {
		return invalid(MsgCommentRequired)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return invalid(MsgRatingRange)
	}
	if len([]rune(r.Comment)) < minReviewCommentLen {
		return invalid(MsgCommentTooShort)
	}
	return nil
}

// EventInput is the create/edit form.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsPublic    bool      `json:"is_public"`
}

// Validate applies the form rules in the order the form reports them.
func (in *EventInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if in.Title == "" || in.Description == "" || in.Location == "" {
		return invalid(MsgRequiredFields)
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return invalid(MsgTimesRequired)
	}
	if !in.EndTime.After(in.StartTime) {
		return invalid(MsgEndBeforeStart)
	}
	return nil
}

// InputFrom returns the editable fields of e, used to prefill the edit form.
func InputFrom(e *Event) EventInput {
	return EventInput{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		IsPublic:    e.IsPublic,
	}
}

// Dashboard is the signed-in user's summary.
type Dashboard struct {
	OrganizedEvents []Event `json:"organized_events"`
	RSVPedEvents    []Event `json:"rsvped_events"`
	RSVPCount       int     `json:"rsvp_count"`
	OrganizedCount  int     `json:"organized_count"`
}

// ListFilter narrows GET /events/. Empty fields are not sent.
type ListFilter struct {
	Search   string
	Location string
	// Ordering is a server ordering field, e.g. "-created_at" or "start_time".
	Ordering string
}

// Values is the query string of f with surrounding space trimmed and empty fields left out.
func (f ListFilter) Values() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		q.Set("location", s)
	}
	if s := strings.TrimSpace(f.Ordering); s != "" {
		q.Set("ordering", s)
	}
	return q
}

// String is the canonical form used in cache keys: the encoded Values, so separators typed
// into a field are escaped rather than read as another field.
func (f ListFilter) String() string {
	return f.Values().Encode()
}
