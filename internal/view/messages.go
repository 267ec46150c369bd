package view

// Messages shown to the user.
const (
	MsgLoginToCreate    = "Please login to create an event"
	MsgLoginToEdit      = "Please login to edit events"
	MsgLoginToRSVP      = "Please login to RSVP"
	MsgLoginToReview    = "Please login to submit a review"
	MsgLoginToDashboard = "Please login to view your dashboard"
	MsgLoginToProfile   = "Please login to view your profile"
	MsgLoginRequired    = "Please login to continue"

	MsgNoCreatePermission = "You don't have permission to create events"
	MsgNoEditPermission   = "You don't have permission to edit this event"
	MsgNoDeletePermission = "You don't have permission to delete this event"
	MsgNoRSVPPermission   = "You don't have permission to RSVP to this event"
	MsgNoReviewPermission = "You don't have permission to review this event"
	MsgNoEditReview       = "You don't have permission to edit this review"

	MsgEventCreated   = "Event created successfully!"
	MsgEventUpdated   = "Event updated successfully!"
	MsgEventDeleted   = "Event deleted successfully"
	MsgReviewSent     = "Review submitted successfully!"
	MsgReviewUpdated  = "Review updated successfully!"
	MsgReviewDeleted  = "Review deleted successfully"
	MsgProfileUpdated = "Profile updated successfully!"
	msgRSVPUpdated    = "RSVP updated to: "

	MsgCreateFailed        = "Failed to create event"
	MsgUpdateFailed        = "Failed to update event"
	MsgDeleteFailed        = "Failed to delete event"
	MsgLoadFailed          = "Failed to load event"
	MsgRSVPFailed          = "Failed to update RSVP"
	MsgReviewFailed        = "Failed to submit review"
	MsgReviewUpdateFailed  = "Failed to update review"
	MsgReviewDeleteFailed  = "Failed to delete review"
	MsgProfileUpdateFailed = "Failed to update profile"
	MsgUnexpected          = "Something went wrong"
)
