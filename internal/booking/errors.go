package booking

import "errors"

// RejectionReason names the business-rule check a booking request failed.
// Reasons are part of the caller contract: handlers map each one to a
// distinct response instead of collapsing them into a generic failure.
type RejectionReason string

const (
	ReasonSessionNotFound      RejectionReason = "SESSION_NOT_FOUND"
	ReasonSessionInPast        RejectionReason = "SESSION_IN_PAST"
	ReasonNoMembership         RejectionReason = "NO_MEMBERSHIP"
	ReasonSubscriptionInactive RejectionReason = "SUBSCRIPTION_INACTIVE"
	ReasonAlreadyBooked        RejectionReason = "ALREADY_BOOKED"
	ReasonOverlappingBooking   RejectionReason = "OVERLAPPING_BOOKING"
	ReasonWeeklyLimitReached   RejectionReason = "WEEKLY_LIMIT_REACHED"
	ReasonSessionFull          RejectionReason = "SESSION_FULL"
)

// RejectionError is a precondition or capacity rejection. Losing the
// capacity race after lock acquisition surfaces as the same SessionFull
// rejection as the precondition version, so callers need one handling path.
type RejectionError struct {
	Reason  RejectionReason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

var (
	ErrSessionNotFound      = &RejectionError{ReasonSessionNotFound, "session not found"}
	ErrSessionInPast        = &RejectionError{ReasonSessionInPast, "cannot book a session that has already passed"}
	ErrNoMembership         = &RejectionError{ReasonNoMembership, "a membership level is required to book sessions"}
	ErrSubscriptionInactive = &RejectionError{ReasonSubscriptionInactive, "subscription has expired"}
	ErrAlreadyBooked        = &RejectionError{ReasonAlreadyBooked, "this session is already booked"}
	ErrOverlappingBooking   = &RejectionError{ReasonOverlappingBooking, "an overlapping booking exists at this time"}
	ErrWeeklyLimitReached   = &RejectionError{ReasonWeeklyLimitReached, "weekly booking limit reached"}
	ErrSessionFull          = &RejectionError{ReasonSessionFull, "this session is full"}
)

// Non-rejection failures of the booking surface.
var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotBookingOwner  = errors.New("booking belongs to another user")
	ErrBookingStarted   = errors.New("cannot cancel a booking for a session that has already started")
	ErrInvalidStatus    = errors.New("invalid booking status")
	ErrLockNotAcquired  = errors.New("could not acquire session admission lock")
	ErrQRNotConfirmed   = errors.New("check-in codes are issued for confirmed bookings only")
)

// AsRejection unwraps err into a RejectionError when it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
