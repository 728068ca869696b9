package services

import "errors"

// Error taxonomy for the notification core.
//
// ErrIntegrity marks a referenced event, post, comment, or account that
// could not be resolved during fan-out or read reconstruction. It means the
// write and read models have diverged and always aborts the enclosing
// operation; it is never silently skipped. Policy denials, by contrast, are
// plain booleans and never errors. Store failures propagate as-is and are
// not retried here.
var (
	ErrIntegrity     = errors.New("data integrity violation")
	ErrUserNotFound  = errors.New("user not found")
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrNoSuchRequest = errors.New("no pending follow request from this user")
	ErrNotAccepted   = errors.New("close friend must be an accepted following")
	ErrBlocked       = errors.New("interaction not permitted between these users")
)
