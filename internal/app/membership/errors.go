// internal/app/membership/errors.go
package membership

import "errors"

var (
	// ErrSocietyNotFound: the target society does not exist.
	ErrSocietyNotFound = errors.New("society not found")

	// ErrAlreadyMember: the identity already belongs to a society.
	ErrAlreadyMember = errors.New("identity is already a society member")

	// ErrDuplicatePending: the identity already has a pending join request.
	ErrDuplicatePending = errors.New("identity already has a pending join request")

	// ErrRequestNotFound: no society holds a request with this id.
	ErrRequestNotFound = errors.New("join request not found")

	// ErrAlreadyReviewed: the request left the pending state before this
	// operation got to it.
	ErrAlreadyReviewed = errors.New("join request already reviewed")

	// ErrNotOwner: the caller does not own the request it is acting on.
	ErrNotOwner = errors.New("join request belongs to another identity")

	// ErrTransientConflict: concurrent writers kept invalidating the
	// society's version across every retry. The caller may try again.
	ErrTransientConflict = errors.New("transient conflict, retry the operation")
)
