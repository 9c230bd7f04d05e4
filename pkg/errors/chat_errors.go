package errors

var (
	// Friend-request state machine
	ErrSelfTarget           = InvalidArg("cannot target yourself")
	ErrAlreadyFriends       = FailedPrecondition("you are already friends")
	ErrDuplicateRequest     = FailedPrecondition("friend request already sent")
	ErrReverseRequestExists = FailedPrecondition("this user already sent you a request, accept it instead")
	ErrNoSuchRequest        = FailedPrecondition("no pending friend request from this user")
	ErrNotFriends           = FailedPrecondition("you are not friends with this user")

	// Messaging
	ErrEmptyMessage = InvalidArg("message must contain text or media")

	// Users / auth
	ErrUserNotFound   = NotFound("user not found")
	ErrUsernameTaken  = AlreadyExists("username is already taken")
	ErrBadCredentials = Unauthorized("invalid username or password")
)

// ErrPersistence marks a storage failure; nothing was delivered.
func ErrPersistence(cause error) error {
	return Wrap(CodeInternal, "failed to persist", cause)
}
