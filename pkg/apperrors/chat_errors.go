package apperrors

var (
	// User-facing messages match the wording the UI always showed.
	ErrDuplicateAccount   = DuplicateAccount("An account with this email already exists. Please sign in instead.")
	ErrInvalidCredentials = InvalidCredentials("Invalid email or password. Please check your credentials.")
	ErrUnconfirmedEmail   = New(CodeUnconfirmedEmail, "Please check your email and click the confirmation link before signing in.")
	ErrWeakPassword       = WeakPassword("Password must be at least 6 characters long.")
	ErrProfileExists      = ProfileAlreadyExists("You can only have one profile! Please update your existing profile instead.")
	ErrProfileNotFound    = ProfileNotFound("No profile found for this user.")
	ErrEmptyMessage       = New(CodeSendFailed, "Message content cannot be empty.")
)
