package apperrors

// Code identifies a stable error category surfaced to callers and, through
// handlers, to the UI. Backend-specific error strings are translated into
// these and never shown raw.
type Code string

const (
	CodeUnknown              Code = "UNEXPECTED"
	CodeDuplicateAccount     Code = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeUnconfirmedEmail     Code = "UNCONFIRMED_EMAIL"
	CodeWeakPassword         Code = "WEAK_PASSWORD"
	CodeProfileAlreadyExists Code = "PROFILE_ALREADY_EXISTS"
	CodeProfileNotFound      Code = "PROFILE_NOT_FOUND"
	CodeMatchCreationFailed  Code = "MATCH_CREATION_FAILED"
	CodeSendFailed           Code = "SEND_FAILED"
	CodeTransport            Code = "TRANSPORT_ERROR"
)
