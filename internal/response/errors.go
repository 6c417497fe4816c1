package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Course / test-specific ────────────────────────────────────────
	ErrCourseNameTaken   ErrCode = "COURSE_NAME_TAKEN"
	ErrCourseInvalid     ErrCode = "COURSE_INVALID"
	ErrAlreadyTaken      ErrCode = "ALREADY_TAKEN"
	ErrCourseNotReleased ErrCode = "COURSE_NOT_RELEASED"
	ErrCourseAuthFailed  ErrCode = "COURSE_AUTH_FAILED"
	ErrTestTimedOut      ErrCode = "TEST_TIMED_OUT"
	ErrInvalidQuestionID ErrCode = "INVALID_QUESTION_ID"
	ErrNoActiveTest      ErrCode = "NO_ACTIVE_TEST"
	ErrNoResults         ErrCode = "NO_RESULTS"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Course / test-specific ────────────────────────────────────────
	case ErrCourseNameTaken:
		return "A course with the given name already exists."
	case ErrCourseInvalid:
		return "Invalid course."
	case ErrAlreadyTaken:
		return "You took this course already."
	case ErrCourseNotReleased:
		return "This course has not been released yet."
	case ErrCourseAuthFailed:
		return "Course authentication failed."
	case ErrTestTimedOut:
		return "You have run out of time. Your result has been recorded."
	case ErrInvalidQuestionID:
		return "Invalid question ID. Test terminated."
	case ErrNoActiveTest:
		return "No test in progress for this course."
	case ErrNoResults:
		return "No results available."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
