package classify

// ErrorCategory represents the classification of an API error.
type ErrorCategory int

const (
	// CategoryUnknown means the error did not match any known pattern.
	CategoryUnknown ErrorCategory = iota
	// CategoryTransient means a temporary server or network fault.
	CategoryTransient
	// CategoryRateLimited means the provider rejected the call for quota reasons.
	CategoryRateLimited
	// CategoryOverloaded means the provider is shedding load.
	CategoryOverloaded
	// CategoryContextExceeded means the request exceeded the model's context window.
	CategoryContextExceeded
	// CategoryAuthentication means the credentials were rejected.
	CategoryAuthentication
	// CategoryPermission means the credentials lack access to the resource.
	CategoryPermission
	// CategoryBadRequest means the request itself is malformed.
	CategoryBadRequest
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryOverloaded:
		return "overloaded"
	case CategoryContextExceeded:
		return "context_exceeded"
	case CategoryAuthentication:
		return "authentication"
	case CategoryPermission:
		return "permission"
	case CategoryBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}
