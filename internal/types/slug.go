// Package types holds the wire types shared by the API server and its clients
package types

// Slug is a type for the slug field in the response
// It is mainly used for the client to understand the type of the response
type Slug string

// nolint:gochecknoglobals
const (
	SuccessSlug        Slug = "success"
	InvalidInputSlug   Slug = "invalid-input"
	NotFoundSlug       Slug = "not-found"
	QuotaExhaustedSlug Slug = "quota-exhausted"
	ProviderErrorSlug  Slug = "provider-error"
	UnauthorizedSlug   Slug = "unauthorized"
	ServerErrorSlug    Slug = "server-error"
)

// SlugResponse is the response type for the API
type SlugResponse struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// ErrInvalidInput returns a SlugResponse with the InvalidInputSlug and the error message
func ErrInvalidInput(msg string) SlugResponse {
	return SlugResponse{
		Slug:  InvalidInputSlug,
		Error: msg,
	}
}

// ErrNotFound returns a SlugResponse with the NotFoundSlug and the error message
func ErrNotFound(msg string) SlugResponse {
	return SlugResponse{
		Slug:  NotFoundSlug,
		Error: msg,
	}
}

// ErrQuotaExhausted returns a SlugResponse with the QuotaExhaustedSlug and the error message
func ErrQuotaExhausted(msg string) SlugResponse {
	return SlugResponse{
		Slug:  QuotaExhaustedSlug,
		Error: msg,
	}
}

// ErrProvider returns a SlugResponse with the ProviderErrorSlug and the error message
func ErrProvider(msg string) SlugResponse {
	return SlugResponse{
		Slug:  ProviderErrorSlug,
		Error: msg,
	}
}

// ErrUnauthorized returns a SlugResponse with the UnauthorizedSlug and the error message
func ErrUnauthorized(msg string) SlugResponse {
	return SlugResponse{
		Slug:  UnauthorizedSlug,
		Error: msg,
	}
}

// ErrServer returns a SlugResponse with the ServerErrorSlug and the error message
func ErrServer(msg string) SlugResponse {
	return SlugResponse{
		Slug:  ServerErrorSlug,
		Error: msg,
	}
}

// Success returns a SlugResponse with the SuccessSlug and the data
func Success(data interface{}) SlugResponse {
	return SlugResponse{
		Slug: SuccessSlug,
		Data: data,
	}
}
