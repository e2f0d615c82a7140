package models

const (
	// DefaultLimit is the max number of rows that are retrieved from the DB per listing API call
	DefaultLimit = 50
	// MaxLimit caps the page size a caller may request
	MaxLimit = 200
)

// ListOptions represents pagination and filtering options for list operations
type ListOptions struct {
	Limit  int         `json:"limit"`            // Number of items to return
	Offset int         `json:"offset"`           // Number of items to skip
	Status *TaskStatus `json:"status,omitempty"` // Filter by task status
}

// Normalize clamps the options into the accepted range
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
