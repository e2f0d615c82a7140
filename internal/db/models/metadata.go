package models

// ServiceType identifies which provider backs a task
type ServiceType string

// Provider service types
const (
	ServiceTypeSync  ServiceType = "sync-provider"
	ServiceTypeAsync ServiceType = "async-provider"
)

// MetadataServiceTypeKey is the JSON key of the service type inside the metadata column
const MetadataServiceTypeKey = "serviceType"

// TaskMetadata is the provider bag stored in the task's JSON column
type TaskMetadata struct {
	ServiceType ServiceType `json:"serviceType,omitempty"`
	// ExternalTaskID is written once when the async provider accepts the job
	ExternalTaskID    string                 `json:"externalTaskId,omitempty"`
	Description       string                 `json:"description,omitempty"`
	OriginalResultURL string                 `json:"originalResultUrl,omitempty"`
	ProviderStatus    string                 `json:"providerStatus,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// IsAsync reports whether the task is served by the async provider
func (m TaskMetadata) IsAsync() bool {
	return m.ServiceType == ServiceTypeAsync
}

// Merge copies diagnostic fields from other without touching identity fields
// (service type and external task id)
func (m TaskMetadata) Merge(other TaskMetadata) TaskMetadata {
	if other.Description != "" {
		m.Description = other.Description
	}
	if other.OriginalResultURL != "" {
		m.OriginalResultURL = other.OriginalResultURL
	}
	if other.ProviderStatus != "" {
		m.ProviderStatus = other.ProviderStatus
	}
	if len(other.Extra) > 0 {
		merged := make(map[string]interface{}, len(m.Extra)+len(other.Extra))
		for k, v := range m.Extra {
			merged[k] = v
		}
		for k, v := range other.Extra {
			merged[k] = v
		}
		m.Extra = merged
	}
	return m
}
