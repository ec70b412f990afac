package api

import "maps"

// ResponseTemplate overrides the gateway's response for one template key and
// media type.
type ResponseTemplate struct {
	Status  int               `json:"status" yaml:"status"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// Clone returns a deep copy of the template.
func (t ResponseTemplate) Clone() ResponseTemplate {
	t.Headers = maps.Clone(t.Headers)
	return t
}

// ResponseTemplateSet maps a media type (e.g. "application/json", "*/*") to
// its template.
type ResponseTemplateSet map[string]ResponseTemplate

// Clone returns a deep copy of the set.
func (s ResponseTemplateSet) Clone() ResponseTemplateSet {
	if s == nil {
		return nil
	}
	out := make(ResponseTemplateSet, len(s))
	for mediaType, t := range s {
		out[mediaType] = t.Clone()
	}
	return out
}

// DefaultMediaType is the media type seeded into a new template set.
const DefaultMediaType = "*/*"

// DefaultTemplateStatus is the status code of a new template.
const DefaultTemplateStatus = 400

// TemplateKeys returns the gateway failure keys a response template can
// override. Custom keys are allowed as well.
func TemplateKeys() []string {
	return []string{
		"API_KEY_MISSING",
		"API_KEY_INVALID",
		"QUOTA_TOO_MANY_REQUESTS",
		"RATE_LIMIT_TOO_MANY_REQUESTS",
		"REQUEST_CONTENT_LIMIT_TOO_LARGE",
		"REQUEST_CONTENT_LIMIT_LENGTH_REQUIRED",
		"REQUEST_TIMEOUT",
		"REQUEST_VALIDATION_INVALID",
		"RESOURCE_FILTERING_FORBIDDEN",
		"RBAC_FORBIDDEN",
		"RBAC_INVALID_USER_ROLES",
		"RBAC_NO_USER_ROLE",
	}
}
