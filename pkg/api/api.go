// Package api defines the managed API definition edited by apictl: the API
// aggregate, its endpoint groups and endpoints, and its response templates.
//
// Every type with nested state has a Clone method that returns a fully
// independent deep copy. Editing sessions rely on this to keep snapshots
// isolated from the values being edited.
package api

import "slices"

// API is the aggregate persisted by the management service.
type API struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Visibility  string   `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Proxy Proxy `json:"proxy" yaml:"proxy"`

	// ResponseTemplates maps a template key (e.g. API_KEY_MISSING) to the
	// templates for that key, indexed by media type.
	ResponseTemplates map[string]ResponseTemplateSet `json:"response_templates,omitempty" yaml:"response_templates,omitempty"`

	// ETag is the concurrency token returned with the last read or write.
	// It travels in HTTP headers, never in the body.
	ETag string `json:"-" yaml:"-"`
}

// Proxy holds the gateway proxy configuration of an API.
type Proxy struct {
	ContextPath string           `json:"context_path,omitempty" yaml:"context_path,omitempty"`
	StripPath   bool             `json:"strip_context_path,omitempty" yaml:"strip_context_path,omitempty"`
	Groups      []*EndpointGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// LoadBalancerType selects how a group spreads traffic across endpoints.
type LoadBalancerType string

const (
	LoadBalancerRoundRobin         LoadBalancerType = "ROUND_ROBIN"
	LoadBalancerRandom             LoadBalancerType = "RANDOM"
	LoadBalancerWeightedRoundRobin LoadBalancerType = "WEIGHTED_ROUND_ROBIN"
	LoadBalancerWeightedRandom     LoadBalancerType = "WEIGHTED_RANDOM"
)

// LoadBalancer is a group's load balancing setting.
type LoadBalancer struct {
	Type LoadBalancerType `json:"type" yaml:"type"`
}

// EndpointGroup is a named set of backend endpoints.
type EndpointGroup struct {
	Name         string        `json:"name" yaml:"name"`
	LoadBalancer *LoadBalancer `json:"load_balancing,omitempty" yaml:"load_balancing,omitempty"`
	Endpoints    []*Endpoint   `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
}

// Key returns the group name.
func (g *EndpointGroup) Key() string { return g.Name }

// Clone returns a deep copy of the group, endpoints included.
func (g *EndpointGroup) Clone() *EndpointGroup {
	if g == nil {
		return nil
	}
	out := &EndpointGroup{Name: g.Name}
	if g.LoadBalancer != nil {
		lb := *g.LoadBalancer
		out.LoadBalancer = &lb
	}
	out.Endpoints = CloneAll(g.Endpoints)
	return out
}

// DefaultGroup returns the shape used when a group is created.
func DefaultGroup() *EndpointGroup {
	return &EndpointGroup{
		LoadBalancer: &LoadBalancer{Type: LoadBalancerRoundRobin},
	}
}

// Group returns the first group named name.
func (a *API) Group(name string) (*EndpointGroup, bool) {
	for _, g := range a.Proxy.Groups {
		if g != nil && g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the API, ETag included.
func (a *API) Clone() *API {
	if a == nil {
		return nil
	}
	out := *a
	out.Tags = slices.Clone(a.Tags)
	out.Proxy.Groups = CloneAll(a.Proxy.Groups)
	if a.ResponseTemplates != nil {
		out.ResponseTemplates = make(map[string]ResponseTemplateSet, len(a.ResponseTemplates))
		for k, set := range a.ResponseTemplates {
			out.ResponseTemplates[k] = set.Clone()
		}
	}
	return &out
}

// Cloner is implemented by every item type that can be deep copied.
type Cloner[T any] interface {
	Clone() T
}

// CloneAll deep copies every element of items. A nil slice stays nil.
func CloneAll[T Cloner[T]](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
