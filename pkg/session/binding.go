package session

import (
	"fmt"

	"github.com/getmockd/apictl/pkg/api"
)

// Binding locates a list-backed container inside an API definition.
type Binding[T any] struct {
	// Name describes the container in errors and logs.
	Name string
	// Items returns the container's current list.
	Items func(a *api.API) ([]T, error)
	// SetItems replaces the container's list.
	SetItems func(a *api.API, items []T) error
	// AssignKey, when set, stamps the session key onto a created item whose
	// own key is still empty at commit time.
	AssignKey func(item T, key string)
}

// Endpoints binds the endpoint list of the group named group.
func Endpoints(group string) Binding[*api.Endpoint] {
	lookup := func(a *api.API) (*api.EndpointGroup, error) {
		g, ok := a.Group(group)
		if !ok {
			return nil, fmt.Errorf("%w: group %q", ErrContainerNotFound, group)
		}
		return g, nil
	}
	return Binding[*api.Endpoint]{
		Name: fmt.Sprintf("group %q", group),
		Items: func(a *api.API) ([]*api.Endpoint, error) {
			g, err := lookup(a)
			if err != nil {
				return nil, err
			}
			return g.Endpoints, nil
		},
		SetItems: func(a *api.API, items []*api.Endpoint) error {
			g, err := lookup(a)
			if err != nil {
				return err
			}
			g.Endpoints = items
			return nil
		},
		AssignKey: func(e *api.Endpoint, name string) { e.Name = name },
	}
}

// Groups binds the endpoint group list of the API proxy.
func Groups() Binding[*api.EndpointGroup] {
	return Binding[*api.EndpointGroup]{
		Name: "proxy groups",
		Items: func(a *api.API) ([]*api.EndpointGroup, error) {
			return a.Proxy.Groups, nil
		},
		SetItems: func(a *api.API, items []*api.EndpointGroup) error {
			a.Proxy.Groups = items
			return nil
		},
		AssignKey: func(g *api.EndpointGroup, name string) { g.Name = name },
	}
}
