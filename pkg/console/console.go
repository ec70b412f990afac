// Package console holds the editor controllers behind the endpoint and
// response template screens. A controller owns one editing session and talks
// to the outside through small interfaces: where to go next, what to tell the
// operator, and whether the form has unsaved edits.
package console

import (
	"context"
	"log/slog"

	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/logging"
	"github.com/getmockd/apictl/pkg/session"
)

// State names a screen of the console.
type State string

const (
	StateEndpoints State = "management.apis.detail.proxy.endpoints"
	StateTemplates State = "management.apis.detail.proxy.responsetemplates.list"
)

// Params are the navigation parameters of an editor screen.
type Params struct {
	APIID       string
	Group       string
	Endpoint    string
	TemplateKey string
}

// Navigator moves the console to another screen.
type Navigator interface {
	Go(state State, params Params) error
}

// Notifier shows a short message to the operator.
type Notifier interface {
	Show(message string)
}

// Form tracks whether the edited form has unsaved changes.
type Form interface {
	SetPristine()
	SetDirty()
}

// TenantSource lists the tenants an endpoint can be restricted to.
type TenantSource interface {
	ListTenants(ctx context.Context) ([]types.Tenant, error)
}

// Deps are the collaborators of an editor. Only Persister is required.
type Deps struct {
	Persister session.Persister
	Navigator Navigator
	Notifier  Notifier
	Form      Form
	Tenants   TenantSource
	Publisher session.Publisher
	Logger    *slog.Logger
}

type nopNavigator struct{}

func (nopNavigator) Go(State, Params) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Show(string) {}

type nopForm struct{}

func (nopForm) SetPristine() {}
func (nopForm) SetDirty()    {}

func (d Deps) withDefaults() Deps {
	if d.Navigator == nil {
		d.Navigator = nopNavigator{}
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Form == nil {
		d.Form = nopForm{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	return d
}

func (d Deps) sessionOptions() []session.Option {
	opts := []session.Option{session.WithLogger(d.Logger)}
	if d.Publisher != nil {
		opts = append(opts, session.WithPublisher(d.Publisher))
	}
	return opts
}
