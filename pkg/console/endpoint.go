package console

import (
	"context"
	"fmt"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/session"
)

// MessageEndpointSaved is shown after an endpoint is saved.
const MessageEndpointSaved = "Endpoint saved"

// EndpointEditor edits one endpoint of an endpoint group.
type EndpointEditor struct {
	sess    *session.Session[*api.Endpoint]
	deps    Deps
	params  Params
	tenants []types.Tenant
}

// NewEndpointEditor opens the endpoint named by params.Endpoint in group
// params.Group. An unknown endpoint name opens a new endpoint with default
// settings. Tenants are loaded when deps.Tenants is set.
func NewEndpointEditor(ctx context.Context, a *api.API, params Params, deps Deps) (*EndpointEditor, error) {
	if deps.Persister == nil {
		return nil, session.ErrNoPersister
	}
	deps = deps.withDefaults()

	sess, err := session.Open(a, session.Endpoints(params.Group), params.Endpoint, api.DefaultEndpoint(), deps.sessionOptions()...)
	if err != nil {
		return nil, err
	}

	e := &EndpointEditor{sess: sess, deps: deps, params: params}
	if deps.Tenants != nil {
		tenants, err := deps.Tenants.ListTenants(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading tenants: %w", err)
		}
		e.tenants = tenants
	}
	return e, nil
}

// Endpoint returns the endpoint being edited.
func (e *EndpointEditor) Endpoint() *api.Endpoint { return e.sess.Target() }

// Session returns the underlying editing session.
func (e *EndpointEditor) Session() *session.Session[*api.Endpoint] { return e.sess }

// IsCreation reports whether the endpoint did not exist when the editor opened.
func (e *EndpointEditor) IsCreation() bool { return e.sess.IsCreation() }

// Tenants returns the tenants the endpoint can be restricted to.
func (e *EndpointEditor) Tenants() []types.Tenant { return e.tenants }

// ProxyTypes returns the selectable forward proxy types.
func (e *EndpointEditor) ProxyTypes() []api.ProxyTypeChoice { return api.ProxyTypes() }

// ToggleTrustAll sets trust-all on the endpoint; trusting all certificates
// turns SSL on.
func (e *EndpointEditor) ToggleTrustAll(on bool) {
	e.Endpoint().SetTrustAll(on)
	e.deps.Form.SetDirty()
}

// ToggleSSL turns SSL on or off; turning it off clears trust-all.
func (e *EndpointEditor) ToggleSSL(on bool) {
	e.Endpoint().SetSSLEnabled(on)
	e.deps.Form.SetDirty()
}

// Save commits the endpoint, then notifies the operator and returns to the
// endpoint list. On failure nothing is shown and the editor stays open.
func (e *EndpointEditor) Save(ctx context.Context) (*api.API, error) {
	updated, err := e.sess.Commit(ctx, e.deps.Persister)
	if err != nil {
		return nil, err
	}
	e.deps.Form.SetPristine()
	e.deps.Notifier.Show(MessageEndpointSaved)
	if err := e.deps.Navigator.Go(StateEndpoints, e.params); err != nil {
		e.deps.Logger.Warn("navigation failed", "state", StateEndpoints, "error", err)
	}
	return updated, nil
}

// Reset discards unsaved edits and marks the form pristine.
func (e *EndpointEditor) Reset() error {
	if err := e.sess.Revert(); err != nil {
		return err
	}
	e.deps.Form.SetPristine()
	return nil
}

// Back discards unsaved edits and returns to the endpoint list.
func (e *EndpointEditor) Back() error {
	if err := e.sess.Revert(); err != nil {
		return err
	}
	return e.deps.Navigator.Go(StateEndpoints, e.params)
}
