package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/event"
	"github.com/getmockd/apictl/pkg/session"
)

type recorder struct {
	states   []State
	params   []Params
	messages []string
	pristine int
	dirty    int
}

func (r *recorder) Go(state State, params Params) error {
	r.states = append(r.states, state)
	r.params = append(r.params, params)
	return nil
}
func (r *recorder) Show(message string) { r.messages = append(r.messages, message) }
func (r *recorder) SetPristine()        { r.pristine++ }
func (r *recorder) SetDirty()           { r.dirty++ }

type tenantList []types.Tenant

func (l tenantList) ListTenants(context.Context) ([]types.Tenant, error) { return l, nil }

type failingTenants struct{}

func (failingTenants) ListTenants(context.Context) ([]types.Tenant, error) {
	return nil, errors.New("unavailable")
}

func persistOK() session.Persister {
	return session.PersisterFunc(func(_ context.Context, a *api.API) (*api.API, string, error) {
		return a.Clone(), `"v2"`, nil
	})
}

func persistFail(err error) session.Persister {
	return session.PersisterFunc(func(context.Context, *api.API) (*api.API, string, error) {
		return nil, "", err
	})
}

func petstore() *api.API {
	return &api.API{
		ID: "api-1",
		Proxy: api.Proxy{Groups: []*api.EndpointGroup{{
			Name:      "default",
			Endpoints: []*api.Endpoint{{Name: "A", Weight: 1}, {Name: "B", Weight: 1}},
		}}},
		ResponseTemplates: map[string]api.ResponseTemplateSet{
			"DEFAULT": {"*/*": {Status: 400}},
		},
	}
}

func deps(r *recorder, p session.Persister) Deps {
	return Deps{Persister: p, Navigator: r, Notifier: r, Form: r}
}

func TestEndpointEditor_SaveNewEndpoint(t *testing.T) {
	r := &recorder{}
	bus := event.NewBus()
	var published []*api.API
	bus.Subscribe(event.TypeAPIChanged, func(e event.Event) {
		published = append(published, e.(event.APIChangedEvent).API)
	})

	d := deps(r, persistOK())
	d.Publisher = bus
	d.Tenants = tenantList{{ID: "eu", Name: "Europe"}}
	params := Params{APIID: "api-1", Group: "default", Endpoint: "C"}

	ed, err := NewEndpointEditor(context.Background(), petstore(), params, d)
	require.NoError(t, err)
	assert.True(t, ed.IsCreation())
	assert.Equal(t, api.DefaultEndpoint(), ed.Endpoint())
	assert.Equal(t, []types.Tenant{{ID: "eu", Name: "Europe"}}, ed.Tenants())
	assert.Len(t, ed.ProxyTypes(), 3)

	ed.Endpoint().Weight = 5
	updated, err := ed.Save(context.Background())
	require.NoError(t, err)

	g, ok := updated.Group("default")
	require.True(t, ok)
	require.Len(t, g.Endpoints, 3)
	assert.Equal(t, "C", g.Endpoints[2].Name)
	assert.Equal(t, 5, g.Endpoints[2].Weight)
	assert.Equal(t, `"v2"`, updated.ETag)

	assert.Equal(t, []string{MessageEndpointSaved}, r.messages)
	assert.Equal(t, []State{StateEndpoints}, r.states)
	assert.Equal(t, params, r.params[0])
	assert.Equal(t, 1, r.pristine)
	require.Len(t, published, 1)
	assert.Same(t, updated, published[0])
}

func TestEndpointEditor_SaveFailure(t *testing.T) {
	r := &recorder{}
	boom := errors.New("412 precondition failed")
	ed, err := NewEndpointEditor(context.Background(), petstore(), Params{Group: "default", Endpoint: "A"}, deps(r, persistFail(boom)))
	require.NoError(t, err)

	_, err = ed.Save(context.Background())
	require.Same(t, boom, err)
	assert.Empty(t, r.messages)
	assert.Empty(t, r.states)
}

func TestEndpointEditor_OpenErrors(t *testing.T) {
	_, err := NewEndpointEditor(context.Background(), petstore(), Params{Group: "default"}, Deps{})
	require.ErrorIs(t, err, session.ErrNoPersister)

	_, err = NewEndpointEditor(context.Background(), petstore(), Params{Group: "nope"}, Deps{Persister: persistOK()})
	require.ErrorIs(t, err, session.ErrContainerNotFound)

	_, err = NewEndpointEditor(context.Background(), petstore(), Params{Group: "default"}, Deps{Persister: persistOK(), Tenants: failingTenants{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading tenants")
}

func TestEndpointEditor_Toggles(t *testing.T) {
	r := &recorder{}
	ed, err := NewEndpointEditor(context.Background(), petstore(), Params{Group: "default", Endpoint: "A"}, deps(r, persistOK()))
	require.NoError(t, err)

	ed.ToggleTrustAll(true)
	assert.True(t, ed.Endpoint().SSL.Enabled)
	assert.True(t, ed.Endpoint().SSL.TrustAll)

	ed.ToggleSSL(false)
	assert.False(t, ed.Endpoint().SSL.Enabled)
	assert.False(t, ed.Endpoint().SSL.TrustAll)
	assert.Equal(t, 2, r.dirty)
}

func TestEndpointEditor_ResetAndBack(t *testing.T) {
	r := &recorder{}
	a := petstore()
	ed, err := NewEndpointEditor(context.Background(), a, Params{Group: "default", Endpoint: "A"}, deps(r, persistOK()))
	require.NoError(t, err)

	ed.Endpoint().Weight = 9
	require.NoError(t, ed.Reset())
	assert.Equal(t, 1, ed.Endpoint().Weight)
	assert.Equal(t, 1, r.pristine)
	assert.Empty(t, r.states)

	ed.Endpoint().Target = "https://changed"
	require.NoError(t, ed.Back())
	assert.Empty(t, ed.Endpoint().Target)
	assert.Equal(t, []State{StateEndpoints}, r.states)
}

func TestTemplateEditor_SuggestKeys(t *testing.T) {
	ed, err := NewTemplateEditor(petstore(), Params{}, Deps{Persister: persistOK()})
	require.NoError(t, err)

	assert.Len(t, ed.SuggestKeys(""), 12)
	assert.Equal(t, []string{"API_KEY_MISSING", "API_KEY_INVALID"}, ed.SuggestKeys("api_key"))
	assert.Equal(t, []string{"RBAC_FORBIDDEN", "RBAC_INVALID_USER_ROLES", "RBAC_NO_USER_ROLE"}, ed.SuggestKeys("Rbac"))
	assert.Equal(t, []string{"RESOURCE_FILTERING_FORBIDDEN", "RBAC_FORBIDDEN"}, ed.SuggestKeys("forbidden"))
	assert.Empty(t, ed.SuggestKeys("MY_CUSTOM_KEY"))
}

func TestTemplateEditor_SearchSelectsCustomKey(t *testing.T) {
	r := &recorder{}
	ed, err := NewTemplateEditor(petstore(), Params{}, deps(r, persistOK()))
	require.NoError(t, err)
	assert.True(t, ed.IsCreation())

	assert.Empty(t, ed.Search("MY_CUSTOM_KEY"))
	assert.Equal(t, "MY_CUSTOM_KEY", ed.Key())

	ed.Search("")
	assert.Equal(t, "MY_CUSTOM_KEY", ed.Key())

	updated, err := ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.ResponseTemplateSet{"*/*": {Status: 400}}, updated.ResponseTemplates["MY_CUSTOM_KEY"])
	assert.Equal(t, []string{"Response template saved for key: MY_CUSTOM_KEY"}, r.messages)
	assert.Equal(t, []State{StateTemplates}, r.states)
	assert.Equal(t, "MY_CUSTOM_KEY", r.params[0].TemplateKey)
}

func TestTemplateEditor_DeleteOnlyRowRemovesKey(t *testing.T) {
	r := &recorder{}
	ed, err := NewTemplateEditor(petstore(), Params{TemplateKey: "DEFAULT"}, deps(r, persistOK()))
	require.NoError(t, err)
	assert.False(t, ed.IsCreation())

	assert.Equal(t, 1, ed.DeleteTemplate("*/*"))
	assert.Equal(t, 1, r.dirty)
	assert.Empty(t, ed.Rows())

	updated, err := ed.Save(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, updated.ResponseTemplates, "DEFAULT")
	assert.Equal(t, []string{TemplateSavedMessage("DEFAULT")}, r.messages)
}

func TestTemplateEditor_Reset(t *testing.T) {
	r := &recorder{}
	ed, err := NewTemplateEditor(petstore(), Params{TemplateKey: "DEFAULT"}, deps(r, persistOK()))
	require.NoError(t, err)

	ed.AddTemplate("application/json").Status = 502
	ed.SelectKey("OTHER")
	require.NoError(t, ed.Reset())

	assert.Equal(t, "DEFAULT", ed.Key())
	assert.Len(t, ed.Rows(), 1)
	assert.Equal(t, 1, r.pristine)
	assert.Equal(t, 2, r.dirty)
}
