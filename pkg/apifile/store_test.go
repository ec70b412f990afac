package apifile

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/session"
)

const petstoreYAML = `id: petstore
name: Petstore
proxy:
  context_path: /pets
  groups:
    - name: default
      load_balancing:
        type: ROUND_ROBIN
      endpoints:
        - name: A
          target: https://a.example.com
          weight: 1
        - name: B
          target: https://b.example.com
          weight: 1
response_templates:
  DEFAULT:
    "*/*":
      status: 400
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("api.yaml"))
	assert.Equal(t, FormatYAML, FormatOf("API.YML"))
	assert.Equal(t, FormatJSON, FormatOf("api.json"))
	assert.Equal(t, FormatJSON, FormatOf("api"))
}

func TestStore_LoadYAML(t *testing.T) {
	path := writeFile(t, "petstore.yaml", petstoreYAML)

	a, err := New(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "petstore", a.ID)
	assert.Equal(t, ETag([]byte(petstoreYAML)), a.ETag)
	assert.Len(t, a.ETag, 66)

	g, ok := a.Group("default")
	require.True(t, ok)
	assert.Equal(t, api.LoadBalancerRoundRobin, g.LoadBalancer.Type)
	assert.Len(t, g.Endpoints, 2)
	assert.Equal(t, 400, a.ResponseTemplates["DEFAULT"]["*/*"].Status)
}

func TestStore_LoadJSON(t *testing.T) {
	path := writeFile(t, "petstore.json", `{"id":"petstore","name":"Petstore","proxy":{"groups":[{"name":"default","endpoints":[{"name":"A","weight":2,"http":{"connectTimeout":1000}}]}]}}`)

	a, err := New(path).Load()
	require.NoError(t, err)
	g, _ := a.Group("default")
	assert.Equal(t, 2, g.Endpoints[0].Weight)
	assert.Equal(t, 1000, g.Endpoints[0].HTTP.ConnectTimeout)
}

func TestStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{name: "empty", file: "a.yaml", content: "  \n", want: ErrEmptyFile},
		{name: "bad yaml", file: "a.yaml", content: "id: [", want: ErrInvalidYAML},
		{name: "bad json", file: "a.json", content: "{", want: ErrInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(writeFile(t, tt.file, tt.content)).Load()
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := New(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestStore_LoadSchemaViolations(t *testing.T) {
	path := writeFile(t, "bad.yaml", `id: petstore
name: Petstore
proxy:
  groups:
    - name: default
      endpoints:
        - name: A
          weight: -1
response_templates:
  DEFAULT:
    "*/*":
      status: 42
`)

	_, err := New(path).Load()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, path, verr.Path)

	var fields []string
	for _, p := range verr.Problems {
		fields = append(fields, p.Field)
	}
	assert.Contains(t, fields, "proxy.groups.0.endpoints.0.weight")
	assert.True(t, slices.ContainsFunc(fields, func(f string) bool {
		return strings.HasPrefix(f, "response_templates.DEFAULT.") && strings.HasSuffix(f, ".status")
	}), "fields: %v", fields)
	assert.Contains(t, err.Error(), "invalid API definition")
}

func TestStore_GetAPI(t *testing.T) {
	s := New(writeFile(t, "petstore.yaml", petstoreYAML))

	a, err := s.GetAPI(context.Background(), "petstore")
	require.NoError(t, err)
	assert.Equal(t, "Petstore", a.Name)

	_, err = s.GetAPI(context.Background(), "")
	require.NoError(t, err)

	_, err = s.GetAPI(context.Background(), "orders")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateAPI(t *testing.T) {
	path := writeFile(t, "petstore.yaml", petstoreYAML)
	s := New(path)

	a, err := s.Load()
	require.NoError(t, err)
	a.Name = "Petstore v2"

	updated, etag, err := s.UpdateAPI(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "Petstore v2", updated.Name)
	assert.NotEqual(t, a.ETag, etag)
	assert.Equal(t, etag, updated.ETag)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ETag(data), etag)
	assert.Contains(t, string(data), "name: Petstore v2")
	assert.NoFileExists(t, path+".tmp")

	_, _, err = s.UpdateAPI(context.Background(), a)
	require.ErrorIs(t, err, ErrConflict, "the old etag is stale now")
}

func TestStore_UpdateAPIRejectsInvalid(t *testing.T) {
	path := writeFile(t, "petstore.yaml", petstoreYAML)
	s := New(path)
	a, err := s.Load()
	require.NoError(t, err)

	g, _ := a.Group("default")
	g.Endpoints[0].Weight = -3
	_, _, err = s.UpdateAPI(context.Background(), a)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, petstoreYAML, string(data), "file untouched")
}

func TestStore_UpdateAPIWrongID(t *testing.T) {
	s := New(writeFile(t, "petstore.yaml", petstoreYAML))
	_, _, err := s.UpdateAPI(context.Background(), &api.API{ID: "orders", Name: "Orders"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AsSessionPersister(t *testing.T) {
	path := writeFile(t, "petstore.json", `{"id":"petstore","name":"Petstore","proxy":{"groups":[{"name":"default","endpoints":[{"name":"A","weight":1},{"name":"B","weight":1}]}]}}`)
	s := New(path)
	a, err := s.Load()
	require.NoError(t, err)

	sess, err := session.Open(a, session.Endpoints("default"), "C", api.DefaultEndpoint())
	require.NoError(t, err)
	sess.Target().Weight = 5

	_, err = sess.Commit(context.Background(), s)
	require.NoError(t, err)

	reloaded, err := s.Load()
	require.NoError(t, err)
	g, _ := reloaded.Group("default")
	require.Len(t, g.Endpoints, 3)
	assert.Equal(t, "C", g.Endpoints[2].Name)
	assert.Equal(t, 5, g.Endpoints[2].Weight)
	assert.Equal(t, 100, g.Endpoints[2].HTTP.MaxConcurrentConnections)
	assert.Equal(t, reloaded.ETag, sess.ETag())
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "team", "billing"), 0o755))
	for _, p := range []string{"a.yaml", "team/b.yaml", "team/billing/c.yaml", "team/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, p), []byte(petstoreYAML), 0o644))
	}

	matches, err := Glob(filepath.Join(dir, "**", "*.yaml"))
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	matches, err = Glob(filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml")}, matches)
}
