// Package oasimport derives gateway endpoints from the servers section of an
// OpenAPI 3 document.
package oasimport

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/apictl/pkg/api"
)

// Result is what an import produced.
type Result struct {
	Title     string
	Version   string
	Endpoints []*api.Endpoint
	// Skipped lists server URLs that are not absolute and cannot be targets.
	Skipped []string
}

// LoadFile loads and validates the OpenAPI document at path.
func LoadFile(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec from file %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document %s: %w", path, err)
	}
	return doc, nil
}

// LoadData loads and validates an OpenAPI document from memory.
func LoadData(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// Endpoints turns every absolute server URL of doc into an endpoint with
// default settings. Server variables take their default values. Endpoints
// are named after the server description, or "server-N" without one.
func Endpoints(doc *openapi3.T) *Result {
	res := &Result{}
	if doc.Info != nil {
		res.Title = doc.Info.Title
		res.Version = doc.Info.Version
	}

	seen := make(map[string]int)
	for i, srv := range doc.Servers {
		if srv == nil {
			continue
		}
		target := expand(srv)
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.Skipped = append(res.Skipped, target)
			continue
		}

		name := slug(srv.Description)
		if name == "" {
			name = "server-" + strconv.Itoa(i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name += "-" + strconv.Itoa(n)
		}

		ep := api.DefaultEndpoint()
		ep.Name = name
		ep.Target = target
		if u.Scheme == "https" {
			ep.SetSSLEnabled(true)
		}
		res.Endpoints = append(res.Endpoints, ep)
	}
	return res
}

func expand(srv *openapi3.Server) string {
	out := srv.URL
	for name, v := range srv.Variables {
		if v == nil {
			continue
		}
		out = strings.ReplaceAll(out, "{"+name+"}", v.Default)
	}
	return strings.TrimRight(out, "/")
}

// slug lowercases s and joins its letters and digits with dashes.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// Merge adds imported endpoints to group. An endpoint whose name already
// exists only has its target replaced; the rest of its settings are kept.
func Merge(group *api.EndpointGroup, eps []*api.Endpoint) (added, updated int) {
	for _, ep := range eps {
		var existing *api.Endpoint
		for _, cur := range group.Endpoints {
			if cur != nil && cur.Name == ep.Name {
				existing = cur
				break
			}
		}
		if existing != nil {
			if existing.Target != ep.Target {
				existing.Target = ep.Target
				updated++
			}
			continue
		}
		group.Endpoints = append(group.Endpoints, ep.Clone())
		added++
	}
	return added, updated
}
