// Package query selects values out of API definitions: JSONPath for reading
// arbitrary fields and boolean expressions for filtering endpoints.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/apictl/pkg/api"
)

// Select evaluates a JSONPath expression against the JSON form of v and
// returns every match.
func Select(v any, path string) ([]any, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return x.Get(data), nil
}

// endpointEnv is what a filter expression sees for one endpoint.
type endpointEnv struct {
	Name     string            `expr:"name"`
	Target   string            `expr:"target"`
	Weight   int               `expr:"weight"`
	Backup   bool              `expr:"backup"`
	Tenants  []string          `expr:"tenants"`
	SSL      bool              `expr:"ssl"`
	TrustAll bool              `expr:"trustAll"`
	Proxied  bool              `expr:"proxied"`
	Headers  map[string]string `expr:"headers"`
}

func envOf(e *api.Endpoint) endpointEnv {
	env := endpointEnv{
		Name:    e.Name,
		Target:  e.Target,
		Weight:  e.Weight,
		Backup:  e.Backup,
		Tenants: e.Tenants,
		Headers: e.Headers,
	}
	if e.SSL != nil {
		env.SSL = e.SSL.Enabled
		env.TrustAll = e.SSL.TrustAll
	}
	if e.Proxy != nil {
		env.Proxied = e.Proxy.Enabled
	}
	return env
}

// FilterEndpoints returns the endpoints for which expression is true, in
// order. An empty expression keeps every endpoint.
//
// The expression sees name, target, weight, backup, tenants, ssl, trustAll,
// proxied and headers, e.g. `weight > 1 && ssl` or `"eu" in tenants`.
func FilterEndpoints(eps []*api.Endpoint, expression string) ([]*api.Endpoint, error) {
	if expression == "" {
		return eps, nil
	}
	program, err := expr.Compile(expression, expr.Env(endpointEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}

	var out []*api.Endpoint
	for _, e := range eps {
		if e == nil {
			continue
		}
		res, err := expr.Run(program, envOf(e))
		if err != nil {
			return nil, fmt.Errorf("eval %q on %s: %w", expression, e.Name, err)
		}
		if res.(bool) {
			out = append(out, e)
		}
	}
	return out, nil
}
