package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/mgmttest"
)

// TestMain lets testscript run apictl in-process as a subcommand of the test
// binary.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"apictl": run,
	}))
}

func seedAPI() *api.API {
	return &api.API{
		ID:   "petstore",
		Name: "Petstore",
		Proxy: api.Proxy{
			ContextPath: "/pets",
			Groups: []*api.EndpointGroup{{
				Name:         "default",
				LoadBalancer: &api.LoadBalancer{Type: api.LoadBalancerRoundRobin},
				Endpoints: []*api.Endpoint{
					{Name: "primary", Target: "https://pets.internal", Weight: 1},
				},
			}},
		},
	}
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			srv := mgmttest.NewServer(seedAPI())
			srv.SetTenants(types.Tenant{ID: "eu", Name: "Europe"}, types.Tenant{ID: "us", Name: "United States"})
			env.Defer(srv.Close)
			env.Values["server"] = srv

			env.Setenv("MGMT_URL", srv.URL())
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("XDG_CONFIG_HOME", env.WorkDir+"/.config")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// touch-api bumps the revision of an API on the management
			// server, as a concurrent edit would.
			"touch-api": func(ts *testscript.TestScript, neg bool, args []string) {
				if len(args) != 1 {
					ts.Fatalf("usage: touch-api <id>")
				}
				srv := ts.Value("server").(*mgmttest.Server)
				err := srv.Store().Touch(args[0])
				if neg {
					if err == nil {
						ts.Fatalf("touch-api %s unexpectedly succeeded", args[0])
					}
					return
				}
				ts.Check(err)
			},
		},
	})
}
