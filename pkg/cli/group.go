package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/session"
)

var (
	groupName string
	groupLB   string
)

var loadBalancerTypes = []api.LoadBalancerType{
	api.LoadBalancerRoundRobin,
	api.LoadBalancerRandom,
	api.LoadBalancerWeightedRoundRobin,
	api.LoadBalancerWeightedRandom,
}

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"groups"},
	Short:   "List, create and edit endpoint groups",
}

// groupRow is one group in list output.
type groupRow struct {
	Name         string               `json:"name"`
	LoadBalancer api.LoadBalancerType `json:"loadBalancer,omitempty"`
	Endpoints    int                  `json:"endpoints"`
}

var groupListCmd = &cobra.Command{
	Use:   "list [api-id]",
	Short: "List endpoint groups",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, a, err := loadAPI(cmd.Context(), args)
		if err != nil {
			return err
		}
		groups := distinct("the API", "group", a.Proxy.Groups)
		rows := make([]groupRow, 0, len(groups))
		for _, g := range groups {
			r := groupRow{Name: g.Name, Endpoints: session.NewIndex(g.Endpoints).Len()}
			if g.LoadBalancer != nil {
				r.LoadBalancer = g.LoadBalancer.Type
			}
			rows = append(rows, r)
		}

		if jsonOutput {
			return output.JSON(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No groups found")
			return nil
		}
		w := output.Table()
		_, _ = fmt.Fprintln(w, "NAME\tLOAD BALANCER\tENDPOINTS")
		for _, r := range rows {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", r.Name, r.LoadBalancer, r.Endpoints)
		}
		return w.Flush()
	},
}

var groupSetCmd = &cobra.Command{
	Use:   "set [api-id]",
	Short: "Create or update an endpoint group",
	Long: `Create the group --name, or change its load balancing with --lb.
A new group uses ROUND_ROBIN.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if groupName == "" {
			return errors.New("--name is required")
		}
		b, _, a, err := loadAPI(cmd.Context(), args)
		if err != nil {
			return err
		}
		sess, err := session.Open(a, session.Groups(), groupName, api.DefaultGroup(),
			session.WithPublisher(bus), session.WithLogger(logger))
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("lb") {
			lb := api.LoadBalancerType(groupLB)
			if !slices.Contains(loadBalancerTypes, lb) {
				return fmt.Errorf("unknown load balancer %q, expected one of %v", groupLB, loadBalancerTypes)
			}
			g := sess.Target()
			if g.LoadBalancer == nil {
				g.LoadBalancer = &api.LoadBalancer{}
			}
			g.LoadBalancer.Type = lb
		}

		created := sess.IsCreation()
		if _, err := sess.Commit(cmd.Context(), b); err != nil {
			return formatError(err)
		}
		if jsonOutput {
			return output.JSON(sess.Target())
		}
		if created {
			fmt.Printf("Group %s created\n", groupName)
		} else {
			fmt.Printf("Group %s saved\n", groupName)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupListCmd, groupSetCmd)

	groupSetCmd.Flags().StringVarP(&groupName, "name", "n", "", "Group name")
	groupSetCmd.Flags().StringVar(&groupLB, "lb", "", "Load balancing: ROUND_ROBIN, RANDOM, WEIGHTED_ROUND_ROBIN, WEIGHTED_RANDOM")
}
