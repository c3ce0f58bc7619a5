package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var inventoryResource = resource{
	kind: domain.Inventory,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Kind", "kind"),
		format.Field("Organization", "organization"),
		format.Field("Host Count", "total_hosts"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Kind", "kind"),
		format.Field("Organization", "organization"),
		format.Field("Description", "description"),
		format.Field("Host Count", "total_hosts"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Kind", "kind"),
		format.Field("Organization", "organization"),
		format.Field("Host Filter", "host_filter"),
		format.Field("Variables", "variables"),
		format.Field("Total Hosts", "total_hosts"),
		format.Field("Hosts With Active Failures", "hosts_with_active_failures"),
		format.Field("Total Groups", "total_groups"),
		format.Field("Total Inventory Sources", "total_inventory_sources"),
		format.Bool("Has Inventory Sources", "has_inventory_sources"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// NewInventoryCmd создаёт группу команд для управления inventories.
func NewInventoryCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Manage inventories",
	}

	cmd.AddCommand(
		newInventoryListCmd(clientFn, outputFn),
		newShowCmd(inventoryResource, clientFn, outputFn),
		newInventoryCreateCmd(clientFn, outputFn),
		newInventorySetCmd(clientFn, outputFn),
		newDeleteCmd(inventoryResource, clientFn, outputFn),
	)

	return cmd
}

func newInventoryListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var organization, kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			params := listParams(limit)
			if organization != "" {
				orgID, err := lookupRef(ctx, cs, domain.ControllerOrganization, organization)
				if err != nil {
					return err
				}
				params.Set("organization", strconv.Itoa(orgID))
			}
			if cmd.Flags().Changed("kind") {
				params.Set("kind", kind)
			}

			inventories, err := fetchList(ctx, cs, domain.Inventory, params)
			if err != nil {
				return err
			}
			return outputFn().List(inventoryResource.columns(long), inventories)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind (empty for regular, smart or constructed)")

	return cmd
}

// inventoryFlags — поля inventory, общие для create и set.
type inventoryFlags struct {
	description  string
	organization string
	kind         string
	hostFilter   string
	variables    string
}

func (p *inventoryFlags) register(cmd *cobra.Command, withKind bool) {
	cmd.Flags().StringVar(&p.description, "description", "", "Inventory description")
	cmd.Flags().StringVar(&p.organization, "organization", "", "Organization (name or ID)")
	cmd.Flags().StringVar(&p.hostFilter, "host-filter", "", "Host filter for smart inventories")
	cmd.Flags().StringVar(&p.variables, "variables", "", "Inventory variables as YAML/JSON, or @file")
	if withKind {
		cmd.Flags().StringVar(&p.kind, "kind", "", "Inventory kind (empty for regular, smart or constructed)")
	}
}

func (p *inventoryFlags) fields(cmd *cobra.Command, cs *api.Clients) (*fields, error) {
	f := newFields(cmd).
		set("description", "description", p.description).
		set("kind", "kind", p.kind).
		set("host-filter", "host_filter", p.hostFilter)
	if cmd.Flags().Changed("variables") {
		vars, err := parseVariables(p.variables)
		if err != nil {
			return nil, err
		}
		f.body["variables"] = vars
	}
	if err := f.ref(cmd.Context(), cs, "organization", "organization", domain.ControllerOrganization, p.organization); err != nil {
		return nil, err
	}
	return f, nil
}

func newInventoryCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var pf inventoryFlags

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			f, err := pf.fields(cmd, cs)
			if err != nil {
				return err
			}
			f.body["name"] = args[0]

			return runCreate(cmd.Context(), cs, inventoryResource, f.body, outputFn())
		},
	}

	pf.register(cmd, true)
	cmd.MarkFlagRequired("organization")

	return cmd
}

func newInventorySetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var pf inventoryFlags
	var name string

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update an inventory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			f, err := pf.fields(cmd, cs)
			if err != nil {
				return err
			}
			f.set("name", "name", name)

			return runSet(cmd, cs, inventoryResource, &tf, args, f.body, outputFn())
		},
	}

	tf.register(cmd, "Inventory", false)
	cmd.Flags().StringVar(&name, "name", "", "New inventory name")
	pf.register(cmd, false)

	return cmd
}
