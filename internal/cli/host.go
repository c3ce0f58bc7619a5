package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

// lastJobColumn выводит последний job хоста как "#123 (successful)".
var lastJobColumn = format.Column{
	Header: "Last Job",
	Path:   "summary_fields.last_job",
	Render: func(v any) string {
		job, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		return fmt.Sprintf("#%s (%s)", format.Stringify(job["id"]), format.Stringify(job["status"]))
	},
}

var hostResource = resource{
	kind: domain.Host,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Inventory", "inventory"),
		format.Bool("Enabled", "enabled"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Inventory", "inventory"),
		format.Bool("Enabled", "enabled"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
		lastJobColumn,
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Inventory", "inventory"),
		format.Bool("Enabled", "enabled"),
		format.Field("Variables", "variables"),
		lastJobColumn,
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
		format.Field("Created By", "summary_fields.created_by.username"),
		format.Field("Modified By", "summary_fields.modified_by.username"),
	},
}

var hostMetricColumns = []format.Column{
	format.Field("ID", "id"),
	format.Field("Hostname", "hostname"),
	format.Datetime("First Automated", "first_automation"),
	format.Datetime("Last Automated", "last_automation"),
	format.Field("Automation Count", "automated_counter"),
	format.Bool("Deleted", "deleted"),
	format.Field("Deleted Count", "deleted_counter"),
}

var hostMetricLongColumns = append(append([]format.Column{}, hostMetricColumns...),
	format.Datetime("Created", "created"),
	format.Datetime("Modified", "modified"),
)

// NewHostCmd создаёт группу команд для управления хостами.
func NewHostCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Manage hosts",
	}

	cmd.AddCommand(
		newHostListCmd(clientFn, outputFn),
		newShowCmd(hostResource, clientFn, outputFn),
		newHostCreateCmd(clientFn, outputFn),
		newHostSetCmd(clientFn, outputFn),
		newDeleteCmd(hostResource, clientFn, outputFn),
		newHostMetricsCmd(clientFn, outputFn),
	)

	return cmd
}

func newHostListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var inventory string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			params := listParams(limit)
			if inventory != "" {
				invID, err := lookupRef(ctx, cs, domain.Inventory, inventory)
				if err != nil {
					return err
				}
				params.Set("inventory", strconv.Itoa(invID))
			}

			hosts, err := fetchList(ctx, cs, domain.Host, params)
			if err != nil {
				return err
			}
			return outputFn().List(hostResource.columns(long), hosts)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&inventory, "inventory", "", "Filter by inventory (name or ID)")

	return cmd
}

// hostFlags — поля хоста, общие для create и set.
type hostFlags struct {
	description string
	variables   string
}

func (h *hostFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&h.description, "description", "", "Host description")
	cmd.Flags().StringVar(&h.variables, "variables", "", "Host variables as YAML/JSON, or @file")
	cmd.Flags().Bool("enabled", false, "Enable the host")
	cmd.Flags().Bool("disabled", false, "Disable the host")
}

func (h *hostFlags) fields(cmd *cobra.Command) (*fields, error) {
	f := newFields(cmd).set("description", "description", h.description)
	if err := f.toggle("enabled", "disabled", "enabled"); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("variables") {
		vars, err := parseVariables(h.variables)
		if err != nil {
			return nil, err
		}
		f.body["variables"] = vars
	}
	return f, nil
}

func newHostCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var hf hostFlags
	var inventory string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := hf.fields(cmd)
			if err != nil {
				return err
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			if err := f.ref(cmd.Context(), cs, "inventory", "inventory", domain.Inventory, inventory); err != nil {
				return err
			}
			f.body["name"] = args[0]

			return runCreate(cmd.Context(), cs, hostResource, f.body, outputFn())
		},
	}

	hf.register(cmd)
	cmd.Flags().StringVar(&inventory, "inventory", "", "Inventory (name or ID)")
	cmd.MarkFlagRequired("inventory")

	return cmd
}

func newHostSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var hf hostFlags
	var name string

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update a host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := hf.fields(cmd)
			if err != nil {
				return err
			}
			f.set("name", "name", name)
			if len(f.body) == 0 {
				return ErrNothingToUpdate
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			return runSet(cmd, cs, hostResource, &tf, args, f.body, outputFn())
		},
	}

	tf.register(cmd, "Host", false)
	cmd.Flags().StringVar(&name, "name", "", "New host name")
	hf.register(cmd)

	return cmd
}

func newHostMetricsCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var hostname string
	var limit int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show host automation metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			params := listParams(limit)
			if hostname != "" {
				params.Set(domain.HostMetric.NameField, hostname)
			}

			metrics, err := fetchList(cmd.Context(), cs, domain.HostMetric, params)
			if err != nil {
				return err
			}

			cols := hostMetricColumns
			if long {
				cols = hostMetricLongColumns
			}
			return outputFn().List(cols, metrics)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&hostname, "hostname", "", "Filter by hostname")

	return cmd
}
