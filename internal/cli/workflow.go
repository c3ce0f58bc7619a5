package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var workflowResource = resource{
	kind: domain.Workflow,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Field("Status", "status"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Field("Inventory", "inventory"),
		format.Bool("Allow Simultaneous", "allow_simultaneous"),
		format.Field("Status", "status"),
		format.Datetime("Created", "created"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Field("Inventory", "inventory"),
		format.Field("Extra Vars", "extra_vars"),
		format.Bool("Allow Simultaneous", "allow_simultaneous"),
		format.Bool("Ask Variables On Launch", "ask_variables_on_launch"),
		format.Bool("Ask Inventory On Launch", "ask_inventory_on_launch"),
		format.Bool("Ask Limit On Launch", "ask_limit_on_launch"),
		format.Bool("Ask SCM Branch On Launch", "ask_scm_branch_on_launch"),
		format.Bool("Survey Enabled", "survey_enabled"),
		format.Field("Status", "status"),
		format.Datetime("Last Job Run", "last_job_run"),
		format.Bool("Last Job Failed", "last_job_failed"),
		format.Datetime("Next Job Run", "next_job_run"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

var launchedWorkflowColumns = []format.Column{
	format.Field("ID", "id"),
	format.Field("Name", "name"),
	format.Field("Status", "status"),
	format.Field("Workflow Job Template", "workflow_job_template"),
	format.Datetime("Created", "created"),
}

// NewWorkflowCmd создаёт группу команд для workflow job templates.
func NewWorkflowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflow job templates",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newShowCmd(workflowResource, clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowSetCmd(clientFn, outputFn),
		newWorkflowLaunchCmd(clientFn, outputFn),
		newDeleteCmd(workflowResource, clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var organization string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflow job templates",
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

			workflows, err := fetchList(ctx, cs, domain.Workflow, params)
			if err != nil {
				return err
			}
			return outputFn().List(workflowResource.columns(long), workflows)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")

	return cmd
}

// workflowToggles — пары --x/--no-x и соответствующие поля шаблона.
var workflowToggles = [][3]string{
	{"allow-simultaneous", "no-allow-simultaneous", "allow_simultaneous"},
	{"ask-variables-on-launch", "no-ask-variables-on-launch", "ask_variables_on_launch"},
	{"ask-inventory-on-launch", "no-ask-inventory-on-launch", "ask_inventory_on_launch"},
	{"ask-limit-on-launch", "no-ask-limit-on-launch", "ask_limit_on_launch"},
	{"ask-scm-branch-on-launch", "no-ask-scm-branch-on-launch", "ask_scm_branch_on_launch"},
}

// workflowFlags — поля workflow job template, общие для create и set.
type workflowFlags struct {
	description  string
	organization string
	inventory    string
	extraVars    string
}

func (w *workflowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.description, "description", "", "Workflow description")
	cmd.Flags().StringVar(&w.organization, "organization", "", "Organization (name or ID)")
	cmd.Flags().StringVar(&w.inventory, "inventory", "", "Inventory (name or ID)")
	cmd.Flags().StringVar(&w.extraVars, "extra-vars", "", "Extra variables as YAML/JSON, or @file")
	for _, t := range workflowToggles {
		cmd.Flags().Bool(t[0], false, "Set "+t[2])
		cmd.Flags().Bool(t[1], false, "Clear "+t[2])
	}
}

// fields собирает тело запроса; ссылки разрешаются через Controller.
func (w *workflowFlags) fields(cmd *cobra.Command, cs *api.Clients) (*fields, error) {
	ctx := cmd.Context()
	f := newFields(cmd).set("description", "description", w.description)
	for _, t := range workflowToggles {
		if err := f.toggle(t[0], t[1], t[2]); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("extra-vars") {
		vars, err := parseVariables(w.extraVars)
		if err != nil {
			return nil, err
		}
		f.body["extra_vars"] = vars
	}
	if err := f.ref(ctx, cs, "organization", "organization", domain.ControllerOrganization, w.organization); err != nil {
		return nil, err
	}
	if err := f.ref(ctx, cs, "inventory", "inventory", domain.Inventory, w.inventory); err != nil {
		return nil, err
	}
	return f, nil
}

func newWorkflowCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var wf workflowFlags

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a workflow job template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			f, err := wf.fields(cmd, cs)
			if err != nil {
				return err
			}
			f.body["name"] = args[0]

			return runCreate(cmd.Context(), cs, workflowResource, f.body, outputFn())
		},
	}

	wf.register(cmd)
	cmd.MarkFlagRequired("organization")

	return cmd
}

func newWorkflowSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var wf workflowFlags
	var name string

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update a workflow job template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			f, err := wf.fields(cmd, cs)
			if err != nil {
				return err
			}
			f.set("name", "name", name)

			return runSet(cmd, cs, workflowResource, &tf, args, f.body, outputFn())
		},
	}

	tf.register(cmd, "Workflow", false)
	cmd.Flags().StringVar(&name, "name", "", "New workflow name")
	wf.register(cmd)

	return cmd
}

func newWorkflowLaunchCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var lf launchFlags

	cmd := &cobra.Command{
		Use:   "launch [NAME|ID]",
		Short: "Launch a workflow job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			body, err := lf.body(cmd, cs)
			if err != nil {
				return err
			}

			workflow, err := resolveTarget(cmd, cs, domain.Workflow, &tf, args)
			if err != nil {
				return err
			}
			id, err := recordID(domain.Workflow, workflow)
			if err != nil {
				return err
			}

			job, err := cs.Controller.Post(cmd.Context(), domain.Workflow.ItemPath(id)+"launch/", body)
			if err != nil {
				return fmt.Errorf("launch workflow %s: %w", displayName(domain.Workflow, workflow), err)
			}
			if job == nil {
				return fmt.Errorf("launch workflow %s: empty response", displayName(domain.Workflow, workflow))
			}
			return outputFn().Show(launchedWorkflowColumns, job)
		},
	}

	tf.register(cmd, "Workflow", true)
	lf.register(cmd, false)

	return cmd
}
