package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var workflowJobResource = resource{
	kind: domain.WorkflowJob,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Status", "status"),
		format.Datetime("Created", "created"),
		launchedByColumn,
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Status", "status"),
		format.Datetime("Created", "created"),
		format.Datetime("Started", "started"),
		format.Datetime("Finished", "finished"),
		format.Duration("Elapsed", "started", "finished"),
		launchedByColumn,
		format.Field("Template", "workflow_job_template"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Status", "status"),
		format.Bool("Failed", "failed"),
		format.Datetime("Started", "started"),
		format.Datetime("Finished", "finished"),
		format.Datetime("Canceled On", "canceled_on"),
		format.Duration("Elapsed", "started", "finished"),
		format.Field("Job Explanation", "job_explanation"),
		launchedByColumn,
		format.Field("Workflow Job Template", "workflow_job_template"),
		format.Field("Extra Vars", "extra_vars"),
		format.Bool("Allow Simultaneous", "allow_simultaneous"),
		format.Field("Inventory", "inventory"),
		format.Field("Limit", "limit"),
		format.Field("SCM Branch", "scm_branch"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// NewWorkflowJobCmd создаёт группу команд для запусков workflow.
func NewWorkflowJobCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow-job",
		Short: "Inspect and control workflow jobs",
	}

	cmd.AddCommand(
		newWorkflowJobListCmd(clientFn, outputFn),
		newJobShowCmd(workflowJobResource, clientFn, outputFn),
		newJobCancelCmd(domain.WorkflowJob, clientFn, outputFn),
		newWorkflowJobRelaunchCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowJobListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var limit int
	var status, workflow string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflow jobs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			params := listParams(limit)
			params.Set("order_by", "-id")
			if status != "" {
				params.Set("status", status)
			}
			if workflow != "" {
				wfID, err := lookupRef(ctx, cs, domain.Workflow, workflow)
				if err != nil {
					return err
				}
				params.Set("workflow_job_template", strconv.Itoa(wfID))
			}

			jobs, err := fetchList(ctx, cs, domain.WorkflowJob, params)
			if err != nil {
				return err
			}
			return outputFn().List(workflowJobResource.columns(long), jobs)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&workflow, "workflow", "", "Filter by workflow job template (name or ID)")

	return cmd
}

func newWorkflowJobRelaunchCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "relaunch ID",
		Short: "Relaunch a workflow job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			job, err := getJob(ctx, cs, domain.WorkflowJob, args[0])
			if err != nil {
				return err
			}
			id, err := recordID(domain.WorkflowJob, job)
			if err != nil {
				return err
			}

			newJob, err := cs.Controller.Post(ctx, domain.WorkflowJob.ItemPath(id)+"relaunch/", map[string]any{})
			if err != nil {
				return fmt.Errorf("relaunch workflow job %d: %w", id, err)
			}
			if newJob == nil {
				return fmt.Errorf("relaunch workflow job %d: empty response", id)
			}
			return outputFn().Show(launchedWorkflowColumns, newJob)
		},
	}
}
