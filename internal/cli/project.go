package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var projectResource = resource{
	kind: domain.Project,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Field("SCM Type", "scm_type"),
		format.Field("Status", "status"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Field("SCM Type", "scm_type"),
		format.Field("SCM URL", "scm_url"),
		format.Field("Status", "status"),
		format.Datetime("Created", "created"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Organization", "organization"),
		format.Field("SCM Type", "scm_type"),
		format.Field("SCM URL", "scm_url"),
		format.Field("SCM Branch", "scm_branch"),
		format.Field("SCM Credential", "credential"),
		format.Field("Local Path", "local_path"),
		format.Field("Status", "status"),
		format.Datetime("Last Job Run", "last_job_run"),
		format.Bool("Last Job Failed", "last_job_failed"),
		format.Datetime("Next Job Run", "next_job_run"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// projectUpdateColumns — вывод запущенной синхронизации SCM.
var projectUpdateColumns = []format.Column{
	format.Field("Project Update ID", "id"),
	format.Field("Project", "project"),
	format.Field("Status", "status"),
	format.Datetime("Created", "created"),
}

// NewProjectCmd создаёт группу команд для управления проектами.
func NewProjectCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectListCmd(clientFn, outputFn),
		newShowCmd(projectResource, clientFn, outputFn),
		newProjectCreateCmd(clientFn, outputFn),
		newProjectSetCmd(clientFn, outputFn),
		newProjectUpdateCmd(clientFn, outputFn),
		newDeleteCmd(projectResource, clientFn, outputFn),
	)

	return cmd
}

func newProjectListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var organization, scmType string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
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
			if scmType != "" {
				params.Set("scm_type", scmType)
			}

			projects, err := fetchList(ctx, cs, domain.Project, params)
			if err != nil {
				return err
			}
			return outputFn().List(projectResource.columns(long), projects)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")
	cmd.Flags().StringVar(&scmType, "scm-type", "", "Filter by SCM type (git, svn, insights, archive or manual)")

	return cmd
}

// projectFlags — поля проекта, общие для create и set.
type projectFlags struct {
	description   string
	organization  string
	scmType       string
	scmURL        string
	scmBranch     string
	scmCredential string
	localPath     string
}

func (p *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.description, "description", "", "Project description")
	cmd.Flags().StringVar(&p.organization, "organization", "", "Organization (name or ID)")
	cmd.Flags().StringVar(&p.scmType, "scm-type", "", "SCM type (git, svn, insights, archive; empty for manual)")
	cmd.Flags().StringVar(&p.scmURL, "scm-url", "", "SCM repository URL")
	cmd.Flags().StringVar(&p.scmBranch, "scm-branch", "", "SCM branch, tag or commit")
	cmd.Flags().StringVar(&p.scmCredential, "scm-credential", "", "SCM credential (name or ID)")
	cmd.Flags().StringVar(&p.localPath, "local-path", "", "Local path for manual projects")
}

// fields собирает тело запроса и разрешает ссылки на организацию и credential.
func (p *projectFlags) fields(cmd *cobra.Command, cs *api.Clients) (*fields, error) {
	ctx := cmd.Context()
	f := newFields(cmd).
		set("description", "description", p.description).
		set("scm-type", "scm_type", p.scmType).
		set("scm-url", "scm_url", p.scmURL).
		set("scm-branch", "scm_branch", p.scmBranch).
		set("local-path", "local_path", p.localPath)
	if err := f.ref(ctx, cs, "organization", "organization", domain.ControllerOrganization, p.organization); err != nil {
		return nil, err
	}
	if err := f.ref(ctx, cs, "scm-credential", "credential", domain.Credential, p.scmCredential); err != nil {
		return nil, err
	}
	return f, nil
}

func newProjectCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var pf projectFlags

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
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

			return runCreate(cmd.Context(), cs, projectResource, f.body, outputFn())
		},
	}

	pf.register(cmd)
	cmd.MarkFlagRequired("organization")

	return cmd
}

func newProjectSetCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var pf projectFlags
	var name string

	cmd := &cobra.Command{
		Use:   "set [NAME|ID]",
		Short: "Update a project",
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

			return runSet(cmd, cs, projectResource, &tf, args, f.body, outputFn())
		},
	}

	tf.register(cmd, "Project", false)
	cmd.Flags().StringVar(&name, "name", "", "New project name")
	pf.register(cmd)

	return cmd
}

func newProjectUpdateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "update [NAME|ID]",
		Short: "Sync a project from its SCM repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := outputFn()

			project, err := resolveTarget(cmd, cs, domain.Project, &tf, args)
			if err != nil {
				return err
			}
			id, err := recordID(domain.Project, project)
			if err != nil {
				return err
			}

			update, err := cs.Controller.Post(ctx, domain.Project.ItemPath(id)+"update/", map[string]any{})
			if err != nil {
				return fmt.Errorf("update project %s: %w", displayName(domain.Project, project), err)
			}
			if update == nil {
				out.Success(fmt.Sprintf("Project %s update started", displayName(domain.Project, project)))
				return nil
			}
			update["project"] = project.String("name")
			return out.Show(projectUpdateColumns, update)
		},
	}

	tf.register(cmd, "Project", true)
	return cmd
}
