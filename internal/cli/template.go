package cli

import (
	"fmt"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

var templateResource = resource{
	kind: domain.JobTemplate,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Project", "project"),
		format.Field("Playbook", "playbook"),
		format.Field("Status", "status"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Project", "project"),
		format.Field("Playbook", "playbook"),
		format.Field("Inventory", "inventory"),
		format.Field("Status", "status"),
		format.Datetime("Created", "created"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Job Type", "job_type"),
		format.Field("Inventory", "inventory"),
		format.Field("Project", "project"),
		format.Field("Playbook", "playbook"),
		format.Field("SCM Branch", "scm_branch"),
		format.Field("Forks", "forks"),
		format.Field("Limit", "limit"),
		format.Field("Verbosity", "verbosity"),
		format.Field("Extra Vars", "extra_vars"),
		format.Field("Job Tags", "job_tags"),
		format.Field("Skip Tags", "skip_tags"),
		format.Field("Timeout", "timeout"),
		format.Bool("Survey Enabled", "survey_enabled"),
		format.Bool("Ask Variables On Launch", "ask_variables_on_launch"),
		format.Bool("Ask Inventory On Launch", "ask_inventory_on_launch"),
		format.Bool("Ask Limit On Launch", "ask_limit_on_launch"),
		format.Field("Status", "status"),
		format.Datetime("Last Job Run", "last_job_run"),
		format.Bool("Last Job Failed", "last_job_failed"),
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

// launchedJobColumns — вывод job, только что запущенного из шаблона.
var launchedJobColumns = []format.Column{
	format.Field("ID", "id"),
	format.Field("Name", "name"),
	format.Field("Status", "status"),
	format.Field("Job Template", "job_template"),
	format.Field("Inventory", "inventory"),
	format.Field("Project", "project"),
	format.Field("Playbook", "playbook"),
	format.Datetime("Created", "created"),
}

// maxVerbosity — наибольший уровень verbosity ansible-playbook (-vvvvv).
const maxVerbosity = 5

// NewTemplateCmd создаёт группу команд для job templates.
func NewTemplateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"job-template"},
		Short:   "Manage job templates",
	}

	cmd.AddCommand(
		newTemplateListCmd(clientFn, outputFn),
		newShowCmd(templateResource, clientFn, outputFn),
		newTemplateLaunchCmd(clientFn, outputFn),
		newDeleteCmd(templateResource, clientFn, outputFn),
	)

	return cmd
}

func newTemplateListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var organization, project string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job templates",
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
			if project != "" {
				projectID, err := lookupRef(ctx, cs, domain.Project, project)
				if err != nil {
					return err
				}
				params.Set("project", strconv.Itoa(projectID))
			}

			templates, err := fetchList(ctx, cs, domain.JobTemplate, params)
			if err != nil {
				return err
			}
			return outputFn().List(templateResource.columns(long), templates)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&organization, "organization", "", "Filter by organization (name or ID)")
	cmd.Flags().StringVar(&project, "project", "", "Filter by project (name or ID)")

	return cmd
}

// launchFlags — параметры запуска job template или workflow.
type launchFlags struct {
	extraVars     []string
	extraVarsFile string
	inventory     string
	limit         string
	jobTags       string
	skipTags      string
	scmBranch     string
	verbosity     int

	// playbook — флаги, имеющие смысл только для job template.
	playbook bool
}

func (l *launchFlags) register(cmd *cobra.Command, playbook bool) {
	l.playbook = playbook
	cmd.Flags().StringArrayVarP(&l.extraVars, "extra-vars", "e", nil, "Extra variable as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&l.extraVarsFile, "extra-vars-file", "", "YAML or JSON file with extra variables")
	cmd.Flags().StringVar(&l.inventory, "inventory", "", "Inventory to use (name or ID)")
	cmd.Flags().StringVar(&l.limit, "limit", "", "Host pattern to limit the run to")
	cmd.Flags().StringVar(&l.scmBranch, "scm-branch", "", "SCM branch, tag or commit to use")
	if playbook {
		cmd.Flags().StringVar(&l.jobTags, "job-tags", "", "Comma-separated tags to run")
		cmd.Flags().StringVar(&l.skipTags, "skip-tags", "", "Comma-separated tags to skip")
		cmd.Flags().IntVar(&l.verbosity, "verbosity", 0, "Verbosity level (0-5)")
	}
}

// body собирает тело запроса launch. Незаданные флаги не отправляются,
// чтобы действовали значения по умолчанию шаблона.
func (l *launchFlags) body(cmd *cobra.Command, cs *api.Clients) (map[string]any, error) {
	f := newFields(cmd).
		set("limit", "limit", l.limit).
		set("scm-branch", "scm_branch", l.scmBranch)

	if l.playbook {
		if l.verbosity < 0 || l.verbosity > maxVerbosity {
			return nil, fmt.Errorf("--verbosity must be between 0 and %d, got %d", maxVerbosity, l.verbosity)
		}
		f.set("job-tags", "job_tags", l.jobTags).
			set("skip-tags", "skip_tags", l.skipTags).
			set("verbosity", "verbosity", l.verbosity)
	}

	vars, err := parseExtraVars(l.extraVars, l.extraVarsFile)
	if err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		f.body["extra_vars"] = vars
	}

	if err := f.ref(cmd.Context(), cs, "inventory", "inventory", domain.Inventory, l.inventory); err != nil {
		return nil, err
	}
	return f.body, nil
}

func newTemplateLaunchCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags
	var lf launchFlags

	cmd := &cobra.Command{
		Use:   "launch [NAME|ID]",
		Short: "Launch a job from a job template",
		Example: heredoc.Doc(`
			$ aap template launch "Deploy web"
			$ aap template launch 42 -e env=prod -e version=1.4 --limit web01
			$ aap template launch --name "Deploy web" --extra-vars-file vars.yml --verbosity 2
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			body, err := lf.body(cmd, cs)
			if err != nil {
				return err
			}

			template, err := resolveTarget(cmd, cs, domain.JobTemplate, &tf, args)
			if err != nil {
				return err
			}
			id, err := recordID(domain.JobTemplate, template)
			if err != nil {
				return err
			}

			job, err := cs.Controller.Post(cmd.Context(), domain.JobTemplate.ItemPath(id)+"launch/", body)
			if err != nil {
				return fmt.Errorf("launch job template %s: %w", displayName(domain.JobTemplate, template), err)
			}
			if job == nil {
				return fmt.Errorf("launch job template %s: empty response", displayName(domain.JobTemplate, template))
			}
			return outputFn().Show(launchedJobColumns, job)
		},
	}

	tf.register(cmd, "Job template", true)
	lf.register(cmd, true)

	return cmd
}
