package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
	"github.com/shaiso/aap/internal/telemetry"
)

// followInterval — период опроса событий в job output --follow.
var followInterval = 2 * time.Second

// eventPageSize — размер страницы job_events.
const eventPageSize = 200

// launchedByColumn выводит имя того, кто запустил job.
var launchedByColumn = format.Column{
	Header: "Launched By",
	Path:   "launched_by",
	Render: func(v any) string {
		if m, ok := v.(map[string]any); ok {
			return format.Stringify(m["name"])
		}
		return format.Stringify(v)
	},
}

var jobResource = resource{
	kind: domain.Job,
	list: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Status", "status"),
		format.Datetime("Started", "started"),
		format.Datetime("Finished", "finished"),
	},
	long: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Status", "status"),
		format.Datetime("Started", "started"),
		format.Datetime("Finished", "finished"),
		format.Duration("Elapsed", "started", "finished"),
		format.Field("Job Template", "job_template"),
		format.Field("Inventory", "inventory"),
	},
	detail: []format.Column{
		format.Field("ID", "id"),
		format.Field("Name", "name"),
		format.Field("Description", "description"),
		format.Field("Status", "status"),
		format.Bool("Failed", "failed"),
		format.Datetime("Started", "started"),
		format.Datetime("Finished", "finished"),
		format.Duration("Elapsed", "started", "finished"),
		format.Field("Job Template", "job_template"),
		format.Field("Job Type", "job_type"),
		format.Field("Inventory", "inventory"),
		format.Field("Project", "project"),
		format.Field("Playbook", "playbook"),
		format.Field("Forks", "forks"),
		format.Field("Limit", "limit"),
		format.Field("Verbosity", "verbosity"),
		format.Field("Extra Vars", "extra_vars"),
		format.Field("Job Tags", "job_tags"),
		format.Field("Skip Tags", "skip_tags"),
		format.Field("Execution Node", "execution_node"),
		format.Field("Controller Node", "controller_node"),
		format.Field("Execution Environment", "execution_environment"),
		format.Field("Instance Group", "instance_group"),
		launchedByColumn,
		format.Datetime("Created", "created"),
		format.Datetime("Modified", "modified"),
	},
}

var relaunchedJobColumns = []format.Column{
	format.Field("New Job ID", "id"),
	format.Field("Name", "name"),
	format.Field("Status", "status"),
	format.Field("Job Template", "job_template"),
	format.Datetime("Created", "created"),
}

// NewJobCmd создаёт группу команд для jobs.
func NewJobCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and control jobs",
		Long: heredoc.Doc(`
			Inspect and control jobs. Jobs are addressed by ID only: a job is
			named after its template, so names are not unique.
		`),
	}

	cmd.AddCommand(
		newJobListCmd(clientFn, outputFn),
		newJobShowCmd(jobResource, clientFn, outputFn),
		newJobCancelCmd(domain.Job, clientFn, outputFn),
		newJobRelaunchCmd(clientFn, outputFn),
		newJobOutputCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var long bool
	var limit int
	var status, jobType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			params := listParams(limit)
			params.Set("order_by", "-id")
			if status != "" {
				params.Set("status", status)
			}
			if jobType != "" {
				params.Set("job_type", jobType)
			}

			jobs, err := fetchList(cmd.Context(), cs, domain.Job, params)
			if err != nil {
				return err
			}
			return outputFn().List(jobResource.columns(long), jobs)
		},
	}

	cmd.Flags().BoolVar(&long, "long", false, "Show additional columns")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, successful, failed, ...)")
	cmd.Flags().StringVar(&jobType, "job-type", "", "Filter by job type (run or check)")

	return cmd
}

// newJobShowCmd — show для jobs и workflow jobs, только по ID.
func newJobShowCmd(res resource, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show " + res.lower() + " details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			job, err := getJob(cmd.Context(), cs, res.kind, args[0])
			if err != nil {
				return err
			}
			return outputFn().Show(res.detail, job)
		},
	}
}

// newJobCancelCmd — отмена job или workflow job. Отменить можно только
// job в статусе pending, waiting или running.
func newJobCancelCmd(kind domain.Kind, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running " + lowerLabel(kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := outputFn()

			job, err := getJob(ctx, cs, kind, args[0])
			if err != nil {
				return err
			}
			id, err := recordID(kind, job)
			if err != nil {
				return err
			}

			status := domain.JobStatus(job.String("status"))
			if !status.IsCancelable() {
				out.Text(fmt.Sprintf("%s %d cannot be canceled (status: %s)", kind.Label, id, status))
				return nil
			}

			if _, err := cs.Controller.Post(ctx, kind.ItemPath(id)+"cancel/", map[string]any{}); err != nil {
				return fmt.Errorf("cancel %s %d: %w", lowerLabel(kind), id, err)
			}
			out.Success(fmt.Sprintf("%s %d cancellation requested", kind.Label, id))
			return nil
		},
	}
}

func newJobRelaunchCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var extraVars []string
	var limit, jobTags, skipTags string

	cmd := &cobra.Command{
		Use:   "relaunch ID",
		Short: "Relaunch a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFields(cmd).
				set("limit", "limit", limit).
				set("job-tags", "job_tags", jobTags).
				set("skip-tags", "skip_tags", skipTags)
			vars, err := parseExtraVars(extraVars, "")
			if err != nil {
				return err
			}
			if len(vars) > 0 {
				f.body["extra_vars"] = vars
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			job, err := getJob(ctx, cs, domain.Job, args[0])
			if err != nil {
				return err
			}
			id, err := recordID(domain.Job, job)
			if err != nil {
				return err
			}

			newJob, err := cs.Controller.Post(ctx, domain.Job.ItemPath(id)+"relaunch/", f.body)
			if err != nil {
				return fmt.Errorf("relaunch job %d: %w", id, err)
			}
			if newJob == nil {
				return fmt.Errorf("relaunch job %d: empty response", id)
			}
			return outputFn().Show(relaunchedJobColumns, newJob)
		},
	}

	cmd.Flags().StringArrayVarP(&extraVars, "extra-vars", "e", nil, "Extra variable as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&limit, "limit", "", "Host pattern to limit the run to")
	cmd.Flags().StringVar(&jobTags, "job-tags", "", "Comma-separated tags to run")
	cmd.Flags().StringVar(&skipTags, "skip-tags", "", "Comma-separated tags to skip")

	return cmd
}

func newJobOutputCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "output ID",
		Short: "Show job output",
		Long: heredoc.Doc(`
			Print the output of a job from its events, one line per event
			prefixed with the event time. If events are unavailable the plain
			stdout of the job is printed instead.

			With --follow, new events are printed until the job finishes.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := outputFn()

			job, err := getJob(ctx, cs, domain.Job, args[0])
			if err != nil {
				return err
			}
			id, err := recordID(domain.Job, job)
			if err != nil {
				return err
			}

			if follow {
				return followJob(ctx, cs, id, out)
			}
			return printJobOutput(ctx, cs, id, out)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new output until the job finishes")

	return cmd
}

// jobEvents возвращает события job с номером больше after.
func jobEvents(ctx context.Context, cs *api.Clients, id, after int) ([]domain.Record, error) {
	params := url.Values{
		"order_by":  {"counter"},
		"page_size": {strconv.Itoa(eventPageSize)},
	}
	if after > 0 {
		params.Set("counter__gt", strconv.Itoa(after))
	}
	return cs.Controller.ListAll(ctx, domain.Job.ItemPath(id)+"job_events/", params, 0)
}

// printEvents печатает stdout событий и возвращает номер последнего события.
func printEvents(events []domain.Record, out *Output, last int) int {
	for _, ev := range events {
		if n, ok := domain.AsInt(ev["counter"]); ok && n > last {
			last = n
		}
		if stdout := ev.String("stdout"); stdout != "" {
			out.Text(fmt.Sprintf("[%s] %s", format.FormatDatetime(ev.String("created")), stdout))
		}
	}
	return last
}

func printJobOutput(ctx context.Context, cs *api.Clients, id int, out *Output) error {
	events, err := jobEvents(ctx, cs, id, 0)
	if err != nil {
		telemetry.FromContext(ctx).Debug("job events unavailable, falling back to stdout", "job", id, "error", err)
		text, err := cs.Controller.GetText(ctx, domain.Job.ItemPath(id)+"stdout/", url.Values{"format": {"txt"}})
		if err != nil {
			return fmt.Errorf("get output of job %d: %w", id, err)
		}
		if text == "" {
			out.Text("No output available for this job")
			return nil
		}
		out.Text(text)
		return nil
	}

	if len(events) == 0 {
		out.Text("No output available for this job")
		return nil
	}
	printEvents(events, out, 0)
	return nil
}

// followJob печатает новые события, пока job не перейдёт в финальный статус.
// События, пришедшие между последним опросом и завершением, дочитываются.
func followJob(ctx context.Context, cs *api.Clients, id int, out *Output) error {
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	last := 0
	for {
		events, err := jobEvents(ctx, cs, id, last)
		if err != nil {
			return fmt.Errorf("get events of job %d: %w", id, err)
		}
		last = printEvents(events, out, last)

		job, err := cs.Controller.Get(ctx, domain.Job.ItemPath(id), nil)
		if err != nil {
			return fmt.Errorf("get job %d: %w", id, err)
		}
		status := domain.JobStatus(job.String("status"))
		if status.IsTerminal() {
			events, err := jobEvents(ctx, cs, id, last)
			if err != nil {
				return fmt.Errorf("get events of job %d: %w", id, err)
			}
			printEvents(events, out, last)
			out.Success(fmt.Sprintf("Job %d finished with status %s", id, status))
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func lowerLabel(kind domain.Kind) string {
	return resource{kind: kind}.lower()
}
