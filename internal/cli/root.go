package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/config"
	"github.com/shaiso/aap/internal/telemetry"
)

// ClientFunc лениво создаёт клиентов AAP после парсинга флагов.
type ClientFunc func() (*api.Clients, error)

// OutputFunc возвращает Output, настроенный по флагу --output.
type OutputFunc func() *Output

// envFile — .env в текущем каталоге.
const envFile = ".env"

// rootFlags — глобальные флаги.
type rootFlags struct {
	output      string
	debug       bool
	configFile  string
	metricsFile string
}

// app — состояние одного запуска CLI.
type app struct {
	flags   rootFlags
	stdout  io.Writer
	stderr  io.Writer
	metrics *telemetry.Metrics
	viper   *viper.Viper
	pflags  *pflag.FlagSet

	once    sync.Once
	cfg     *config.Config
	clients *api.Clients
	err     error
}

// Execute собирает дерево команд, выполняет args и сохраняет метрики,
// если задан --metrics-file. Метрики пишутся и при ошибке команды.
func Execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) error {
	a := &app{
		stdout:  stdout,
		stderr:  stderr,
		metrics: telemetry.NewMetrics(),
		viper:   viper.New(),
	}

	root := a.newRootCmd(version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	if a.flags.metricsFile != "" {
		if mErr := a.metrics.WriteTextfile(a.flags.metricsFile); mErr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", mErr))
		}
	}
	return err
}

func (a *app) newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "aap",
		Short: "Command-line client for Ansible Automation Platform",
		Long: heredoc.Doc(`
			aap manages Ansible Automation Platform resources through the
			Gateway and Controller REST APIs.

			Connection settings come from flags, AAP_* environment variables,
			a .env file in the current directory or ~/.config/aap/config.yaml.
		`),
		Example: heredoc.Doc(`
			$ export AAP_HOST=aap.example.com AAP_TOKEN=...
			$ aap ping
			$ aap template launch "Deploy web" --extra-vars env=prod
			$ aap host list --inventory prod -o json
		`),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := ParseFormat(a.flags.output); err != nil {
				return err
			}
			logger := telemetry.SetupLogger(a.stderr, a.flags.debug)
			cmd.SetContext(telemetry.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.output, "output", "o", string(FormatTable), "Output format: table, json or yaml")
	pf.BoolVar(&a.flags.debug, "debug", false, "Log HTTP requests to stderr")
	pf.StringVar(&a.flags.configFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "Write request metrics in Prometheus text format to this file")
	config.RegisterFlags(pf)
	a.pflags = pf

	clientFn := a.clientsFn()
	outputFn := func() *Output {
		f, _ := ParseFormat(a.flags.output)
		return NewOutputTo(f, a.stdout, a.stderr)
	}

	root.AddCommand(
		NewOrganizationCmd(clientFn, outputFn),
		NewUserCmd(clientFn, outputFn),
		NewTeamCmd(clientFn, outputFn),
		NewProjectCmd(clientFn, outputFn),
		NewTemplateCmd(clientFn, outputFn),
		NewInventoryCmd(clientFn, outputFn),
		NewCredentialCmd(clientFn, outputFn),
		NewHostCmd(clientFn, outputFn),
		NewJobCmd(clientFn, outputFn),
		NewWorkflowCmd(clientFn, outputFn),
		NewWorkflowJobCmd(clientFn, outputFn),
		NewWhoamiCmd(clientFn, outputFn),
		NewPingCmd(clientFn, outputFn, a.connection),
		NewResourceCmd(clientFn, outputFn),
		NewVersionCmd(version, outputFn),
	)

	return root
}

// clientsFn возвращает ClientFunc, загружающую конфигурацию один раз.
func (a *app) clientsFn() ClientFunc {
	return func() (*api.Clients, error) {
		a.once.Do(func() {
			a.cfg, a.err = a.loadConfig()
			if a.err != nil {
				return
			}
			a.clients, a.err = api.New(a.cfg, a.metrics)
		})
		return a.clients, a.err
	}
}

func (a *app) loadConfig() (*config.Config, error) {
	if err := config.BindFlags(a.viper, a.pflags); err != nil {
		return nil, err
	}
	return config.Load(a.viper, config.Options{
		ConfigFile: a.flags.configFile,
		EnvFile:    envFile,
	})
}

// connection возвращает загруженную конфигурацию. Вызывать после ClientFunc.
func (a *app) connection() *config.Config {
	return a.cfg
}
