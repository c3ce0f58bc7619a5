package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/config"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
	"github.com/shaiso/aap/internal/telemetry"
)

// ConfigFunc возвращает загруженную конфигурацию подключения.
type ConfigFunc func() *config.Config

// defaultPingTimeout — таймаут одного ping, меньше общего таймаута запросов.
const defaultPingTimeout = 10 * time.Second

// pingPath — health endpoint обоих API.
const pingPath = "ping/"

// APIHealth — результат ping одного API.
type APIHealth struct {
	API            string              `json:"api"`
	Status         domain.HealthStatus `json:"status"`
	ResponseTimeMS float64             `json:"response_time_ms"`
	Version        string              `json:"version"`
	ServerTime     string              `json:"server_time,omitempty"`
	DBConnected    *bool               `json:"db_connected,omitempty"`
	ProxyConnected *bool               `json:"proxy_connected,omitempty"`
	ActiveNode     string              `json:"active_node,omitempty"`
	Error          string              `json:"error,omitempty"`

	response domain.Record
}

// PingReport — сводка ping по обоим API.
type PingReport struct {
	OverallStatus  domain.HealthStatus `json:"overall_status"`
	ServerHost     string              `json:"server_host"`
	Authentication string              `json:"authentication"`
	Gateway        APIHealth           `json:"gateway"`
	Controller     APIHealth           `json:"controller"`
	Detail         domain.Record       `json:"detail,omitempty"`
}

// NewPingCmd создаёт команду проверки доступности Gateway и Controller.
func NewPingCmd(clientFn ClientFunc, outputFn OutputFunc, configFn ConfigFunc) *cobra.Command {
	var detail bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the Gateway and Controller APIs",
		Long: heredoc.Doc(`
			Ping the Gateway and Controller APIs and report their health.

			Each API is rated by response time: OK up to 2s, SLOW up to 5s,
			WARNING above that and FAILED on error. The overall status is
			PARTIAL when exactly one API fails.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			report := PingReport{
				ServerHost:     configFn().Host,
				Authentication: authMethod(configFn()),
				Gateway:        pingAPI(ctx, cs.Gateway, timeout),
				Controller:     pingAPI(ctx, cs.Controller, timeout),
			}
			report.OverallStatus = domain.OverallHealth(report.Gateway.Status, report.Controller.Status)
			if detail && report.Controller.response != nil {
				report.Detail = report.Controller.response
			}

			telemetry.FromContext(ctx).Debug("ping finished",
				"overall", report.OverallStatus,
				"gateway", report.Gateway.Status,
				"controller", report.Controller.Status)

			out := outputFn()
			if out.Structured() {
				return out.Data(report)
			}
			pairs := pingPairs(report)
			if detail {
				pairs = append(pairs, controllerDetailPairs(report.Controller)...)
			}
			out.Detail(pairs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "Show Controller instances and instance groups")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultPingTimeout, "Timeout for each ping request")

	return cmd
}

func authMethod(cfg *config.Config) string {
	if cfg != nil && cfg.Token != "" {
		return "Token"
	}
	return "Username/Password"
}

// pingAPI запрашивает ping/ и оценивает здоровье API по времени ответа.
func pingAPI(ctx context.Context, c *api.Client, timeout time.Duration) APIHealth {
	h := APIHealth{API: string(c.Group()), Version: "Unknown"}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	rec, err := c.Get(ctx, pingPath, nil)
	elapsed := time.Since(start)
	h.ResponseTimeMS = math.Round(float64(elapsed.Microseconds())/10) / 100

	if err != nil {
		h.Status = domain.HealthFailed
		h.Error = err.Error()
		return h
	}

	h.Status = domain.HealthFromLatency(elapsed)
	h.response = rec
	if v := rec.String("version"); v != "" {
		h.Version = v
	}
	h.ActiveNode = rec.String("active_node")
	h.ServerTime = format.FormatDatetime(rec.String("pong"))
	if b, ok := rec.Bool("db_connected"); ok {
		h.DBConnected = &b
	}
	if b, ok := rec.Bool("proxy_connected"); ok {
		h.ProxyConnected = &b
	}
	return h
}

// separator — пустая строка между секциями детального вывода.
var separator = [2]string{"", ""}

func pingPairs(r PingReport) [][2]string {
	pairs := [][2]string{
		{"Overall Status", string(r.OverallStatus)},
		{"Server Host", r.ServerHost},
		{"Authentication", r.Authentication},
	}
	for _, h := range []APIHealth{r.Gateway, r.Controller} {
		pairs = append(pairs, separator)
		pairs = append(pairs, apiPairs(h)...)
	}
	return pairs
}

func apiPairs(h APIHealth) [][2]string {
	pairs := [][2]string{
		{h.API + " API Status", string(h.Status)},
		{h.API + " Response Time", fmt.Sprintf("%.2f ms", h.ResponseTimeMS)},
		{h.API + " Version", h.Version},
	}
	if h.ServerTime != "" {
		pairs = append(pairs, [2]string{h.API + " Server Time", h.ServerTime})
	}
	if h.DBConnected != nil {
		pairs = append(pairs, [2]string{h.API + " DB Status", connectedLabel(*h.DBConnected)})
	}
	if h.ProxyConnected != nil {
		pairs = append(pairs, [2]string{h.API + " Proxy Status", connectedLabel(*h.ProxyConnected)})
	}
	if h.ActiveNode != "" {
		pairs = append(pairs, [2]string{h.API + " Active Node", h.ActiveNode})
	}
	if h.Error != "" {
		pairs = append(pairs, [2]string{h.API + " Error", h.Error})
	}
	return pairs
}

func connectedLabel(ok bool) string {
	if ok {
		return "Connected"
	}
	return "Disconnected"
}

// controllerDetailPairs раскрывает инфраструктуру Controller из того же
// ответа ping: HA, install UUID, узлы и группы инстансов.
func controllerDetailPairs(h APIHealth) [][2]string {
	if h.response == nil {
		return [][2]string{separator, {"Controller Detail Error", "Controller API is unavailable"}}
	}
	rec := h.response

	ha, _ := rec.Bool("ha")
	installUUID := rec.String("install_uuid")
	if installUUID == "" {
		installUUID = "N/A"
	}
	pairs := [][2]string{
		separator,
		{"Controller HA Enabled", format.YesNo(ha)},
		{"Controller Install UUID", installUUID},
	}

	instances := records(rec["instances"])
	if len(instances) > 0 {
		pairs = append(pairs, separator,
			[2]string{"Controller Instances", fmt.Sprintf("%d node(s)", len(instances))})
		for i, inst := range instances {
			prefix := fmt.Sprintf("Instance %d", i+1)
			if i > 0 {
				pairs = append(pairs, separator)
			}
			pairs = append(pairs,
				[2]string{prefix + " Node", valueOr(inst, "node")},
				[2]string{prefix + " Type", valueOr(inst, "node_type")},
				[2]string{prefix + " Capacity", valueOr(inst, "capacity")},
				[2]string{prefix + " Version", valueOr(inst, "version")},
				[2]string{prefix + " Heartbeat", format.FormatDatetime(inst.String("heartbeat"))},
			)
		}
	}

	groups := records(rec["instance_groups"])
	if len(groups) > 0 {
		pairs = append(pairs, separator,
			[2]string{"Controller Instance Groups", fmt.Sprintf("%d group(s)", len(groups))})
		for i, g := range groups {
			prefix := fmt.Sprintf("Group %d", i+1)
			if i > 0 {
				pairs = append(pairs, separator)
			}
			members, _ := g["instances"].([]any)
			names := make([]string, 0, len(members))
			for _, m := range members {
				names = append(names, format.Stringify(m))
			}
			pairs = append(pairs,
				[2]string{prefix + " Name", valueOr(g, "name")},
				[2]string{prefix + " Capacity", valueOr(g, "capacity")},
				[2]string{prefix + " Instances", fmt.Sprintf("%d (%s)", len(names), strings.Join(names, ", "))},
			)
		}
	}
	return pairs
}

// records приводит JSON-массив объектов к []domain.Record.
func records(v any) []domain.Record {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, domain.Record(m))
		}
	}
	return out
}

func valueOr(rec domain.Record, key string) string {
	if s := format.Stringify(rec[key]); s != "" {
		return s
	}
	return "Unknown"
}
