package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/telemetry"
)

// countError — значение колонки Count, если счётчик получить не удалось.
const countError = "Error"

// ResourceCount — число ресурсов одного типа.
type ResourceCount struct {
	ResourceType string `json:"resource_type"`
	Count        any    `json:"count"`
}

// NewResourceCmd создаёт группу команд для сводки по ресурсам.
func NewResourceCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Summarize platform resources",
	}

	cmd.AddCommand(newResourceListCmd(clientFn, outputFn))

	return cmd
}

func newResourceListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the number of resources of each type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := telemetry.FromContext(ctx)

			// page_size=1: нужен только count.
			params := url.Values{"page_size": {"1"}}

			counts := make([]ResourceCount, 0, len(domain.CountedKinds))
			rows := make([][]string, 0, len(domain.CountedKinds))
			for _, kind := range domain.CountedKinds {
				rc := ResourceCount{ResourceType: kind.Plural}
				page, err := cs.For(kind).List(ctx, kind.Path, params)
				if err != nil {
					logger.Warn("could not count resources", "type", kind.Plural, "error", err)
					rc.Count = countError
				} else {
					rc.Count = page.Count
				}
				counts = append(counts, rc)
				rows = append(rows, []string{rc.ResourceType, countString(rc.Count)})
			}

			return outputFn().Print([]string{"Resource Type", "Count"}, rows, counts)
		},
	}
}

func countString(v any) string {
	if n, ok := v.(int); ok {
		return strconv.Itoa(n)
	}
	return countError
}
