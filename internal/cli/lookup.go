package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/resolve"
)

// namePageSize — сколько совпадений по имени запрашивать. Больше одного,
// чтобы заметить дубликаты.
const namePageSize = 10

// newResolver строит Resolver для типа ресурса поверх API-клиента.
func newResolver(cs *api.Clients, kind domain.Kind, strict bool) *resolve.Resolver {
	c := cs.For(kind)
	return &resolve.Resolver{
		Kind:      kind.Label,
		NameField: kind.NameField,
		Strict:    strict,
		ByName: func(ctx context.Context, name string) ([]domain.Record, error) {
			page, err := c.List(ctx, kind.Path, url.Values{
				kind.NameField: {name},
				"order_by":     {"id"},
				"page_size":    {strconv.Itoa(namePageSize)},
			})
			if err != nil {
				return nil, err
			}
			return page.Results, nil
		},
		ByID: func(ctx context.Context, id int) (domain.Record, error) {
			return c.Get(ctx, kind.ItemPath(id), nil)
		},
	}
}

// lookupRef разрешает значение флага-ссылки (--organization, --inventory)
// в id. Пустое значение даёт 0 без ошибки.
func lookupRef(ctx context.Context, cs *api.Clients, kind domain.Kind, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return newResolver(cs, kind, false).ResolveID(ctx, resolve.Positional(text))
}

// targetFlags — флаги --id и --name для выбора ресурса.
type targetFlags struct {
	id       int
	name     string
	withName bool
}

// register добавляет --id и, если withName, --name.
// Команды set используют --name для нового имени и регистрируют только --id.
func (f *targetFlags) register(cmd *cobra.Command, label string, withName bool) {
	f.withName = withName
	cmd.Flags().IntVar(&f.id, "id", 0, label+" ID")
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", label+" name")
	}
}

// target строит resolve.Target из позиционного аргумента и флагов.
func (f *targetFlags) target(cmd *cobra.Command, args []string) (resolve.Target, error) {
	in := resolve.Input{
		ID:    f.id,
		HasID: cmd.Flags().Changed("id"),
	}
	if f.withName {
		in.Name = f.name
	}
	if len(args) > 0 {
		in.Positional = args[0]
	}
	return resolve.ParseTarget(in)
}

// changed сообщает, задан ли хотя бы один из флагов выбора ресурса.
func (f *targetFlags) changed(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("id") {
		return true
	}
	return f.withName && cmd.Flags().Changed("name")
}

// resolveTarget разбирает аргументы и находит ресурс.
func resolveTarget(cmd *cobra.Command, cs *api.Clients, kind domain.Kind, f *targetFlags, args []string) (domain.Record, error) {
	t, err := f.target(cmd, args)
	if err != nil {
		return nil, err
	}
	return newResolver(cs, kind, false).Resolve(cmd.Context(), t)
}

// recordID возвращает id записи или ошибку, если API вернул запись без id.
func recordID(kind domain.Kind, rec domain.Record) (int, error) {
	id, ok := rec.ID()
	if !ok {
		return 0, fmt.Errorf("%s record has no id", kind.Label)
	}
	return id, nil
}

// parseJobID разбирает позиционный id job. Jobs не ищутся по имени:
// имя job совпадает с именем шаблона и не уникально.
func parseJobID(kind domain.Kind, arg string) (resolve.Target, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return resolve.Target{}, fmt.Errorf("%s ID must be a positive integer, got %q", kind.Label, arg)
	}
	return resolve.ParseTarget(resolve.Input{ID: id, HasID: true})
}

// getJob находит job или workflow job по позиционному id.
func getJob(ctx context.Context, cs *api.Clients, kind domain.Kind, arg string) (domain.Record, error) {
	t, err := parseJobID(kind, arg)
	if err != nil {
		return nil, err
	}
	return newResolver(cs, kind, false).Resolve(ctx, t)
}
