package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/aap/internal/api"
	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
	"github.com/shaiso/aap/internal/resolve"
)

// ErrNothingToUpdate — команда set вызвана без изменяемых полей.
var ErrNothingToUpdate = errors.New("nothing to update: pass at least one field flag")

// resource описывает вывод одного типа ресурса.
type resource struct {
	kind   domain.Kind
	list   []format.Column // list
	long   []format.Column // list --long
	detail []format.Column // show, create, set
}

func (r resource) columns(long bool) []format.Column {
	if long && r.long != nil {
		return r.long
	}
	return r.list
}

func (r resource) lower() string {
	return strings.ToLower(r.kind.Label)
}

// listParams — параметры листинга: размер страницы и стабильный порядок.
func listParams(limit int) url.Values {
	size := api.DefaultPageSize
	if limit > 0 {
		size = limit
	}
	return url.Values{
		"page_size": {strconv.Itoa(size)},
		"order_by":  {"id"},
	}
}

// fetchList запрашивает первую страницу коллекции.
func fetchList(ctx context.Context, cs *api.Clients, kind domain.Kind, params url.Values) ([]domain.Record, error) {
	page, err := cs.For(kind).List(ctx, kind.Path, params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", strings.ToLower(kind.Plural), err)
	}
	return page.Results, nil
}

// newShowCmd — команда show с позиционным аргументом, --id и --name.
func newShowCmd(res resource, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "show [NAME|ID]",
		Short: "Show " + res.lower() + " details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := clientFn()
			if err != nil {
				return err
			}

			rec, err := resolveTarget(cmd, cs, res.kind, &tf, args)
			if err != nil {
				return err
			}
			return outputFn().Show(res.detail, rec)
		},
	}

	tf.register(cmd, res.kind.Label, true)
	return cmd
}

// newDeleteCmd — удаление одного или нескольких ресурсов.
//
// Позиционные аргументы разрешаются по одному; --id/--name выбирают
// ровно один ресурс и проверяются друг против друга. Совпадение имени
// у нескольких ресурсов — ошибка, а не выбор наименьшего id.
func newDeleteCmd(res resource, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "delete [NAME|ID]...",
		Short: "Delete " + res.lower() + "(s)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := deleteTargets(cmd, &tf, res, args)
			if err != nil {
				return err
			}

			cs, err := clientFn()
			if err != nil {
				return err
			}
			return runDelete(cmd.Context(), cs, res.kind, targets, outputFn())
		},
	}

	tf.register(cmd, res.kind.Label, true)
	return cmd
}

func deleteTargets(cmd *cobra.Command, tf *targetFlags, res resource, args []string) ([]resolve.Target, error) {
	if tf.changed(cmd) {
		if len(args) > 1 {
			return nil, fmt.Errorf("--id and --name select a single %s; pass either flags or a list of names", res.lower())
		}
		t, err := tf.target(cmd, args)
		if err != nil {
			return nil, err
		}
		return []resolve.Target{t}, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("at least one %s name or ID is required", res.lower())
	}
	targets := make([]resolve.Target, len(args))
	for i, a := range args {
		targets[i] = resolve.Positional(a)
	}
	return targets, nil
}

func runDelete(ctx context.Context, cs *api.Clients, kind domain.Kind, targets []resolve.Target, out *Output) error {
	r := newResolver(cs, kind, true)
	c := cs.For(kind)

	deleteOne := func(t resolve.Target) error {
		rec, err := r.Resolve(ctx, t)
		if err != nil {
			return err
		}
		id, err := recordID(kind, rec)
		if err != nil {
			return err
		}
		if err := c.Delete(ctx, kind.ItemPath(id)); err != nil {
			return fmt.Errorf("delete %s '%s': %w", strings.ToLower(kind.Label), t, err)
		}
		out.Success(fmt.Sprintf("%s %s (ID %d) deleted", kind.Label, displayName(kind, rec), id))
		return nil
	}

	if len(targets) == 1 {
		return deleteOne(targets[0])
	}

	failed := 0
	for _, t := range targets {
		if err := deleteOne(t); err != nil {
			out.Error(err.Error())
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d %s", failed, len(targets), strings.ToLower(kind.Plural))
	}
	return nil
}

// runCreate создаёт ресурс и выводит результат.
func runCreate(ctx context.Context, cs *api.Clients, res resource, body map[string]any, out *Output) error {
	rec, err := cs.For(res.kind).Post(ctx, res.kind.Path, body)
	if err != nil {
		return fmt.Errorf("create %s: %w", res.lower(), err)
	}
	return out.Show(res.detail, rec)
}

// runSet обновляет найденный ресурс полями body и выводит результат.
func runSet(cmd *cobra.Command, cs *api.Clients, res resource, tf *targetFlags, args []string, body map[string]any, out *Output) error {
	if len(body) == 0 {
		return ErrNothingToUpdate
	}

	rec, err := resolveTarget(cmd, cs, res.kind, tf, args)
	if err != nil {
		return err
	}
	id, err := recordID(res.kind, rec)
	if err != nil {
		return err
	}

	c := cs.For(res.kind)
	updated, err := c.Patch(cmd.Context(), res.kind.ItemPath(id), body)
	if err != nil {
		return fmt.Errorf("update %s '%s': %w", res.lower(), displayName(res.kind, rec), err)
	}
	if updated == nil {
		if updated, err = c.Get(cmd.Context(), res.kind.ItemPath(id), nil); err != nil {
			return err
		}
	}
	return out.Show(res.detail, updated)
}

// displayName — имя записи в кавычках для сообщений.
func displayName(kind domain.Kind, rec domain.Record) string {
	return "'" + rec.String(kind.NameField) + "'"
}

// fields собирает тело запроса из явно заданных флагов.
type fields struct {
	cmd  *cobra.Command
	body map[string]any
}

func newFields(cmd *cobra.Command) *fields {
	return &fields{cmd: cmd, body: map[string]any{}}
}

// set добавляет key, если флаг flag задан явно.
func (f *fields) set(flag, key string, value any) *fields {
	if f.cmd.Flags().Changed(flag) {
		f.body[key] = value
	}
	return f
}

// toggle обрабатывает пару --x/--no-x. Ошибка, если заданы обе.
func (f *fields) toggle(on, off, key string) error {
	onSet, offSet := f.cmd.Flags().Changed(on), f.cmd.Flags().Changed(off)
	switch {
	case onSet && offSet:
		return fmt.Errorf("--%s and --%s are mutually exclusive", on, off)
	case onSet:
		f.body[key] = true
	case offSet:
		f.body[key] = false
	}
	return nil
}

// ref разрешает флаг-ссылку в id и добавляет его в тело.
func (f *fields) ref(ctx context.Context, cs *api.Clients, flag, key string, kind domain.Kind, value string) error {
	if !f.cmd.Flags().Changed(flag) {
		return nil
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("--%s must not be empty", flag)
	}
	id, err := lookupRef(ctx, cs, kind, value)
	if err != nil {
		return err
	}
	f.body[key] = id
	return nil
}
