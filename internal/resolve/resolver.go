package resolve

import (
	"context"
	"sort"
	"strconv"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/telemetry"
)

// ByNameFunc ищет ресурсы с точным совпадением имени (фильтр листинга).
type ByNameFunc func(ctx context.Context, name string) ([]domain.Record, error)

// ByIDFunc получает ресурс по числовому id (прямой GET).
type ByIDFunc func(ctx context.Context, id int) (domain.Record, error)

// Resolver превращает Target в единственную запись ресурса.
//
// Resolver не хранит состояния между вызовами: каждый Resolve заново
// обращается к ByName/ByID.
type Resolver struct {
	// Kind — имя типа ресурса для сообщений ("Organization").
	Kind string

	// NameField — поле записи с именем. По умолчанию "name".
	NameField string

	ByName ByNameFunc
	ByID   ByIDFunc

	// Strict — при нескольких совпадениях по имени вернуть ErrAmbiguous
	// вместо выбора записи с наименьшим id. Включается для удаления.
	Strict bool
}

// Resolve находит ресурс.
//
//   - id и имя вместе: оба разрешаются независимо, id должны совпасть,
//     иначе *MismatchError;
//   - только id: прямой GET;
//   - только имя: сначала точный поиск по имени, даже если имя состоит
//     из цифр. Позиционный аргумент из цифр, не найденный как имя,
//     пробуется как id; явный --name — никогда.
//
// Любая ошибка API превращается в *NotFoundError с исходным текстом
// идентификатора.
func (r *Resolver) Resolve(ctx context.Context, t Target) (domain.Record, error) {
	switch {
	case t.id != nil && t.name != nil:
		byID, err := r.resolveID(ctx, t.id.ID, t.id.String())
		if err != nil {
			return nil, err
		}
		byName, err := r.resolveName(ctx, t.name.Text, false)
		if err != nil {
			return nil, err
		}
		idA, _ := byID.ID()
		idB, _ := byName.ID()
		if idA != idB {
			return nil, &MismatchError{
				Kind:   r.Kind,
				ID:     t.id.ID,
				Name:   t.name.Text,
				IDName: byID.String(r.nameField()),
				NameID: idB,
			}
		}
		return byID, nil

	case t.id != nil:
		return r.resolveID(ctx, t.id.ID, t.id.String())

	case t.name != nil:
		return r.resolveName(ctx, t.name.Text, t.name.Form == ByPositional)

	default:
		return nil, ErrEmptyIdentifier
	}
}

// ResolveID — то же, что Resolve, но возвращает только id.
func (r *Resolver) ResolveID(ctx context.Context, t Target) (int, error) {
	rec, err := r.Resolve(ctx, t)
	if err != nil {
		return 0, err
	}
	id, ok := rec.ID()
	if !ok {
		return 0, &NotFoundError{Kind: r.Kind, Identifier: t.String()}
	}
	return id, nil
}

func (r *Resolver) resolveID(ctx context.Context, id int, text string) (domain.Record, error) {
	rec, err := r.ByID(ctx, id)
	if err != nil {
		telemetry.FromContext(ctx).Debug("lookup by id failed",
			"kind", r.Kind, "id", id, "error", err)
		return nil, &NotFoundError{Kind: r.Kind, Identifier: text, Cause: err}
	}
	if rec == nil {
		return nil, &NotFoundError{Kind: r.Kind, Identifier: text}
	}
	return rec, nil
}

func (r *Resolver) resolveName(ctx context.Context, name string, idFallback bool) (domain.Record, error) {
	logger := telemetry.FromContext(ctx)

	recs, err := r.ByName(ctx, name)
	if err != nil {
		logger.Debug("lookup by name failed", "kind", r.Kind, "name", name, "error", err)
		return nil, &NotFoundError{Kind: r.Kind, Identifier: name, Cause: err}
	}

	// Сервер фильтрует по точному имени, но проверяем ещё раз:
	// старые версии Controller игнорируют неизвестные фильтры.
	field := r.nameField()
	matches := make([]domain.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.String(field) == name {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		if idFallback {
			if id, err := strconv.Atoi(name); err == nil && id > 0 {
				return r.resolveID(ctx, id, name)
			}
		}
		return nil, &NotFoundError{Kind: r.Kind, Identifier: name}

	case 1:
		return matches[0], nil

	default:
		if r.Strict {
			return nil, &AmbiguousError{Kind: r.Kind, Name: name, Count: len(matches)}
		}
		sort.SliceStable(matches, func(i, j int) bool {
			a, _ := matches[i].ID()
			b, _ := matches[j].ID()
			return a < b
		})
		chosen, _ := matches[0].ID()
		logger.Warn("multiple resources share a name, using the lowest id",
			"kind", r.Kind, "name", name, "count", len(matches), "id", chosen)
		return matches[0], nil
	}
}

func (r *Resolver) nameField() string {
	if r.NameField == "" {
		return "name"
	}
	return r.NameField
}
