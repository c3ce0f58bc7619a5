package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки разрешения идентификаторов.
var (
	// ErrNotFound — идентификатор не указывает ни на один ресурс.
	ErrNotFound = errors.New("resource not found")

	// ErrAmbiguous — по имени найдено несколько ресурсов (только в строгом режиме).
	ErrAmbiguous = errors.New("multiple resources match")

	// ErrMismatch — --id и имя указывают на разные ресурсы.
	ErrMismatch = errors.New("id and name refer to different resources")

	// ErrEmptyIdentifier — не задан ни позиционный аргумент, ни --id, ни --name.
	ErrEmptyIdentifier = errors.New("no resource identifier given")

	// ErrConflictingNames — позиционный аргумент и --name различаются.
	ErrConflictingNames = errors.New("positional argument and --name differ")
)

// NotFoundError — ресурс не найден или его не удалось получить.
//
// Сообщение всегда короткое и человекочитаемое; причина (HTTP-ошибка,
// сетевая ошибка) доступна через errors.Unwrap, но в Error() не попадает.
type NotFoundError struct {
	Kind       string // "Organization", "Job template"
	Identifier string // то, что ввёл пользователь
	Cause      error  // исходная ошибка API, может быть nil
}

// Error реализует интерфейс error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Identifier)
}

// Is позволяет проверять errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Unwrap возвращает исходную ошибку.
func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// AmbiguousError — несколько ресурсов с одним именем.
type AmbiguousError struct {
	Kind  string
	Name  string
	Count int
}

// Error реализует интерфейс error.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%d %s resources found with name '%s'", e.Count, strings.ToLower(e.Kind), e.Name)
}

// Is позволяет проверять errors.Is(err, ErrAmbiguous).
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// MismatchError — явный id и имя разрешились в разные ресурсы.
type MismatchError struct {
	Kind   string
	ID     int
	Name   string // имя, которое ввёл пользователь
	IDName string // фактическое имя ресурса с этим id
	NameID int    // фактический id ресурса с этим именем
}

// Error реализует интерфейс error.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("ID %d and name '%s' refer to different %s resources: ID %d is '%s', not '%s'",
		e.ID, e.Name, strings.ToLower(e.Kind), e.ID, e.IDName, e.Name)
}

// Is позволяет проверять errors.Is(err, ErrMismatch).
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}
