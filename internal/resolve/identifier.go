package resolve

import (
	"fmt"
	"strconv"
	"strings"
)

// Form — способ, которым пользователь указал ресурс.
type Form int

const (
	// ByPositional — позиционный аргумент: имя или id, записанный строкой.
	ByPositional Form = iota + 1

	// ByName — явный --name, всегда имя.
	ByName

	// ByID — явный --id, всегда число.
	ByID
)

// Identifier — один идентификатор ресурса (тегированное объединение).
// Для ByID заполнен ID, для остальных форм — Text.
type Identifier struct {
	Form Form
	Text string
	ID   int
}

// String возвращает идентификатор в том виде, в каком его ввёл пользователь.
func (i Identifier) String() string {
	if i.Form == ByID {
		return strconv.Itoa(i.ID)
	}
	return i.Text
}

// Input — сырые значения аргументов команды.
type Input struct {
	Positional string
	Name       string
	ID         int
	HasID      bool // --id был задан явно
}

// Target — проверенный набор идентификаторов одной команды:
// не более одного id и не более одного имени.
type Target struct {
	id   *Identifier
	name *Identifier
}

// ParseTarget проверяет аргументы и строит Target.
//
// Позиционный аргумент и --name взаимозаменяемы, но если заданы оба,
// они должны совпадать. --id может сочетаться с именем: тогда Resolver
// проверит, что оба указывают на один ресурс.
func ParseTarget(in Input) (Target, error) {
	var t Target

	if in.HasID {
		if in.ID <= 0 {
			return Target{}, fmt.Errorf("invalid --id %d: must be a positive integer", in.ID)
		}
		t.id = &Identifier{Form: ByID, ID: in.ID}
	}

	// Текст сравнивается с именем ресурса как есть: пробелы значимы.
	positional, name := in.Positional, in.Name
	if isBlank(positional) {
		positional = ""
	}
	if isBlank(name) {
		name = ""
	}

	switch {
	case positional != "" && name != "" && positional != name:
		return Target{}, fmt.Errorf("%w: '%s' vs '%s'", ErrConflictingNames, positional, name)
	case name != "":
		t.name = &Identifier{Form: ByName, Text: name}
	case positional != "":
		t.name = &Identifier{Form: ByPositional, Text: positional}
	}

	if t.id == nil && t.name == nil {
		return Target{}, ErrEmptyIdentifier
	}
	return t, nil
}

// Positional — Target из одного позиционного аргумента.
// Используется командами, принимающими список ресурсов.
func Positional(text string) Target {
	return Target{name: &Identifier{Form: ByPositional, Text: text}}
}

// String возвращает идентификатор для сообщений: имя, если оно есть, иначе id.
func (t Target) String() string {
	if t.name != nil {
		return t.name.String()
	}
	if t.id != nil {
		return t.id.String()
	}
	return ""
}

// HasID сообщает, задан ли явный --id.
func (t Target) HasID() bool { return t.id != nil }

// HasName сообщает, задано ли имя (позиционно или через --name).
func (t Target) HasName() bool { return t.name != nil }

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
