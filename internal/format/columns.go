package format

import (
	"strings"

	"github.com/shaiso/aap/internal/domain"
)

// Renderer превращает сырое значение поля в строку для вывода.
type Renderer func(v any) string

// Column — одна колонка таблицы или строка детального вывода.
type Column struct {
	// Header — заголовок колонки. Пустой заголовок выводится как Title(Path).
	Header string

	// Path — путь к полю записи через точку ("summary_fields.project.name").
	Path string

	// Render — необязательное преобразование значения.
	// По умолчанию Stringify, а имена из одних цифр берутся в кавычки.
	Render Renderer

	// Compute — значение, вычисляемое по всей записи. Если задано,
	// Path используется только для заголовка.
	Compute func(rec domain.Record) string
}

// Title возвращает заголовок колонки.
func (c Column) Title() string {
	if c.Header != "" {
		return c.Header
	}
	return Title(c.Path)
}

// Columns строит колонки из списка путей с рендерингом по умолчанию.
func Columns(paths ...string) []Column {
	cols := make([]Column, len(paths))
	for i, p := range paths {
		cols[i] = Column{Path: p}
	}
	return cols
}

// Field — колонка с рендерингом по умолчанию и явным заголовком.
func Field(header, path string) Column {
	return Column{Header: header, Path: path}
}

// Datetime — колонка с датой в DatetimeLayout.
func Datetime(header, path string) Column {
	return Column{Header: header, Path: path, Render: func(v any) string {
		return FormatDatetime(Stringify(v))
	}}
}

// Bool — колонка Yes/No.
func Bool(header, path string) Column {
	return Column{Header: header, Path: path, Render: YesNo}
}

// Duration — колонка прошедшего времени между двумя метками записи.
func Duration(header, startPath, endPath string) Column {
	return Column{Header: header, Path: startPath, Compute: func(rec domain.Record) string {
		start, _ := rec.Lookup(startPath)
		end, _ := rec.Lookup(endPath)
		return FormatDuration(Stringify(start), Stringify(end))
	}}
}

// Headers возвращает заголовки колонок по порядку.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title()
	}
	return out
}

// Project извлекает значения колонок из записи в заданном порядке.
//
// Функция тотальна: отсутствующее поле даёт "", а не ошибку.
// Для колонки без точки, которой нет в записи, используется соглашение
// о связанных объектах: summary_fields.<col>.name, затем summary.<col>.name.
func Project(rec domain.Record, cols []Column) []string {
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = Value(rec, c)
	}
	return row
}

// Value возвращает отформатированное значение одной колонки.
func Value(rec domain.Record, c Column) string {
	if c.Compute != nil {
		return c.Compute(rec)
	}
	path, v, ok := lookup(rec, c.Path)
	if !ok {
		return ""
	}
	if c.Render != nil {
		return c.Render(v)
	}
	s := Stringify(v)
	if isNamePath(path) {
		return FormatName(s)
	}
	return s
}

// Rows применяет Project ко всем записям.
func Rows(recs []domain.Record, cols []Column) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = Project(r, cols)
	}
	return rows
}

// Pairs превращает запись в пары "заголовок — значение" для детального вывода.
func Pairs(rec domain.Record, cols []Column) [][2]string {
	out := make([][2]string, len(cols))
	for i, c := range cols {
		out[i] = [2]string{c.Title(), Value(rec, c)}
	}
	return out
}

// lookup находит значение колонки и возвращает фактически
// использованный путь, чтобы рендеринг знал, что это имя.
func lookup(rec domain.Record, path string) (string, any, bool) {
	if v, ok := rec.Lookup(path); ok && v != nil {
		if p, rv, ok := relatedName(rec, path, v); ok {
			return p, rv, true
		}
		return path, v, true
	}
	if strings.Contains(path, ".") {
		return path, nil, false
	}
	for _, prefix := range []string{"summary_fields.", "summary."} {
		p := prefix + path + ".name"
		if v, ok := rec.Lookup(p); ok && v != nil {
			return p, v, true
		}
	}
	return path, nil, false
}

// relatedName подменяет числовой внешний ключ ("project": 7) на имя
// связанного объекта из summary_fields, если оно там есть.
func relatedName(rec domain.Record, path string, v any) (string, any, bool) {
	if strings.Contains(path, ".") {
		return "", nil, false
	}
	if _, isID := domain.AsInt(v); !isID {
		return "", nil, false
	}
	p := "summary_fields." + path + ".name"
	if name, ok := rec.Lookup(p); ok && name != nil {
		return p, name, true
	}
	return "", nil, false
}

func isNamePath(path string) bool {
	last := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		last = path[i+1:]
	}
	return last == "name" || last == "username"
}
