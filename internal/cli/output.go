package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sigs.k8s.io/yaml"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

// Format — формат вывода данных.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat проверяет значение флага --output.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Output управляет форматированием вывода CLI.
type Output struct {
	format Format
	w      io.Writer // stdout для данных
	errW   io.Writer // stderr для сообщений
}

// NewOutputTo создаёт Output с произвольными writers.
func NewOutputTo(f Format, w, errW io.Writer) *Output {
	return &Output{format: f, w: w, errW: errW}
}

// Structured сообщает, выводятся ли данные как JSON/YAML.
func (o *Output) Structured() bool {
	return o.format == FormatJSON || o.format == FormatYAML
}

// List выводит коллекцию: таблицу по колонкам или сырые записи.
func (o *Output) List(cols []format.Column, recs []domain.Record) error {
	if o.Structured() {
		if recs == nil {
			recs = []domain.Record{}
		}
		return o.Data(recs)
	}
	o.Table(format.Headers(cols), format.Rows(recs, cols))
	return nil
}

// Show выводит одну запись: таблицу "поле — значение" или сырую запись.
func (o *Output) Show(cols []format.Column, rec domain.Record) error {
	if o.Structured() {
		return o.Data(rec)
	}
	o.Detail(format.Pairs(rec, cols))
	return nil
}

// Print выводит данные: таблицу или JSON/YAML в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, data any) error {
	if o.Structured() {
		return o.Data(data)
	}
	o.Table(headers, rows)
	return nil
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	// Заголовки
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	// Разделитель
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	// Строки данных
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// Detail выводит пары "поле — значение" таблицей Field/Value.
// Пара с пустым ключом выводится как пустая строка-разделитель.
func (o *Output) Detail(pairs [][2]string) {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p[0], p[1]}
	}
	o.Table([]string{"Field", "Value"}, rows)
}

// Data выводит произвольное значение в JSON или YAML.
func (o *Output) Data(v any) error {
	if o.format == FormatYAML {
		return o.YAML(v)
	}
	return o.JSON(v)
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML выводит данные в формате YAML.
func (o *Output) YAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	_, err = o.w.Write(data)
	return err
}

// Text выводит текст как есть (stdout job).
func (o *Output) Text(s string) {
	fmt.Fprint(o.w, s)
	if s != "" && !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(o.w)
	}
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Warn выводит предупреждение в stderr.
func (o *Output) Warn(msg string) {
	fmt.Fprintln(o.errW, "Warning: "+msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}
