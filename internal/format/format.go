package format

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DatetimeLayout — формат вывода дат во всех таблицах.
const DatetimeLayout = "2006-01-02 15:04:05"

// isoLayouts — форматы ISO-8601, которые встречаются в ответах AAP.
// Controller отдаёт "2025-07-01T14:47:53.988589Z", но в старых
// версиях и в pong Gateway бывает время без зоны.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// FormatName берёт в двойные кавычки имя, состоящее только из цифр.
// Так ресурс с именем "420" не путается в таблице с ресурсом id 420.
func FormatName(raw string) string {
	if isDigits(raw) {
		return `"` + raw + `"`
	}
	return raw
}

// FormatDatetime приводит ISO-8601 к DatetimeLayout.
// Пустая строка даёт "", нераспознанная строка возвращается как есть.
func FormatDatetime(iso string) string {
	if iso == "" {
		return ""
	}
	t, ok := parseISO(iso)
	if !ok {
		return iso
	}
	return t.Format(DatetimeLayout)
}

// FormatDuration возвращает прошедшее время между start и end
// в виде "1h 2m 5s". Ведущие нулевые единицы опускаются, нулевая
// длительность — "0s". Пустые, нераспознанные или перевёрнутые
// метки времени дают "".
func FormatDuration(startISO, endISO string) string {
	if startISO == "" || endISO == "" {
		return ""
	}
	start, ok := parseISO(startISO)
	if !ok {
		return ""
	}
	end, ok := parseISO(endISO)
	if !ok {
		return ""
	}
	d := end.Sub(start)
	if d < 0 {
		return ""
	}
	return FormatSeconds(int64(d / time.Second))
}

// FormatSeconds форматирует целое число секунд как FormatDuration.
func FormatSeconds(total int64) string {
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Stringify приводит значение из JSON к строке для таблицы.
//
//   - nil → ""
//   - целые float64 печатаются без дробной части
//   - объекты и массивы — компактный JSON
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case map[string]any:
		if len(x) == 0 {
			return ""
		}
		return compactJSON(x)
	case []any:
		if len(x) == 0 {
			return ""
		}
		return compactJSON(x)
	default:
		return fmt.Sprint(x)
	}
}

// YesNo отображает булево значение как Yes/No; не-булевы значения
// проходят через Stringify.
func YesNo(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	return Stringify(v)
}

// Title превращает имя поля в заголовок: "job_template" → "Job Template".
// Аббревиатуры id/scm/url/ssl пишутся заглавными.
func Title(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool { return r == '_' || r == '.' })
	for i, w := range words {
		switch w {
		case "id", "scm", "url", "ssl", "uuid", "ha", "db":
			words[i] = strings.ToUpper(w)
		default:
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
