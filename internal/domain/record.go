package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record — запись ресурса в том виде, в каком её вернул API.
//
// AAP отдаёт слабо типизированные JSON-объекты с вложенными
// summary_fields, поэтому запись хранится как дерево map[string]any,
// а доступ к полям идёт по пути через точку.
type Record map[string]any

// Lookup возвращает значение по пути "a.b.c".
// Второе значение false, если хотя бы один сегмент пути отсутствует
// или промежуточное значение не является объектом.
func (r Record) Lookup(path string) (any, bool) {
	if r == nil || path == "" {
		return nil, false
	}

	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		var m map[string]any
		switch v := cur.(type) {
		case map[string]any:
			m = v
		case Record:
			m = v
		default:
			return nil, false
		}
		next, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ID возвращает числовой id записи. Второе значение false,
// если поле id отсутствует или не является целым числом.
func (r Record) ID() (int, bool) {
	v, ok := r["id"]
	if !ok {
		return 0, false
	}
	return AsInt(v)
}

// String возвращает строковое поле верхнего уровня или "".
func (r Record) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Bool возвращает булево поле верхнего уровня и признак его наличия.
func (r Record) Bool(key string) (bool, bool) {
	b, ok := r[key].(bool)
	return b, ok
}

// AsInt приводит JSON-число к int.
// encoding/json декодирует числа в float64, json.Number встречается
// при UseNumber; дробные значения отвергаются.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
