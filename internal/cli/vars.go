package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// ErrInvalidVars — extra vars или variables не являются объектом YAML/JSON.
var ErrInvalidVars = errors.New("invalid variables")

// parseExtraVars объединяет переменные из файла и пары KEY=VALUE.
//
// Файл читается как YAML (JSON — частный случай YAML). Пары из командной
// строки перекрывают значения из файла; значения пар остаются строками.
func parseExtraVars(pairs []string, file string) (map[string]any, error) {
	vars := map[string]any{}

	if file != "" {
		fromFile, err := readVarsFile(file)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			vars[k] = v
		}
	}

	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q, expected KEY=VALUE", ErrInvalidVars, kv)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}

// readVarsFile читает YAML/JSON-объект из файла.
func readVarsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variables file: %w", err)
	}
	return decodeVars(data, path)
}

func decodeVars(data []byte, source string) (map[string]any, error) {
	if strings.TrimSpace(string(data)) == "" {
		return map[string]any{}, nil
	}
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrInvalidVars, source, err)
	}
	if vars == nil {
		return nil, fmt.Errorf("%w in %s: expected a mapping", ErrInvalidVars, source)
	}
	return vars, nil
}

// parseVariables проверяет значение --variables для hosts и inventories.
// "@path" читает файл. Результат — JSON-строка, как её хранит AAP.
func parseVariables(s string) (string, error) {
	vars, err := parseVarsArg(s, "--variables")
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVars, err)
	}
	return string(out), nil
}

// parseVarsArg разбирает значение флага как YAML/JSON-объект,
// "@path" читает объект из файла.
func parseVarsArg(s, flag string) (map[string]any, error) {
	if path, ok := strings.CutPrefix(s, "@"); ok {
		return readVarsFile(path)
	}
	return decodeVars([]byte(s), flag)
}
