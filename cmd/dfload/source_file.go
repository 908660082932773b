package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// readSourceFile decodes a source configuration. A sibling named
// <name>.local.<ext> is merged over it when present.
func readSourceFile(path string) (map[string]interface{}, error) {
	config, err := decodeSourceFile(path)
	if err != nil {
		return nil, err
	}

	local := localOverridePath(path)
	if _, err := os.Stat(local); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	override, err := decodeSourceFile(local)
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(&config, override, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", local, err)
	}
	slog.Info("merging source config with local overrides", "local", local)

	return config, nil
}

func decodeSourceFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := make(map[string]interface{})
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json", ".json5":
		err = json5.Unmarshal(data, &config)
	default:
		return nil, fmt.Errorf("unsupported source file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return config, nil
}

func localOverridePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// applySet assigns value at a dotted path such as "schemas.0.timeout".
// The value is decoded as YAML, so "30" becomes a number and "true" a bool.
func applySet(config map[string]interface{}, assignment string) error {
	key, raw, ok := strings.Cut(assignment, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("invalid --set %q, expected key=value", assignment)
	}

	var value interface{}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if value == nil {
		value = raw
	}

	parts := strings.Split(key, ".")
	var current interface{} = config
	for i, part := range parts {
		last := i == len(parts)-1

		switch node := current.(type) {
		case map[string]interface{}:
			if last {
				node[part] = value
				return nil
			}
			next, exists := node[part]
			if !exists || next == nil {
				next = make(map[string]interface{})
				node[part] = next
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("invalid index %q in %s", part, key)
			}
			if last {
				node[idx] = value
				return nil
			}
			current = node[idx]
		default:
			return fmt.Errorf("cannot set %s: %s is not an object or list", key, strings.Join(parts[:i], "."))
		}
	}
	return nil
}
