package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// source resolves a setting from the environment first, then from the
// optional TOML file, then from the compiled default.
type source struct {
	file map[string]string
}

// loadFile reads a flat TOML document whose keys are the lower-cased
// environment variable names, e.g. `store_driver = "postgres"`.
func loadFile(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return source{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		if list, ok := value.([]any); ok {
			items := make([]string, 0, len(list))
			for _, item := range list {
				items = append(items, fmt.Sprint(item))
			}
			values[strings.ToUpper(key)] = strings.Join(items, ",")
			continue
		}
		values[strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return source{file: values}, nil
}

func (s source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	value, ok := s.file[key]
	return value, ok && value != ""
}

func (s source) getEnvStr(key, fallback string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty entries.
func (s source) getEnvList(key string) []string {
	value, ok := s.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (s source) getEnvNum(key string, fallback int) int {
	if value, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func (s source) getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (s source) getEnvBool(key string, fallback bool) bool {
	if value, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
