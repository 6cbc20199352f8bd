package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv overrides the config file location; otherwise config/<env>.yaml is used.
const PathEnv = "CONFIG_PATH"

// GetEnv returns the ENV variable, or "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Load reads the config file for env and passes it to Parse.
func Load(env string) (Config, error) {
	path := os.Getenv(PathEnv)
	if path == "" {
		path = configPath(env)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} and ${VAR:-default} references, decodes the YAML,
// applies defaults and validates. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(expandEnv(data)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configPath prefers ./config, then the config directory of the module root
// so tests running inside package directories find it too.
func configPath(env string) string {
	name := env + ".yaml"
	local := filepath.Join("config", name)
	if _, err := os.Stat(local); err == nil {
		return local
	}

	_, file, _, ok := runtime.Caller(0)
	if ok {
		root := filepath.Join(filepath.Dir(file), "..", "..")
		if p := filepath.Join(root, "config", name); fileExists(p) {
			return p
		}
	}
	return local
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name, def, hasDef := strings.Cut(string(ref[2:len(ref)-1]), ":-")
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return []byte(v)
		}
		if hasDef {
			return []byte(def)
		}
		return nil
	})
}
