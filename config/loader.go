package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigDir overrides the configuration directory when the -config flag
// is not given.
const EnvConfigDir = "RABBLE_CONFIG_DIR"

// ResolveDir picks the configuration directory. Priority: flag value, then
// RABBLE_CONFIG_DIR, then a config/ directory next to the executable. The
// returned path is absolute so diagnostics stay meaningful regardless of the
// process working directory.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return filepath.Abs(flagPath)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "config"), nil
}

// Load reads every .rabl file in dir (lexical order) and merges them over the
// compiled-in defaults at top-level key granularity. Later files win on
// conflicting sections. The result is validated before being returned.
func Load(dir string) (*Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("config: reading directory %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rabl") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("config: no .rabl files found in %q", dir)
	}
	sort.Strings(files)

	cfg := Default()
	for _, name := range files {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		err = decodeInto(cfg, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	finish(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validating %q: %w", dir, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a single .rabl document from r over the defaults and
// validates the result. Useful in tests where configs are string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeInto(cfg, r); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	finish(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeInto merges one YAML document into cfg. Decoding into the same
// struct means sections absent from the document keep their current values,
// which is exactly the per-file merge the .rabl layout relies on. An
// emotion_config section replaces the whole emotion set rather than merging
// per profile.
func decodeInto(cfg *Config, r io.Reader) error {
	var probe struct {
		Emotions map[string]*EmotionProfile `yaml:"emotion_config"`
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Emotions != nil {
		cfg.Emotions = nil
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// finish back-fills derived fields after all documents are merged.
func finish(cfg *Config) {
	for name, p := range cfg.Emotions {
		if p != nil {
			p.Name = name
			if p.CycleRate == 0 {
				p.CycleRate = 1.0
			}
		}
	}
}
