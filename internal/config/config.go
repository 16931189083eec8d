// Package config loads canon's layered JSONC configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/fs"
	"github.com/calvinalkan/canon/internal/render"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrNormEpsilon        = errors.New("norm_epsilon must be positive")
)

// FileName is the project config file looked up in the working directory.
const FileName = ".canon.json"

// Config holds all configuration options.
type Config struct {
	Style          string  `json:"style"`
	LabelPrefix    string  `json:"label_prefix"`
	NormEpsilon    float64 `json:"norm_epsilon"`
	DedupeLiterals *bool   `json:"dedupe_literals,omitempty"`
	Output         string  `json:"output,omitempty"`

	// Resolved, not serialized.
	EffectiveCwd string  `json:"-"`
	OutputAbs    string  `json:"-"` // empty means stdout
	Sources      Sources `json:"-"`
}

// Sources records which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// Default returns the built-in configuration.
func Default() Config {
	dedupe := true

	return Config{
		Style:          string(render.StyleAssert),
		NormEpsilon:    canon.DefaultNormEpsilon,
		DedupeLiterals: &dedupe,
	}
}

// Options converts c into accumulator options.
func (c Config) Options(logger *slog.Logger) canon.Options {
	opts := canon.DefaultOptions()
	opts.LabelPrefix = c.LabelPrefix
	opts.Logger = logger

	if c.NormEpsilon > 0 {
		opts.NormEpsilon = c.NormEpsilon
	}

	if c.DedupeLiterals != nil {
		opts.DedupeLiterals = *c.DedupeLiterals
	}

	return opts
}

// RenderStyle returns the parsed output style. Load has already validated it.
func (c Config) RenderStyle() render.Style {
	style, _ := render.ParseStyle(c.Style)
	return style
}

// Overrides are CLI flag values. Nil fields are not set.
type Overrides struct {
	Style       *string
	LabelPrefix *string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string // -C/--cwd; empty means os.Getwd()
	ConfigPath      string // -c/--config
	Overrides       Overrides
	Env             map[string]string
	FS              fs.FS // nil means the real filesystem
}

func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "canon", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "canon", "config.json")
	}

	return ""
}

// Load resolves configuration. Later sources win:
//
//  1. defaults
//  2. global config ($XDG_CONFIG_HOME/canon/config.json or ~/.config/canon/config.json)
//  3. project config (.canon.json in the working directory), or the file
//     given by ConfigPath instead
//  4. CLI overrides
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolving %s: %w", workDir, err)
		}

		workDir = abs
	}

	fsys := input.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		layer, loaded, err := loadFile(fsys, path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = path
			cfg = merge(cfg, layer)
		}
	}

	projectFile := filepath.Join(workDir, FileName)
	mustExist := false

	if input.ConfigPath != "" {
		projectFile = input.ConfigPath
		if !filepath.IsAbs(projectFile) {
			projectFile = filepath.Join(workDir, projectFile)
		}

		mustExist = true

		if ok, err := fsys.Exists(projectFile); err != nil || !ok {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}
	}

	layer, loaded, err := loadFile(fsys, projectFile, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg.Sources.Project = projectFile
		cfg = merge(cfg, layer)
	}

	if o := input.Overrides; o.Style != nil {
		cfg.Style = *o.Style
	}

	if o := input.Overrides; o.LabelPrefix != nil {
		cfg.LabelPrefix = *o.LabelPrefix
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.OutputAbs = cfg.ResolvePath(cfg.Output)

	return cfg, nil
}

// ResolvePath makes path absolute against EffectiveCwd. Empty and "-" mean
// stdout and resolve to "".
func (c Config) ResolvePath(path string) string {
	switch {
	case path == "" || path == "-":
		return ""
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Join(c.EffectiveCwd, path)
	}
}

// layer is one parsed config file. Pointers distinguish "absent" from an
// explicit zero value.
type layer struct {
	Style          *string  `json:"style"`
	LabelPrefix    *string  `json:"label_prefix"`
	NormEpsilon    *float64 `json:"norm_epsilon"`
	DedupeLiterals *bool    `json:"dedupe_literals"`
	Output         *string  `json:"output"`
}

func loadFile(fsys fs.FS, path string, mustExist bool) (layer, bool, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return layer{}, false, nil
		}

		if mustExist {
			return layer{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return layer{}, false, nil
	}

	l, err := parse(data)
	if err != nil {
		return layer{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return l, true, nil
}

func parse(data []byte) (layer, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return layer{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var l layer

	if err := json.Unmarshal(standardized, &l); err != nil {
		return layer{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if l.NormEpsilon != nil && *l.NormEpsilon <= 0 {
		return layer{}, ErrNormEpsilon
	}

	return l, nil
}

func merge(base Config, l layer) Config {
	if l.Style != nil && *l.Style != "" {
		base.Style = *l.Style
	}

	if l.LabelPrefix != nil {
		base.LabelPrefix = *l.LabelPrefix
	}

	if l.NormEpsilon != nil {
		base.NormEpsilon = *l.NormEpsilon
	}

	if l.DedupeLiterals != nil {
		v := *l.DedupeLiterals
		base.DedupeLiterals = &v
	}

	if l.Output != nil {
		base.Output = *l.Output
	}

	return base
}

func validate(cfg Config) error {
	if _, err := render.ParseStyle(cfg.Style); err != nil {
		return err
	}

	if cfg.NormEpsilon <= 0 {
		return ErrNormEpsilon
	}

	return nil
}
