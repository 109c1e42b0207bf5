package main

import (
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/tactic"
)

// EnvPrefix prefixes environment overrides, e.g. RISKPREP_TARGET or
// RISKPREP_CHECKPOINT_EVERY.
const EnvPrefix = "RISKPREP"

// PipelineConfig is the pipeline file read by every command. Flags and
// environment variables override its values.
type PipelineConfig struct {
	// Config is the configuration table CSV.
	Config string `mapstructure:"config" yaml:"config" validate:"omitempty,file"`
	// Reference and WoeReference are where fit writes the learned tables.
	Reference    string `mapstructure:"reference" yaml:"reference"`
	WoeReference string `mapstructure:"woe_reference" yaml:"woe_reference"`
	// Model is the fitted pipeline snapshot.
	Model string `mapstructure:"model" yaml:"model"`

	Train  string `mapstructure:"train" yaml:"train" validate:"omitempty,file"`
	Data   string `mapstructure:"data" yaml:"data" validate:"omitempty,file"`
	Sheet  string `mapstructure:"sheet" yaml:"sheet"`
	Output string `mapstructure:"output" yaml:"output"`

	Target    string   `mapstructure:"target" yaml:"target"`
	Processes []string `mapstructure:"processes" yaml:"processes" validate:"dive,process"`

	MaxBins    int              `mapstructure:"max_bins" yaml:"max_bins" validate:"gte=0"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" yaml:"checkpoint"`
	Resume     bool             `mapstructure:"resume" yaml:"resume"`
	ChartDir   string           `mapstructure:"chart_dir" yaml:"chart_dir"`

	Threshold float64 `mapstructure:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	LogLevel  string  `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

// CheckpointConfig controls partial WOE reference saves during fit.
type CheckpointConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Every int    `mapstructure:"every" yaml:"every" validate:"gte=0"`
}

func defaults() map[string]any {
	return map[string]any{
		"config":           "",
		"reference":        "reference.csv",
		"woe_reference":    "woe_reference.csv",
		"model":            "pipeline.gob",
		"train":            "",
		"data":             "",
		"sheet":            "",
		"output":           "",
		"target":           "",
		"processes":        []string{},
		"max_bins":         0,
		"resume":           false,
		"checkpoint.path":  "",
		"checkpoint.every": 0,
		"chart_dir":        "",
		"threshold":        0.9,
		"log_level":        "info",
	}
}

// newViper returns a viper instance with defaults and environment overrides.
// An empty path skips the pipeline file.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read pipeline file %s", path)
		}
	}
	return v, nil
}

// loadConfig decodes and validates the pipeline configuration.
func loadConfig(v *viper.Viper) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode pipeline configuration")
	}
	for i, p := range cfg.Processes {
		cfg.Processes[i] = strings.TrimSpace(p)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := newValidator().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline configuration")
	}
	return &cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("process", func(fl validator.FieldLevel) bool {
		_, err := tactic.ParseProcess(fl.Field().String())
		return err == nil
	})
	return validate
}

// require reports the first empty setting among the named ones.
func (c *PipelineConfig) require(settings ...string) error {
	values := map[string]string{
		"config":        c.Config,
		"reference":     c.Reference,
		"woe_reference": c.WoeReference,
		"model":         c.Model,
		"train":         c.Train,
		"data":          c.Data,
		"output":        c.Output,
	}
	for _, s := range settings {
		if values[s] == "" {
			return errors.NewValidationError(s, "required by this command", "")
		}
	}
	return nil
}

// processes parses the configured process names.
func (c *PipelineConfig) processes() ([]tactic.Process, error) {
	return tactic.ParseProcesses(c.Processes)
}

// writeYAML dumps the effective configuration.
func (c *PipelineConfig) writeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "encode pipeline configuration")
	}
	return enc.Close()
}
