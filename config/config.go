package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissing = errors.New("required configuration missing")

type ModelConfig struct {
	DragnnSpec         string `yaml:"dragnn_spec"`
	ResourcePath       string `yaml:"resource_path"`
	CheckpointFilename string `yaml:"checkpoint_filename"`
	EnableTracing      bool   `yaml:"enable_tracing"`
}

type BridgeConfig struct {
	Python string `yaml:"python"`

	// Script overrides the embedded bridge script.
	Script string `yaml:"script"`

	StartupTimeout  time.Duration `yaml:"startup_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// InferTimeout bounds each engine call. Zero waits forever.
	InferTimeout time.Duration `yaml:"infer_timeout"`
}

type InputConfig struct {
	// Path of the sentence file, empty for stdin.
	Path        string `yaml:"path"`
	Interactive bool   `yaml:"interactive"`
	Progress    bool   `yaml:"progress"`
	NFC         bool   `yaml:"nfc"`
}

type OutputConfig struct {
	// Path of the output file, empty for stdout.
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`
	TextComment bool   `yaml:"text_comment"`

	// Store is a directory (JSON doc) or a SQLite file receiving the parses.
	Store    string `yaml:"store"`
	DocTitle string `yaml:"doc_title"`

	TraceDir string `yaml:"trace_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config is built once at startup and passed to every component.
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Bridge BridgeConfig `yaml:"bridge"`
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Python:          "python3",
			StartupTimeout:  5 * time.Minute,
			ShutdownTimeout: 5 * time.Second,
		},
		Output: OutputConfig{
			Format:      "conll",
			TextComment: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadEnv loads a .env file of the working directory into the process
// environment, if there is one. Variables already set are kept.
func LoadEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadFile reads the YAML file at path over the values already in c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	return nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.Model.DragnnSpec == "" {
		missing = append(missing, "--dragnn_spec")
	}
	if c.Model.ResourcePath == "" {
		missing = append(missing, "--resource_path")
	}
	if c.Model.CheckpointFilename == "" {
		missing = append(missing, "--checkpoint_filename")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if c.Bridge.Python == "" {
		return fmt.Errorf("%w: python interpreter", ErrMissing)
	}

	if c.Input.Interactive && c.Input.Path != "" {
		return errors.New("--interactive reads from the terminal and cannot be used with --input")
	}

	if c.Input.Progress && c.Input.Path == "" {
		return errors.New("--progress requires --input")
	}

	if c.Bridge.InferTimeout < 0 {
		return fmt.Errorf("invalid infer timeout %s", c.Bridge.InferTimeout)
	}

	return nil
}
