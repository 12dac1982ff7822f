package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/revelaction/dragnn-infer/config"
	"github.com/revelaction/dragnn-infer/render"
	"github.com/urfave/cli/v2"
)

const (
	categoryModel  = "MODEL"
	categoryBridge = "BRIDGE"
	categoryIO     = "INPUT / OUTPUT"
	categoryLog    = "LOGGING"
)

func flags() []cli.Flag {
	def := config.Default()

	return []cli.Flag{
		&cli.StringFlag{Name: "dragnn_spec", Usage: "path to the DRAGNN master spec", EnvVars: []string{"DRAGNN_SPEC"}, Category: categoryModel},
		&cli.StringFlag{Name: "resource_path", Usage: "directory of the model resources", EnvVars: []string{"DRAGNN_RESOURCE_PATH"}, Category: categoryModel},
		&cli.StringFlag{Name: "checkpoint_filename", Usage: "path to the trained checkpoint", EnvVars: []string{"DRAGNN_CHECKPOINT"}, Category: categoryModel},
		&cli.BoolFlag{Name: "enable_tracing", Usage: "request traces from the model", EnvVars: []string{"DRAGNN_ENABLE_TRACING"}, Category: categoryModel},

		&cli.StringFlag{Name: "config", Usage: "YAML configuration file", EnvVars: []string{"DRAGNN_CONFIG"}, Category: categoryBridge},
		&cli.StringFlag{Name: "python", Usage: "python interpreter running the bridge", Value: def.Bridge.Python, EnvVars: []string{"DRAGNN_PYTHON"}, Category: categoryBridge},
		&cli.StringFlag{Name: "bridge_script", Usage: "bridge script overriding the embedded one", EnvVars: []string{"DRAGNN_BRIDGE_SCRIPT"}, Category: categoryBridge},
		&cli.DurationFlag{Name: "startup_timeout", Usage: "time to wait for the model to load", Value: def.Bridge.StartupTimeout, Category: categoryBridge},
		&cli.DurationFlag{Name: "infer_timeout", Usage: "deadline of each sentence, 0 waits forever", Category: categoryBridge},

		&cli.StringFlag{Name: "format", Usage: "output format: " + strings.Join(render.SupportedFormats(), ", "), Value: def.Output.Format, Category: categoryIO},
		&cli.BoolFlag{Name: "text_comment", Usage: "prefix each sentence with a '# text =' line", Value: def.Output.TextComment, Category: categoryIO},
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "read sentences from `FILE` instead of stdin", Category: categoryIO},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write parses to `FILE` instead of stdout", Category: categoryIO},
		&cli.BoolFlag{Name: "interactive", Usage: "read sentences from a line editor prompt", Category: categoryIO},
		&cli.BoolFlag{Name: "progress", Usage: "show a progress bar on stderr, requires --input", Category: categoryIO},
		&cli.BoolFlag{Name: "nfc", Usage: "normalize input lines to NFC", Category: categoryIO},
		&cli.StringFlag{Name: "store", Usage: "store the parses in a doc directory or a SQLite file", Category: categoryIO},
		&cli.StringFlag{Name: "doc_title", Usage: "title of the stored doc, defaults to the input file name", Category: categoryIO},
		&cli.StringFlag{Name: "trace_dir", Usage: "write the raw traces to `DIR`", Category: categoryIO},

		&cli.StringFlag{Name: "log_level", Usage: "debug, info, warn or error", Value: def.Log.Level, EnvVars: []string{"DRAGNN_LOG_LEVEL"}, Category: categoryLog},
		&cli.StringFlag{Name: "log_file", Usage: "also log to a rotating `FILE`", EnvVars: []string{"DRAGNN_LOG_FILE"}, Category: categoryLog},
	}
}

// buildConfig merges the defaults, the YAML file of --config and the flags
// set on c, in that order.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	if path := c.String("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}

	setString("dragnn_spec", &cfg.Model.DragnnSpec)
	setString("resource_path", &cfg.Model.ResourcePath)
	setString("checkpoint_filename", &cfg.Model.CheckpointFilename)
	setBool("enable_tracing", &cfg.Model.EnableTracing)

	setString("python", &cfg.Bridge.Python)
	setString("bridge_script", &cfg.Bridge.Script)
	if c.IsSet("startup_timeout") {
		cfg.Bridge.StartupTimeout = c.Duration("startup_timeout")
	}
	if c.IsSet("infer_timeout") {
		cfg.Bridge.InferTimeout = c.Duration("infer_timeout")
	}

	setString("input", &cfg.Input.Path)
	setBool("interactive", &cfg.Input.Interactive)
	setBool("progress", &cfg.Input.Progress)
	setBool("nfc", &cfg.Input.NFC)

	setString("output", &cfg.Output.Path)
	setString("format", &cfg.Output.Format)
	setBool("text_comment", &cfg.Output.TextComment)
	setString("store", &cfg.Output.Store)
	setString("doc_title", &cfg.Output.DocTitle)
	setString("trace_dir", &cfg.Output.TraceDir)

	setString("log_level", &cfg.Log.Level)
	setString("log_file", &cfg.Log.File)

	if !slices.Contains(render.SupportedFormats(), cfg.Output.Format) {
		return nil, fmt.Errorf("unknown format %q, allowed values are %s", cfg.Output.Format, strings.Join(render.SupportedFormats(), ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
