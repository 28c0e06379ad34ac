/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the synth commands. Configuration loading,
logging setup, grammar options and DSL resolution from task files.
*/

package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/logging"
	"github.com/kleascm/akaylee-synth/pkg/semantic"
	"github.com/kleascm/akaylee-synth/pkg/task"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/spf13/viper"
)

// Version is reported in report file names
const Version = "1.0.0"

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("SYNTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	return nil
}

// SetupLogging creates the logger described by the log_* keys
func SetupLogging() (*logging.Logger, error) {
	cfg := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		Timestamp: true,
		Caller:    viper.GetBool("log_caller"),
		Colors:    true,
	}
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// prepare runs LoadConfig and SetupLogging
func prepare() (*logging.Logger, error) {
	if err := LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return SetupLogging()
}

// buildOptions returns the grammar options from the configuration
func buildOptions(logger *logging.Logger, constants []typesys.Type) []grammar.BuildOption {
	return []grammar.BuildOption{
		grammar.UpperBoundTypeSize(viper.GetInt("upper_bound_type_size")),
		grammar.MinVariableDepth(viper.GetInt("min_variable_depth")),
		grammar.WithNGram(viper.GetInt("n_gram")),
		grammar.Recursive(viper.GetBool("recursive")),
		grammar.ConstantTypes(constants...),
		grammar.WithLogger(logger.GetLogger()),
	}
}

// loadFile reads a task file, or returns the built-in arithmetic DSL without tasks
func loadFile(args []string) (*task.File, error) {
	if len(args) == 0 {
		return &task.File{DSL: task.DSLDef{Semantics: "arith"}}, nil
	}
	return task.Load(args[0])
}

// resolveSyntax returns the primitives of a DSL; a DSL naming only a built-in
// semantics table uses that table's primitives
func resolveSyntax(def task.DSLDef) (map[string]typesys.Type, error) {
	if len(def.Primitives) > 0 {
		return def.Syntax()
	}
	switch def.Semantics {
	case "arith", "":
		return semantic.ArithSyntax(), nil
	default:
		return nil, fmt.Errorf("%w: unknown semantics %q", task.ErrInvalidFile, def.Semantics)
	}
}

// resolveEvaluator returns an evaluator for the DSL and checks it covers every primitive
func resolveEvaluator(def task.DSLDef, syntax map[string]typesys.Type) (*semantic.DSLEvaluator, error) {
	var semantics semantic.Semantics
	switch def.Semantics {
	case "arith", "":
		semantics = semantic.ArithSemantics()
	default:
		return nil, fmt.Errorf("%w: unknown semantics %q", task.ErrInvalidFile, def.Semantics)
	}

	evaluator := semantic.NewDSLEvaluator(semantics)
	names := make([]string, 0, len(syntax))
	for name := range syntax {
		names = append(names, name)
	}
	sort.Strings(names)
	if missing := evaluator.Supports(names); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", semantic.ErrUnknownPrimitive, strings.Join(missing, ", "))
	}
	return evaluator, nil
}
