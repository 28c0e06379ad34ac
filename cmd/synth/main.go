/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command line interface for Akaylee Synth. Builds and analyses
grammars, compiles constraints and solves programming by example tasks.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/akaylee-synth/cmd/synth/commands"
	"github.com/kleascm/akaylee-synth/pkg/search"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "synth",
		Short: "Akaylee Synth - grammar based program synthesis",
		Long: `Akaylee Synth enumerates typed programs of a DSL from a probabilistic grammar
until one agrees with every input/output example of a task. Grammars are built
from a type request, optionally rewritten by syntactic constraints.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Configuration and logging
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Configuration file path")
	pf.String("log-level", "info", "Logging level (debug, info, warn, error)")
	pf.String("log-format", "custom", "Log format (text, json, custom)")
	pf.String("log-dir", "", "Log output directory, empty for console only")
	pf.Int("log-max-files", 10, "Maximum number of log files to keep")
	pf.Bool("log-caller", false, "Include caller information in logs")
	pf.Bool("progress", true, "Show progress bars on a terminal")

	// Grammar construction
	pf.Int("max-depth", 4, "Maximum program depth")
	pf.Int("n-gram", 2, "Context window order of non-terminals")
	pf.Int("min-variable-depth", 1, "First depth at which variables and constants appear")
	pf.Int("upper-bound-type-size", 10, "Size bound for polymorphic instantiation")
	pf.Bool("recursive", false, "Allow calls to the program being synthesized")

	// Result store, shared by solve and results
	pf.String("store", "", "SQLite database of task results, enables resuming")

	for key, flag := range map[string]string{
		"config":                "config",
		"log_level":             "log-level",
		"log_format":            "log-format",
		"log_dir":               "log-dir",
		"log_max_files":         "log-max-files",
		"log_caller":            "log-caller",
		"progress":              "progress",
		"max_depth":             "max-depth",
		"n_gram":                "n-gram",
		"min_variable_depth":    "min-variable-depth",
		"upper_bound_type_size": "upper-bound-type-size",
		"recursive":             "recursive",
		"store":                 "store",
	} {
		viper.BindPFlag(key, pf.Lookup(flag))
	}

	grammarCmd := &cobra.Command{
		Use:   "grammar [task-file]",
		Short: "Build and analyse the grammar of a type request",
		Long: `Build the grammar of every program of a type request up to --max-depth, remove
unreachable and unproductive non-terminals and report its size. The DSL comes
from the task file, or the built-in arithmetic DSL when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.RunGrammar,
	}
	grammarCmd.Flags().String("type-request", "", "Type of the programs, e.g. 'int -> list(int) -> int' (required)")
	grammarCmd.Flags().StringSlice("constraint", nil, "Additional constraint, may be repeated")
	grammarCmd.Flags().Bool("print", false, "Print the rule table")
	grammarCmd.Flags().Int("sample", 0, "Print this many programs drawn from the grammar")
	grammarCmd.Flags().Int64("seed", 0, "Seed of --sample, 0 for the clock")
	grammarCmd.MarkFlagRequired("type-request")
	rootCmd.AddCommand(grammarCmd)

	constrainCmd := &cobra.Command{
		Use:   "constrain [task-file]",
		Short: "Compile constraints and print the rewritten DSL",
		Long: `Compile the constraints of a task file, plus any given with --constraint, into
a rewritten DSL. Constraints using var(...) need --type-request.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.RunConstrain,
	}
	constrainCmd.Flags().String("type-request", "", "Type request threaded through var constraints")
	constrainCmd.Flags().StringSlice("constraint", nil, "Constraint, may be repeated")
	rootCmd.AddCommand(constrainCmd)

	solveCmd := &cobra.Command{
		Use:   "solve <task-file>",
		Short: "Solve every task of a task file",
		Long: `Enumerate programs of each task's grammar in order of probability and stop at
the first one consistent with all examples, or at the timeout. Tasks already in
--store are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunSolve,
	}
	sf := solveCmd.Flags()
	sf.Duration("timeout", 60*time.Second, "Search time per task, 0 for none")
	sf.Int64("max-programs", 0, "Programs evaluated per task, 0 for no bound")
	sf.String("search", search.StrategyHeap, "Search strategy (see list-search)")
	sf.Int("bucket-size", 20, "Bucket size of bucket_search")
	sf.Float64("variable-probability", 0, "Probability mass reserved for variables, 0 for none")
	sf.Bool("require-variables", true, "Skip programs that use no argument")
	sf.Int("max-size", 0, "Skip programs with more nodes, 0 for no bound")
	sf.String("output-dir", "", "Directory for JSON reports, empty for none")
	sf.Int("workers", 1, "Tasks solved in parallel, 0 for one per CPU")
	sf.String("profile-dir", "", "Write CPU and heap profiles of the run to this directory")
	for key, flag := range map[string]string{
		"timeout":              "timeout",
		"max_programs":         "max-programs",
		"search":               "search",
		"bucket_size":          "bucket-size",
		"variable_probability": "variable-probability",
		"require_variables":    "require-variables",
		"max_size":             "max-size",
		"output_dir":           "output-dir",
		"workers":              "workers",
		"profile_dir":          "profile-dir",
	} {
		viper.BindPFlag(key, sf.Lookup(flag))
	}
	rootCmd.AddCommand(solveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list-search",
		Short: "List the search strategies",
		Run:   commands.ListSearch,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "results",
		Short: "Show the results held in --store",
		RunE:  commands.ShowResults,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "logs",
		Short: "Summarise the log files of --log-dir",
		RunE:  commands.AnalyzeLogs,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
