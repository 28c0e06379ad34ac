/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: grammar.go
Description: Grammar and constrain commands. Build and analyse the grammar of a
type request, and show how constraints rewrite a DSL.
*/

package commands

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/constraints"
	"github.com/kleascm/akaylee-synth/pkg/dsl"
	"github.com/kleascm/akaylee-synth/pkg/grammar"
	"github.com/kleascm/akaylee-synth/pkg/logging"
	"github.com/kleascm/akaylee-synth/pkg/task"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/kleascm/akaylee-synth/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunGrammar builds, cleans and analyses the grammar of a type request
func RunGrammar(cmd *cobra.Command, args []string) error {
	logger, err := prepare()
	if err != nil {
		return err
	}
	defer logger.Close()

	file, err := loadFile(args)
	if err != nil {
		return err
	}
	syntax, err := resolveSyntax(file.DSL)
	if err != nil {
		return err
	}
	tr, err := typeRequestFlag(cmd)
	if err != nil {
		return err
	}
	if tr == nil {
		return errors.New("--type-request is required")
	}
	extra, _ := cmd.Flags().GetStringSlice("constraint")

	table, err := buildGrammar(logger, file.DSL, syntax, append(file.DSL.Constraints, extra...), tr)
	if err != nil {
		return err
	}

	fmt.Printf("Type request:  %s\n", table.TypeRequest())
	fmt.Printf("Non-terminals: %d\n", table.Len())
	fmt.Printf("Productions:   %d\n", table.ProductionCount())
	fmt.Printf("Programs:      %s\n", table.Size())
	fmt.Printf("Max depth:     %d\n", table.MaxDepth())
	if table.IsEmpty() {
		fmt.Println("The grammar derives no program")
	}
	if show, _ := cmd.Flags().GetBool("print"); show && !table.IsEmpty() {
		fmt.Println()
		fmt.Print(table.String())
	}

	if n, _ := cmd.Flags().GetInt("sample"); n > 0 && !table.IsEmpty() {
		seed, _ := cmd.Flags().GetInt64("seed")
		sampler := grammar.NewSampler(grammar.FromWeights(table, file.DSL.Weights), seed)
		fmt.Printf("\nSamples:\n")
		for i := 0; i < n; i++ {
			p, prob, err := sampler.Sample()
			if err != nil {
				return err
			}
			fmt.Printf("  %-10.3g %s\n", prob, p)
		}
	}
	return nil
}

// RunConstrain compiles constraints and prints the rewritten DSL
func RunConstrain(cmd *cobra.Command, args []string) error {
	logger, err := prepare()
	if err != nil {
		return err
	}
	defer logger.Close()

	file, err := loadFile(args)
	if err != nil {
		return err
	}
	syntax, err := resolveSyntax(file.DSL)
	if err != nil {
		return err
	}
	tr, err := typeRequestFlag(cmd)
	if err != nil {
		return err
	}
	extra, _ := cmd.Flags().GetStringSlice("constraint")
	cs := append(append([]string{}, file.DSL.Constraints...), extra...)
	if len(cs) == 0 {
		return errors.New("no constraints given")
	}

	res, err := compile(logger, file.DSL, syntax, cs, tr)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(res.Syntax))
	width := 0
	for name := range res.Syntax {
		names = append(names, name)
		width = max(width, len(name))
	}
	sort.Strings(names)

	fmt.Printf("Constraints: %s\n", strings.Join(cs, " ; "))
	if res.TypeRequest != nil {
		fmt.Printf("Type request: %s\n", res.TypeRequest)
	}
	fmt.Printf("Primitives: %d -> %d\n\n", len(syntax), len(res.Syntax))
	for _, name := range names {
		fmt.Printf("  %-*s : %s\n", width, name, res.Syntax[name])
	}
	if patterns := res.Forbidden.Patterns(); len(patterns) > 0 {
		fmt.Println("\nForbidden:")
		for _, p := range patterns {
			fmt.Printf("  %s -> %s\n", p, strings.Join(res.Forbidden[p].Sorted(), ", "))
		}
	}
	return nil
}

func typeRequestFlag(cmd *cobra.Command) (typesys.Type, error) {
	src, _ := cmd.Flags().GetString("type-request")
	if src == "" {
		return nil, nil
	}
	tr, err := typesys.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid type request: %w", err)
	}
	return tr, nil
}

// compile runs the constraint compiler with logging and an optional progress bar
func compile(logger *logging.Logger, def task.DSLDef, syntax map[string]typesys.Type, cs []string, tr typesys.Type) (*constraints.Result, error) {
	opts := []constraints.Option{
		constraints.WithTypeRequest(tr),
		constraints.WithForbidden(def.ForbiddenTable()),
		constraints.WithLogger(logger.GetLogger()),
	}
	if viper.GetBool("progress") {
		bar := utils.NewProgress(os.Stderr, "constraints", len(cs))
		defer bar.Finish()
		opts = append(opts, constraints.WithProgress(bar.Update))
	}

	res, err := constraints.Compile(syntax, cs, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile constraints: %w", err)
	}

	fields := logrus.Fields{"count": len(cs)}
	if res.TypeRequest != nil {
		fields["type_request"] = res.TypeRequest.String()
	}
	logger.LogConstraint(strings.Join(cs, " ; "), len(syntax), len(res.Syntax), fields)
	return res, nil
}

// buildGrammar compiles constraints when there are any, then builds and cleans
// the rule table of tr
func buildGrammar(logger *logging.Logger, def task.DSLDef, syntax map[string]typesys.Type, cs []string, tr typesys.Type) (*grammar.RuleTable, error) {
	d := dsl.New(syntax, def.ForbiddenTable())
	if len(cs) > 0 {
		res, err := compile(logger, def, syntax, cs, tr)
		if err != nil {
			return nil, err
		}
		d, tr = res.DSL(), res.TypeRequest
	}

	constants, err := def.Constants()
	if err != nil {
		return nil, err
	}

	table := grammar.Build(d, tr, viper.GetInt("max_depth"), buildOptions(logger, constants)...)
	raw := table.Len()
	table.Clean()

	logger.LogGrammar(tr.String(), table.Len(), table.ProductionCount(), table.Size().String(), logrus.Fields{
		"removed":   raw - table.Len(),
		"max_depth": table.MaxDepth(),
	})
	return table, nil
}
