// Package main provides the cfn-depgraph CLI tool: a static dependency
// analyzer for CloudFormation templates.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/cfn-depgraph/pkg/config"
	"github.com/lex00/cfn-depgraph/pkg/lint"
	"github.com/lex00/cfn-depgraph/pkg/logging"
	"github.com/lex00/cfn-depgraph/pkg/report"
	"github.com/lex00/cfn-depgraph/pkg/watch"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitInvalidArgs  = 2
	ExitRuntimeError = 3
)

// Options holds the CLI configuration not already carried by config.Config.
type Options struct {
	TemplateFile string
	ConfigFile   string
	OutputFile   string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitInvalidArgs)
	}
}

func newRootCmd() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:     "cfn-depgraph",
		Short:   "Analyze CloudFormation template dependencies",
		Long:    `cfn-depgraph builds a dependency graph from a CloudFormation template and reports unused parameters and conditions, orphan outputs and conditions, circular dependencies, and cascading provisioning failures.`,
		Version: fmt.Sprintf("%s (pipeline: %s)", getVersion(), lint.Version),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.TemplateFile == "" {
				return fmt.Errorf("required flag \"template-file\" not set")
			}

			cfg, err := config.Load(cmd, opts.ConfigFile)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if opts.OutputFile != "" {
				f, err := os.Create(opts.OutputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				stdout = f
			}

			exitCode := run(cmd.Context(), opts, cfg, stdout, cmd.ErrOrStderr())
			if exitCode != ExitSuccess {
				os.Exit(exitCode)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&opts.TemplateFile, "template-file", "t", "", "Path to CloudFormation template file (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Path to write the findings report to (defaults to stdout)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	cmd.Flags().String("format", config.OutputFormatText, "Output format: text or json")
	cmd.Flags().String("log-level", config.LogLevelInfo, "Log level: debug, info, warn, error")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("quiet", false, "Suppress log output below error level")
	cmd.Flags().Bool("strict-cascading", false, "Require a protecting condition on the specific property that references the gated resource")
	cmd.Flags().Bool("watch", false, "Re-run the analysis whenever the template file changes")
	cmd.Flags().StringSlice("extra-pseudo-parameters", nil, "Additional pseudo-parameter names to recognize, beyond the built-in AWS::* set")
	cmd.Flags().StringToString("extra-tags", nil, "Additional YAML short-tag to intrinsic-function mappings to reify (e.g. !MyMacro=Fn::MyMacro)")

	_ = cmd.MarkFlagRequired("template-file")

	return cmd
}

// run reads the template, runs the pipeline, and writes findings. It
// returns an exit code so it can be exercised from tests without os.Exit.
func run(ctx context.Context, opts Options, cfg *config.Config, stdout, stderr io.Writer) int {
	logger := logging.Setup(cfg)
	defer func() { _ = logger.Sync() }()

	linter := lint.New(lint.Options{
		StrictCascading:       cfg.StrictCascading,
		ExtraPseudoParameters: cfg.ExtraPseudoParameters,
		ExtraTags:             cfg.ExtraTags,
	})

	if cfg.Watch {
		watchOpts := watch.DefaultOptions()
		watchOpts.TemplatePath = opts.TemplateFile
		watchOpts.Logger = logger
		watchOpts.Out = stderr

		runOnce := func(ctx context.Context) error {
			_, err := runOnceAndReport(linter, opts.TemplateFile, cfg, stdout, logger)
			return err
		}

		if err := watch.Run(ctx, watchOpts, runOnce); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitRuntimeError
		}
		return ExitSuccess
	}

	clean, err := runOnceAndReport(linter, opts.TemplateFile, cfg, stdout, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}
	if !clean {
		return ExitFindings
	}
	return ExitSuccess
}

// runOnceAndReport runs the pipeline once and writes its findings,
// reporting whether the template was clean (no findings at all).
func runOnceAndReport(linter *lint.Linter, templateFile string, cfg *config.Config, stdout io.Writer, logger *zap.Logger) (bool, error) {
	data, err := os.ReadFile(templateFile)
	if err != nil {
		return false, fmt.Errorf("failed to read template file: %w", err)
	}

	result, err := linter.Run(data, templateFile)
	if err != nil {
		return false, err
	}

	logger.Debug("pipeline completed",
		zap.String("file", templateFile),
		zap.Int("resources", len(result.IR.Resources)),
		zap.Int("parameters", len(result.IR.Parameters)),
		zap.Int("conditions", len(result.IR.Conditions)),
		zap.Int("outputs", len(result.IR.Outputs)),
	)

	if cfg.OutputFormat == config.OutputFormatJSON {
		if err := report.WriteJSON(stdout, templateFile, result.Findings); err != nil {
			return false, err
		}
		return report.IsClean(result.Findings), nil
	}

	n := report.WriteText(stdout, templateFile, result.Findings)
	if n == 0 {
		fmt.Fprintf(stdout, "no issues found: %s\n", templateFile)
	}
	return n == 0, nil
}
