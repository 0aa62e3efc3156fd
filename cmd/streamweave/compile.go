package main

import (
	"github.com/spf13/cobra"

	"github.com/streamweave/streamweave/internal/config"
	"github.com/streamweave/streamweave/internal/generator"
	"github.com/streamweave/streamweave/internal/logger"
	"github.com/streamweave/streamweave/internal/plan"
)

type compileOptions struct {
	PlanPath   string
	ConfigPath string
	JSONOutput bool
	Verbose    bool
}

var compileCmdRunner = runCompile

func newCompileCmd(root *rootFlags) *cobra.Command {
	opts := compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a dataflow plan into an execution graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose

			if err := validateCompileOptions(opts); err != nil {
				return err
			}

			return compileCmdRunner(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.PlanPath, "plan", "p", "", "Path to plan file")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to job configuration file (optional)")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output the graph summary as JSON")
	cmd.MarkFlagRequired("plan") //nolint:errcheck

	return cmd
}

func runCompile(cmd *cobra.Command, opts compileOptions) error {
	level := "info"
	if opts.Verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	job := config.Default("streamweave-job")
	if opts.ConfigPath != "" {
		job, err = config.ParseJob(opts.ConfigPath)
		if err != nil {
			return err
		}
	}

	p, err := plan.ParsePlan(opts.PlanPath)
	if err != nil {
		return err
	}

	tree, err := plan.Build(p)
	if err != nil {
		return err
	}

	g, err := generator.Generate(job, tree.Seq, tree.Terminals, log)
	if err != nil {
		return err
	}

	log.WithFields(map[string]any{
		"job_id": g.JobID().String(),
		"nodes":  len(g.Nodes()),
		"edges":  len(g.Edges()),
	}).Info("plan compiled")

	if opts.JSONOutput {
		return renderGraphJSON(cmd.OutOrStdout(), g)
	}

	return renderGraphSummary(cmd.OutOrStdout(), g)
}
