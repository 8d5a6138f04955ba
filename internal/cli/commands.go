package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vk/taskgrid/internal/app"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/hcl"
)

// globalOptions holds the flags shared by every command.
type globalOptions struct {
	errOut    io.Writer
	logLevel  string
	logFormat string
}

func (o *globalOptions) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	cmd.PersistentFlags().StringVar(&o.logFormat, "log-format", "text", "Log output format: 'text' or 'json'.")
}

// targetOptions selects what a command acts on.
type targetOptions struct {
	scenario string
	sequence string
	task     string
}

func (o *targetOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.scenario, "scenario", "", "Scenario to act on.")
	cmd.Flags().StringVar(&o.sequence, "sequence", "", "Sequence of --scenario to act on instead of the whole scenario.")
	cmd.Flags().StringVar(&o.task, "task", "", "Single task to act on.")
}

// requirePaths accepts one or more .hcl files or directories.
func requirePaths(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &ExitError{Code: ExitUsage, Message: "at least one .hcl file or directory is required"}
	}
	return nil
}

// newApp validates the flags into an app.Config and builds the app.
func newApp(cmd *cobra.Command, g *globalOptions, cfg app.Config) (*app.App, error) {
	cfg.LogLevel = strings.ToLower(g.logLevel)
	cfg.LogFormat = strings.ToLower(g.logFormat)
	cfg.LogOutput = g.errOut

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.Context(), cmd.OutOrStdout(), validated, hcl.NewLoader())
}

// runOptions defines flags for the run command.
type runOptions struct {
	target     targetOptions
	mode       string
	workers    int
	force      bool
	timeout    time.Duration
	store      string
	statusPort int
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	o.target.addFlags(cmd)
	cmd.Flags().StringVar(&o.mode, "mode", "", "Execution mode, 'development' or 'standalone'. Overrides the execution block.")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Number of standalone workers. Overrides the execution block.")
	cmd.Flags().BoolVar(&o.force, "force", false, "Run every task even when its outputs are up to date.")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Give up waiting for a standalone run after this long. 0 waits forever.")
	cmd.Flags().StringVar(&o.store, "store", "", "BadgerDB directory where job and submission records are kept.")
	cmd.Flags().IntVar(&o.statusPort, "status-port", 0, "Port of the HTTP status server. 0 is disabled.")
}

func newCmdRun(g *globalOptions) *cobra.Command {
	o := &runOptions{}
	command := &cobra.Command{
		Use:   "run PATH...",
		Short: "Submit a scenario, sequence or task and wait for it",
		Args:  requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, app.Config{
				Paths:      args,
				Scenario:   o.target.scenario,
				Sequence:   o.target.sequence,
				Task:       o.target.task,
				Mode:       config.Mode(strings.ToLower(o.mode)),
				Workers:    o.workers,
				Force:      o.force,
				Timeout:    o.timeout,
				StorePath:  o.store,
				StatusPort: o.statusPort,
			})
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	o.addFlags(command)
	return command
}

func newCmdValidate(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH...",
		Short: "Load a project, check it and print what it declares",
		Args:  requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, app.Config{Paths: args})
			if err != nil {
				return err
			}
			a.Summary(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}

func newCmdGraph(g *globalOptions) *cobra.Command {
	o := &targetOptions{}
	command := &cobra.Command{
		Use:   "graph PATH...",
		Short: "Print the generations and layout of a scenario, sequence or task",
		Args:  requirePaths,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, app.Config{
				Paths:    args,
				Scenario: o.scenario,
				Sequence: o.sequence,
				Task:     o.task,
			})
			if err != nil {
				return err
			}
			return a.Graph(cmd.OutOrStdout())
		},
	}
	o.addFlags(command)
	return command
}

func newCmdJobs() *cobra.Command {
	var store string
	command := &cobra.Command{
		Use:   "jobs",
		Short: "List the submissions and jobs recorded in a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if store == "" {
				return &ExitError{Code: ExitUsage, Message: "--store is required"}
			}
			return app.ListRecords(cmd.Context(), store, cmd.OutOrStdout())
		},
	}
	command.Flags().StringVar(&store, "store", "", "BadgerDB directory written by 'taskgrid run --store'.")
	return command
}
