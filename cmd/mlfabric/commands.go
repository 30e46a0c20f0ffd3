package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/mlfabric/config"
	"github.com/hupe1980/mlfabric/core"
	"github.com/hupe1980/mlfabric/experimentation/sqlite"
	"github.com/hupe1980/mlfabric/logging"
	"github.com/hupe1980/mlfabric/sequence"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "mlfabric",
		Short:         "Inspect experiment configurations and tracked runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "tracking.db", "Path of the SQLite tracking database")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Work with experiment configuration files",
	}
	configCmd.AddCommand(newValidateCmd())

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List and show tracked runs",
	}
	runsCmd.AddCommand(newRunsListCmd(flags), newRunsShowCmd(flags))

	rootCmd.AddCommand(configCmd, runsCmd, newExperimentsCmd(flags), newDownloadCmd(flags))
	return rootCmd
}

func (f *rootFlags) logger() (logging.Logger, error) {
	level, err := logging.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogLogger(level, "text", false), nil
}

func (f *rootFlags) openStore() (*sqlite.Store, error) {
	if _, err := os.Stat(f.dbPath); err != nil {
		return nil, fmt.Errorf("tracking database %s: %w", f.dbPath, err)
	}
	logger, err := f.logger()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(f.dbPath, func(o *sqlite.Options) { o.Logger = logger })
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate an experiment configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", args[0])
			fmt.Fprintf(out, "  experiment: %s (tracking %t, backend %s)\n", cfg.ExperimentName, cfg.LogExperiment, cfg.Tracking.Backend)
			if cfg.Dataset.Name != "" {
				fmt.Fprintf(out, "  dataset: %s %s\n", cfg.Dataset.Name, cfg.Dataset.Version)
			}
			return nil
		},
	}
}

func newExperimentsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "experiments",
		Short: "List experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			exps, err := store.Experiments(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tRUNS\tARTIFACT LOCATION\tCREATED")
			for _, e := range exps {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Name, e.RunCount, e.ArtifactLocation, e.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newRunsListCmd(flags *rootFlags) *cobra.Command {
	var experiment string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), experiment)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tEXPERIMENT\tSTATUS\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Experiment, r.Status, r.StartedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&experiment, "experiment", "e", "", "Only list runs of this experiment")
	return cmd
}

func newRunsShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run id]",
		Short: "Show params, metrics and artifacts of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:        %s\n", run.ID)
			fmt.Fprintf(out, "Experiment: %s\n", run.Experiment)
			fmt.Fprintf(out, "Status:     %s\n", run.Status)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nPARAM\tVALUE")
			keys := make([]string, 0, len(run.Params))
			for k := range run.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%s\n", k, run.Params[k])
			}

			fmt.Fprintln(tw, "\nMETRIC\tSTEP\tVALUE")
			for _, m := range run.Metrics {
				step := "-"
				if m.Step != core.NoStep {
					step = fmt.Sprint(m.Step)
				}
				fmt.Fprintf(tw, "%s\t%s\t%g\n", m.Key, step, m.Value)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(run.Artifacts) > 0 {
				fmt.Fprintln(out, "\nArtifacts:")
				for _, a := range run.Artifacts {
					fmt.Fprintf(out, "  %s\n", a)
				}
			}
			return nil
		},
	}
}

func newDownloadCmd(flags *rootFlags) *cobra.Command {
	var (
		dir     string
		baseURL string
	)
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the CoNLL-2003 folds used by sequence labeling experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := flags.logger()
			if err != nil {
				return err
			}
			loader := sequence.NewFileLoader(dir, func(o *sequence.FileLoaderOptions) {
				o.BaseURL = baseURL
				o.Logger = logger
			})
			if err := loader.Download(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s ready in %s\n", loader.DatasetName(), loader.DatasetVersion(), dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "Directory the dataset is stored in")
	cmd.Flags().StringVar(&baseURL, "base-url", sequence.DefaultBaseURL, "Location the folds are fetched from")
	return cmd
}
