package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/metrics"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/reference"
	"github.com/YuminosukeSato/riskprep/selection"
	"github.com/YuminosukeSato/riskprep/tactic"
)

type app struct {
	file   string
	cfg    *PipelineConfig
	logger log.Logger
}

// flagKey maps a flag name to its configuration key.
var flagKey = strings.NewReplacer("checkpoint-", "checkpoint.", "-", "_")

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "riskprep",
		Short:         "Risk-model feature preprocessing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "pipeline file (yaml)")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error")

	root.AddCommand(
		a.inferCmd(),
		a.checkCmd(),
		a.fitCmd(),
		a.applyCmd(),
		a.corrCmd(),
		a.powerCmd(),
		a.showCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	v, err := newViper(a.file)
	if err != nil {
		return err
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "file" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(flagKey.Replace(f.Name), f)
	})
	if bindErr != nil {
		return errors.Wrap(bindErr, "bind flags")
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetupLogger(cfg.LogLevel)
	log.SetProvider(log.NewZerologProvider(level))

	a.cfg = cfg
	a.logger = log.GetLoggerWithName("riskprep")
	return nil
}

// readFrame reads a CSV file, or an xlsx workbook by extension.
func readFrame(path, sheet string) (*frame.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return frame.ReadExcel(path, sheet)
	default:
		return frame.ReadCSVFile(path)
	}
}

func (a *app) readConfigTable() (*reference.Table, error) {
	return reference.ReadTableFile(a.cfg.Config)
}

func (a *app) inferCmd() *cobra.Command {
	var categorical []string
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Write a starting configuration table for a dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.require("data"); err != nil {
				return err
			}
			df, err := readFrame(a.cfg.Data, a.cfg.Sheet)
			if err != nil {
				return err
			}
			known := make(map[string]reference.VarType, len(categorical))
			for _, name := range categorical {
				known[name] = reference.Categorical
			}
			cfg, err := reference.InferConfig(df, known)
			if err != nil {
				return err
			}
			if a.cfg.Output == "" {
				return reference.WriteTable(cmd.OutOrStdout(), cfg)
			}
			if err := reference.WriteTableFile(a.cfg.Output, cfg); err != nil {
				return err
			}
			a.logger.Info("Config inferred", log.VariablesKey, cfg.Len(), "path", a.cfg.Output)
			return nil
		},
	}
	cmd.Flags().String("data", "", "sample dataset (csv or xlsx)")
	cmd.Flags().String("sheet", "", "xlsx sheet, first sheet when empty")
	cmd.Flags().String("output", "", "configuration table to write, stdout when empty")
	cmd.Flags().StringSliceVar(&categorical, "categorical", nil, "columns to treat as categorical")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration table against a dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.require("config", "data"); err != nil {
				return err
			}
			cfg, err := a.readConfigTable()
			if err != nil {
				return err
			}
			df, err := readFrame(a.cfg.Data, a.cfg.Sheet)
			if err != nil {
				return err
			}
			n := tactic.New(cfg).CheckConfig(df)
			fmt.Fprintf(cmd.OutOrStdout(), "%d error(s)\n", n)
			if n > 0 {
				return errors.NewConfigError(n)
			}
			return nil
		},
	}
	cmd.Flags().String("config", "", "configuration table (csv)")
	cmd.Flags().String("data", "", "dataset (csv or xlsx)")
	cmd.Flags().String("sheet", "", "xlsx sheet, first sheet when empty")
	return cmd
}

func (a *app) fitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a pipeline and save its reference tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.require("config", "train", "model"); err != nil {
				return err
			}
			t, err := a.newTactic()
			if err != nil {
				return err
			}
			df, err := readFrame(a.cfg.Train, a.cfg.Sheet)
			if err != nil {
				return err
			}
			if _, err := t.Fit(df); err != nil {
				return err
			}
			if err := a.saveFitted(t); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Summary())
			nVars, nRows, err := t.Shape()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fitted on %d variables, %d rows\n", nVars, nRows)
			if a.cfg.Output == "" {
				return nil
			}
			out, err := t.Apply(df)
			if err != nil {
				return err
			}
			return out.WriteCSVFile(a.cfg.Output)
		},
	}
	cmd.Flags().String("config", "", "configuration table (csv)")
	cmd.Flags().String("train", "", "training dataset (csv or xlsx)")
	cmd.Flags().String("sheet", "", "xlsx sheet, first sheet when empty")
	cmd.Flags().String("target", "", "target column, required by Woe")
	cmd.Flags().StringSlice("processes", nil, "stages in order, e.g. Cap,Floor,MissingImpute,Woe")
	cmd.Flags().String("reference", "", "reference table to write")
	cmd.Flags().String("woe-reference", "", "WOE reference table to write")
	cmd.Flags().String("model", "", "pipeline snapshot to write")
	cmd.Flags().String("output", "", "transformed training data to write")
	cmd.Flags().Int("max-bins", 0, "maximum WOE bins")
	cmd.Flags().String("checkpoint-path", "", "partial WOE reference saved during fit")
	cmd.Flags().Int("checkpoint-every", 0, "variables between checkpoint saves")
	cmd.Flags().Bool("resume", false, "resume WOE fit from the checkpoint")
	cmd.Flags().String("chart-dir", "", "directory for per-variable WOE charts")
	return cmd
}

func (a *app) newTactic() (*tactic.Tactic, error) {
	cfg, err := a.readConfigTable()
	if err != nil {
		return nil, err
	}
	processes, err := a.cfg.processes()
	if err != nil {
		return nil, err
	}
	opts := []tactic.Option{
		tactic.WithProcesses(processes...),
		tactic.WithTarget(a.cfg.Target),
		tactic.WithMaxBins(a.cfg.MaxBins),
		tactic.WithChartDir(a.cfg.ChartDir),
		tactic.WithCheckpoint(a.cfg.Checkpoint.Path, a.cfg.Checkpoint.Every),
	}
	if a.cfg.Resume {
		if a.cfg.Checkpoint.Path == "" {
			return nil, errors.NewValidationError("checkpoint.path", "required to resume", "")
		}
		if _, err := os.Stat(a.cfg.Checkpoint.Path); err != nil {
			a.logger.Warn("No checkpoint to resume from", "path", a.cfg.Checkpoint.Path)
		} else {
			partial, err := reference.ReadWoeTableFile(a.cfg.Checkpoint.Path)
			if err != nil {
				return nil, err
			}
			opts = append(opts, tactic.WithResume(partial))
		}
	}
	return tactic.New(cfg, opts...), nil
}

func (a *app) saveFitted(t *tactic.Tactic) error {
	if a.cfg.Reference != "" {
		if err := t.SaveReference(a.cfg.Reference); err != nil {
			return err
		}
	}
	if a.cfg.WoeReference != "" && t.WoeReference() != nil {
		if err := t.SaveWoeReference(a.cfg.WoeReference); err != nil {
			return err
		}
	}
	if err := t.Save(a.cfg.Model); err != nil {
		return err
	}
	a.logger.Info("Pipeline saved",
		"model", a.cfg.Model,
		"reference", a.cfg.Reference,
		log.GenerationKey, t.Reference().Generation(),
	)
	return nil
}

func (a *app) applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Transform a dataset with a fitted pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.require("model", "data"); err != nil {
				return err
			}
			t, err := tactic.Load(a.cfg.Model)
			if err != nil {
				return err
			}
			df, err := readFrame(a.cfg.Data, a.cfg.Sheet)
			if err != nil {
				return err
			}
			out, err := t.Apply(df)
			if err != nil {
				return err
			}
			if a.cfg.Output == "" {
				return out.WriteCSV(cmd.OutOrStdout())
			}
			return out.WriteCSVFile(a.cfg.Output)
		},
	}
	cmd.Flags().String("model", "", "pipeline snapshot written by fit")
	cmd.Flags().String("data", "", "dataset (csv or xlsx)")
	cmd.Flags().String("sheet", "", "xlsx sheet, first sheet when empty")
	cmd.Flags().String("output", "", "transformed data to write, stdout when empty")
	return cmd
}

func (a *app) corrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corr",
		Short: "List variables left after removing highly correlated ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.require("data"); err != nil {
				return err
			}
			df, err := readFrame(a.cfg.Data, a.cfg.Sheet)
			if err != nil {
				return err
			}
			m, err := selection.CorrelationMatrix(df, args...)
			if err != nil {
				return err
			}
			kept, err := selection.FilterCorrelation(m, a.cfg.Threshold, selection.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), kept.Names)
		},
	}
	cmd.Flags().String("data", "", "dataset (csv or xlsx)")
	cmd.Flags().String("sheet", "", "xlsx sheet, first sheet when empty")
	cmd.Flags().Float64("threshold", 0, "absolute correlation above which a variable is removed")
	return cmd
}

func (a *app) powerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power [variables...]",
		Short: "Report AUC, Gini and KS of each numerical column against the target",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.require("data"); err != nil {
				return err
			}
			if a.cfg.Target == "" {
				return errors.NewValidationError("target", "required by this command", "")
			}
			df, err := readFrame(a.cfg.Data, a.cfg.Sheet)
			if err != nil {
				return err
			}
			report, err := metrics.VariablePower(df, a.cfg.Target, args...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-24s %8s %8s %8s\n", "variable", "auc", "gini", "ks")
			for _, p := range report {
				fmt.Fprintf(w, "%-24s %8.4f %8.4f %8.4f\n", p.Variable, p.AUC, p.Gini, p.KS)
			}
			return nil
		},
	}
	cmd.Flags().String("data", "", "dataset (csv or xlsx)")
	cmd.Flags().String("sheet", "", "xlsx sheet, first sheet when empty")
	cmd.Flags().String("target", "", "0/1 target column")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective pipeline configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.writeYAML(cmd.OutOrStdout())
		},
	}
}

func writeLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
