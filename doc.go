// Package riskprep prepares tabular datasets for credit-risk models.
//
// Raw columns are capped, floored, imputed, WOE-encoded, normalized and
// min-max scaled with statistics learned from a training set. Everything
// learned is written into a reference table, so the same transformation
// can be replayed later on any other dataset from the saved tables alone.
//
// # Features
//
//   - Configuration table driven: one row per variable with the processes it takes
//   - Reproducible: Fit produces reference tables, Apply only reads them
//   - Pluggable binning: WOE bins come from a binning.Engine
//   - Feature screening: correlation filter and discriminatory power (AUC, Gini, KS)
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/YuminosukeSato/riskprep/core/frame"
//	    "github.com/YuminosukeSato/riskprep/reference"
//	    "github.com/YuminosukeSato/riskprep/tactic"
//	)
//
//	func main() {
//	    train, err := frame.ReadCSVFile("train.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    cfg, err := reference.ReadTableFile("config.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    t := tactic.New(cfg,
//	        tactic.WithProcesses(tactic.Cap, tactic.Floor, tactic.MissingImpute, tactic.Woe),
//	        tactic.WithTarget("bad"),
//	    )
//	    if _, err := t.Fit(train); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := t.SaveReference("reference.csv"); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := t.SaveWoeReference("woe_reference.csv"); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Packages
//
//   - core/frame: columnar dataset with CSV and xlsx readers
//   - core/model: the Fit/Apply contract and snapshot persistence
//   - core/parallel: chunked parallel loops
//   - reference: configuration, reference and WOE reference tables
//   - binning: binning engine, string normalization and WOE charts
//   - preprocessing: Cap, Floor, MissingImpute, Normalize, Scale and Woe
//   - tactic: the pipeline that runs the components in order
//   - selection: correlation matrix and correlation filter
//   - metrics: AUC, Gini and KS against a binary target
//   - cmd/riskprep: command line interface
//
// # Command Line
//
//	riskprep infer --data sample.csv --output config.csv
//	riskprep fit --file pipeline.yaml
//	riskprep apply --model pipeline.gob --data test.csv --output out.csv
package riskprep
