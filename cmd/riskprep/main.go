// Command riskprep fits and applies risk-model preprocessing pipelines.
//
//	riskprep infer --data sample.csv --output config.csv
//	riskprep check --config config.csv --data train.csv
//	riskprep fit   --file pipeline.yaml
//	riskprep apply --model pipeline.gob --data test.csv --output out.csv
//	riskprep corr  --data out.csv --threshold 0.8
package main

import (
	"log/slog"
	"os"

	"github.com/YuminosukeSato/riskprep/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", log.ErrAttr(err))
		os.Exit(1)
	}
}
