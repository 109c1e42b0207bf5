package tactic

import (
	"strings"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// Process はパイプラインの1段階の種類
type Process int

const (
	Cap Process = iota
	Floor
	MissingImpute
	Woe
	Normalize
	Scale
)

var processNames = [...]string{
	Cap:           "Cap",
	Floor:         "Floor",
	MissingImpute: "MissingImpute",
	Woe:           "Woe",
	Normalize:     "Normalize",
	Scale:         "Scale",
}

// String はProcessの名前を返す
func (p Process) String() string {
	if p < 0 || int(p) >= len(processNames) {
		return "Unknown"
	}
	return processNames[p]
}

// ParseProcess は名前からProcessを返す。大文字小文字は区別しない
func ParseProcess(s string) (Process, error) {
	for i, name := range processNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Process(i), nil
		}
	}
	return 0, errors.NewValidationError("process", "unknown process", s)
}

// ParseProcesses は名前のリストをProcessのリストに変換する
func ParseProcesses(names []string) ([]Process, error) {
	out := make([]Process, 0, len(names))
	for _, n := range names {
		p, err := ParseProcess(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
