package tactic

import (
	"strconv"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/preprocessing"
	"github.com/YuminosukeSato/riskprep/reference"
)

// legacyPrecisionColumn は古い設定ファイルに含まれる列で、検証では許可するが使わない
const legacyPrecisionColumn = "Preicesion"

// AllowedHeader は設定テーブルに使える列名
var AllowedHeader = append([]string{legacyPrecisionColumn}, reference.ConfigColumns...)

// CheckConfig は設定テーブルをデータに対して検証し、見つかったエラーの数を返す
//
// 検証する内容:
//  1. 列名が設定スキーマの列であること
//  2. 全ての変数がデータに存在すること
//  3. Var_Typeがデータの列の型と一致すること
//  4. カテゴリ変数にCap/Floorが指定されていないこと
//  5. 数値変数の補完値が mean、median、または数値であること
//
// 各エラーは警告としてログに出力される。設定もデータも変更しない。
func (t *Tactic) CheckConfig(df *frame.Frame) int {
	count := 0
	report := func(kind, msg string, fields ...any) {
		count++
		t.logger.Warn(msg, append([]any{log.ErrorTypeKey, kind, log.OperationKey, log.OperationCheckConfig}, fields...)...)
	}

	allowed := make(map[string]bool, len(AllowedHeader))
	for _, h := range AllowedHeader {
		allowed[h] = true
	}
	var wrongHeader []string
	for _, h := range t.cfg.Header() {
		if !allowed[h] {
			wrongHeader = append(wrongHeader, h)
		}
	}
	if len(wrongHeader) > 0 {
		report("header", "Wrong header", "columns", wrongHeader)
	}

	var absent []string
	for _, name := range t.cfg.Names() {
		if !df.Has(name) {
			absent = append(absent, name)
		}
	}
	if len(absent) > 0 {
		report("variable", "Variables not in dataset", "variables", absent)
	}

	for _, row := range t.cfg.Rows() {
		col, ok := df.Column(row.VarName)
		switch row.VarType {
		case reference.Numerical, reference.Categorical, reference.Timestamp:
			if !ok {
				break
			}
			want := map[reference.VarType]frame.Kind{
				reference.Numerical:   frame.Float,
				reference.Categorical: frame.String,
				reference.Timestamp:   frame.Time,
			}[row.VarType]
			if col.Kind() != want {
				report("type", "Declared type does not match data",
					log.VariableKey, row.VarName,
					"declared", string(row.VarType),
					"actual", col.Kind().String(),
				)
			}
		default:
			report("type", "Wrong variable type, only numerical, categorical or timestamp allowed",
				log.VariableKey, row.VarName,
				"declared", string(row.VarType),
			)
		}

		if row.VarType == reference.Categorical {
			if row.IndCap {
				report("cap", "Categorical variable uses cap process", log.VariableKey, row.VarName)
			} else if row.IndFloor {
				report("floor", "Categorical variable uses floor process", log.VariableKey, row.VarName)
			}
		}

		if row.VarType == reference.Numerical && row.MissingImpute != nil && !validNumericalImpute(*row.MissingImpute) {
			report("impute", "Wrong impute value, only mean, median or a number allowed",
				log.VariableKey, row.VarName,
				"value", *row.MissingImpute,
			)
		}
	}

	t.logger.Info("Config checked", log.OperationKey, log.OperationCheckConfig, log.ErrorCountKey, count)
	return count
}

func validNumericalImpute(token string) bool {
	switch token {
	case preprocessing.ImputeMean, preprocessing.ImputeMedian:
		return true
	}
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}
