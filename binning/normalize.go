package binning

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/YuminosukeSato/riskprep/core/frame"
)

// NormalizeString はカテゴリ変数のラベルを正規化した新しい列を返す
//
// 各ラベルはUnicode NFCに正規化され、前後の空白が取り除かれる。
// 欠損値（数値列ではNaN）は missingLabel になる。数値列は文字列に変換される。
func NormalizeString(col *frame.Column, missingLabel string) *frame.Column {
	out := make([]string, col.Len())
	for i := range out {
		if col.IsMissing(i) {
			out[i] = missingLabel
			continue
		}
		switch col.Kind() {
		case frame.Float:
			v := col.Floats()[i]
			if v == math.Trunc(v) && math.Abs(v) < 1e15 {
				out[i] = strconv.FormatInt(int64(v), 10)
			} else {
				out[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		case frame.String:
			out[i] = strings.TrimSpace(norm.NFC.String(col.Strings()[i]))
		default:
			out[i] = col.Times()[i].Format("2006-01-02 15:04:05")
		}
	}
	return frame.NewStringColumn(col.Name(), out, nil)
}
