// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 前処理パイプラインの各段階で発生するエラーを型付きで表現し、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex sync.Mutex
	// SetWarningHandlerで設定されたハンドラ。nilならzerologかデフォルトを使う
	warningHandler func(w error)
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

func defaultWarningHandler(w error) {
	// デフォルトのハンドラは標準エラー出力にログを出す
	log.Printf("riskprep-Warning: %v\n", w)
}

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// MissingImputeWarningなどのカスタム警告の処理方法を制御できます。
// 設定したハンドラはzerologより優先されます。nilで元に戻ります。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// SetWarningHandlerのハンドラ、zerolog、標準ログの順に最初に設定されているものを使います。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	switch {
	case warningHandler != nil:
		warningHandler(w)
	case zerologWarnFunc != nil:
		zerologWarnFunc(w)
	default:
		defaultWarningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// MissingImputeWarning は欠損値が存在するのに補完値が決まらなかった変数に対する警告です。
// 同じデータに対して後でApplyを実行すると失敗します。
type MissingImputeWarning struct {
	Variable string
	Missing  int
}

func (w *MissingImputeWarning) Error() string {
	return fmt.Sprintf("%q has %d missing values but no impute value", w.Variable, w.Missing)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *MissingImputeWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("variable", w.Variable).
		Int("missing", w.Missing).
		Str("type", "MissingImputeWarning")
}

// NewMissingImputeWarning は新しいMissingImputeWarningを作成します。
func NewMissingImputeWarning(variable string, missing int) *MissingImputeWarning {
	return &MissingImputeWarning{Variable: variable, Missing: missing}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ConfigError はCheckConfigで見つかった設定ファイルのエラー数を保持します。
// Fitの入口でのみ致命的エラーに昇格します。
type ConfigError struct {
	Count int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("riskprep: config check found %d error(s); must pass config check before fit", e.Count)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("count", e.Count).
		Str("type", "ConfigError")
}

// NewConfigError は新しいConfigErrorを作成し、スタックトレースを付与します。
func NewConfigError(count int) error {
	return errors.WithStack(&ConfigError{Count: count})
}

// MissingReferenceError はApply時に学習済みの値がリファレンステーブルに存在しない場合のエラーです。
// Fitが実行されていないか、リファレンステーブルが壊れていることを示します。
type MissingReferenceError struct {
	Op       string
	Variable string
	Field    string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("riskprep: %s: missing reference value %s of %q", e.Op, e.Field, e.Variable)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MissingReferenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("variable", e.Variable).
		Str("field", e.Field).
		Str("type", "MissingReferenceError")
}

// NewMissingReferenceError は新しいMissingReferenceErrorを作成し、スタックトレースを付与します。
func NewMissingReferenceError(op, variable, field string) error {
	return errors.WithStack(&MissingReferenceError{Op: op, Variable: variable, Field: field})
}

// DegenerateStatisticError は標準偏差が0、または最大値と最小値が等しい場合のエラーです。
// 変換が数学的に定義できないため致命的です。
type DegenerateStatisticError struct {
	Op        string
	Variable  string
	Statistic string
}

func (e *DegenerateStatisticError) Error() string {
	return fmt.Sprintf("riskprep: %s: degenerate statistic for %q: %s", e.Op, e.Variable, e.Statistic)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateStatisticError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("variable", e.Variable).
		Str("statistic", e.Statistic).
		Str("type", "DegenerateStatisticError")
}

// NewDegenerateStatisticError は新しいDegenerateStatisticErrorを作成し、スタックトレースを付与します。
func NewDegenerateStatisticError(op, variable, statistic string) error {
	return errors.WithStack(&DegenerateStatisticError{Op: op, Variable: variable, Statistic: statistic})
}

// UnknownTypeError は変数の型がnumericalでもcategoricalでもない場合のエラーです。
type UnknownTypeError struct {
	Variable string
	Type     string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("riskprep: wrong type %q for %q, only numerical or categorical allowed", e.Type, e.Variable)
}

// NewUnknownTypeError は新しいUnknownTypeErrorを作成し、スタックトレースを付与します。
func NewUnknownTypeError(variable, varType string) error {
	return errors.WithStack(&UnknownTypeError{Variable: variable, Type: varType})
}

// DimensionError は列の行数が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("riskprep: %s: row count mismatch. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionMismatch は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionMismatch(op string, expected, got int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("riskprep: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 例えば、数値変数の補完値に数値として解釈できない文字列が指定された場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("riskprep: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は前処理コンポーネントに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("riskprep: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("riskprep: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrMissingWoeReference はWOEリファレンステーブルが存在しない状態でApplyした場合のエラーです。
	ErrMissingWoeReference = New("woe reference table missing")
)
