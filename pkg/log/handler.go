package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	rperrors "github.com/YuminosukeSato/riskprep/pkg/errors"
)

// ErrorKindAttrKey names the riskprep error type attached next to an error attribute.
const ErrorKindAttrKey = "error_kind"

// ErrFmtHandler is a slog handler that expands errors logged with ErrAttr.
// It adds the cockroachdb/errors stacktrace and, for riskprep error types,
// the error kind.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var logged error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		logged, _ = attr.Value.Any().(error)
		return false
	})
	if logged == nil {
		return eh.handler.Handle(ctx, r)
	}

	if stacktrace := extractStacktrace(logged); stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	if kind := errorKind(logged); kind != "" {
		r.AddAttrs(slog.String(ErrorKindAttrKey, kind))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// errorKind names the first riskprep error type in err's chain.
func errorKind(err error) string {
	var (
		configErr     *rperrors.ConfigError
		referenceErr  *rperrors.MissingReferenceError
		degenerateErr *rperrors.DegenerateStatisticError
		typeErr       *rperrors.UnknownTypeError
		dimensionErr  *rperrors.DimensionError
		validationErr *rperrors.ValidationError
		valueErr      *rperrors.ValueError
		modelErr      *rperrors.ModelError
	)
	switch {
	case errors.As(err, &configErr):
		return "ConfigError"
	case errors.As(err, &referenceErr):
		return "MissingReferenceError"
	case errors.As(err, &degenerateErr):
		return "DegenerateStatisticError"
	case errors.As(err, &typeErr):
		return "UnknownTypeError"
	case errors.As(err, &dimensionErr):
		return "DimensionError"
	case errors.As(err, &validationErr):
		return "ValidationError"
	case errors.As(err, &valueErr):
		return "ValueError"
	case errors.As(err, &modelErr):
		return "ModelError"
	}
	return ""
}
