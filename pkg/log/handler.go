package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// ErrFmtHandler is a slog middleware that expands error attributes emitted
// through ErrAttr. For every record carrying an error it adds the stacktrace
// recorded by cockroachdb/errors and, when the error belongs to the library
// error taxonomy, a stable error.code attribute.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps a slog handler with error expansion. Records
// without an error attribute pass through unchanged.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			found = err
		}
		return false
	})
	if found != nil {
		if st := extractStacktrace(found); st != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, st))
		}
		if code := classifyError(found); code != "" {
			r.AddAttrs(slog.String(ErrorCodeKey, code))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// extractStacktrace returns the first stack recorded in the error's safe
// details, or "" when the error carries none.
func extractStacktrace(err error) string {
	for _, detail := range errors.GetSafeDetails(err).SafeDetails {
		if detail != "" {
			return detail
		}
	}
	return ""
}

// classifyError maps the library error types onto their stable error codes.
// Unknown errors yield "" and no code attribute is emitted for them.
func classifyError(err error) string {
	var (
		notAdapted *adapterrors.NotAdaptedError
		dimension  *adapterrors.DimensionError
		inputShape *adapterrors.InputShapeError
		batchKind  *adapterrors.BatchKindError
		numerical  *adapterrors.NumericalInstabilityError
		validation *adapterrors.ValidationError
		value      *adapterrors.ValueError
	)
	switch {
	case errors.As(err, &notAdapted):
		return ErrorNotAdapted
	case errors.As(err, &dimension), errors.As(err, &inputShape):
		return ErrorDimensionMismatch
	case errors.As(err, &batchKind):
		return ErrorBatchKindMismatch
	case errors.As(err, &numerical):
		return ErrorNumerical
	case errors.As(err, &validation), errors.As(err, &value):
		return ErrorInvalidInput
	case errors.Is(err, adapterrors.ErrEmptyData), errors.Is(err, adapterrors.ErrEmptySample):
		return ErrorEmptyData
	}
	return ""
}
