package service

import "context"

// ProgressReporter forwards progress updates for the request in flight. The
// engine installs one when the incoming tool call carries a progressToken.
type ProgressReporter interface {
	Report(ctx context.Context, progress, total float64) error
}

type progressKey struct{}

// WithProgress attaches a ProgressReporter to the context.
func WithProgress(ctx context.Context, pr ProgressReporter) context.Context {
	return context.WithValue(ctx, progressKey{}, pr)
}

// ProgressFrom extracts the ambient ProgressReporter, if any.
func ProgressFrom(ctx context.Context) (ProgressReporter, bool) {
	pr, ok := ctx.Value(progressKey{}).(ProgressReporter)
	return pr, ok
}
