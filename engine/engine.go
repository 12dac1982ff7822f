package engine

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBatchShape is returned when the batch produced by an engine does
	// not match the request.
	ErrBatchShape = errors.New("unexpected batch shape")

	ErrClosed = errors.New("engine closed")
)

// Result is the output of one forward computation. Traces is only filled
// when tracing was requested, and is then parallel to Annotations.
type Result struct {
	Annotations [][]byte
	Traces      [][]byte
}

// Engine runs the trained parser graph. The request is a batch of
// serialized sentences, the result a batch of serialized annotated
// sentences in the same order.
type Engine interface {
	Infer(ctx context.Context, batch [][]byte, trace bool) (Result, error)
	Close() error
}

// Func adapts a function to the Engine interface. Close is a no-op.
type Func func(ctx context.Context, batch [][]byte, trace bool) (Result, error)

func (f Func) Infer(ctx context.Context, batch [][]byte, trace bool) (Result, error) {
	return f(ctx, batch, trace)
}

func (f Func) Close() error {
	return nil
}

// Check verifies that res answers a request of n sentences.
func Check(res Result, n int, trace bool) error {
	if len(res.Annotations) != n {
		return fmt.Errorf("%w: %d annotations for %d sentences", ErrBatchShape, len(res.Annotations), n)
	}

	if trace && len(res.Traces) != n {
		return fmt.Errorf("%w: %d traces for %d sentences", ErrBatchShape, len(res.Traces), n)
	}

	return nil
}
