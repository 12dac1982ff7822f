package engine

import (
	"context"
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	one := [][]byte{[]byte("a")}

	if err := Check(Result{Annotations: one}, 1, false); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := Check(Result{Annotations: one, Traces: one}, 1, true); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := Check(Result{}, 1, false); !errors.Is(err, ErrBatchShape) {
		t.Errorf("expected ErrBatchShape for missing annotations, got %v", err)
	}

	if err := Check(Result{Annotations: one}, 1, true); !errors.Is(err, ErrBatchShape) {
		t.Errorf("expected ErrBatchShape for missing traces, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	var gotTrace bool
	var e Engine = Func(func(ctx context.Context, batch [][]byte, trace bool) (Result, error) {
		gotTrace = trace
		return Result{Annotations: batch}, nil
	})

	res, err := e.Infer(context.Background(), [][]byte{[]byte("x")}, true)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if !gotTrace || string(res.Annotations[0]) != "x" {
		t.Fatalf("unexpected result %v trace=%t", res, gotTrace)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
