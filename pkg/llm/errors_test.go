package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "wrapped deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "rate limited", err: &StatusError{Code: 429}, want: true},
		{name: "internal error", err: &StatusError{Code: 500}, want: true},
		{name: "bad gateway", err: &StatusError{Code: 502}, want: true},
		{name: "service unavailable", err: &StatusError{Code: 503}, want: true},
		{name: "gateway timeout", err: &StatusError{Code: 504}, want: true},
		{name: "unauthorized", err: &StatusError{Code: 401}, want: false},
		{name: "bad request", err: &StatusError{Code: 400}, want: false},
		{name: "wrapped status error", err: fmt.Errorf("chat: %w", &StatusError{Code: 503}), want: true},
		{name: "network-level error", err: errors.New("connection refused"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
