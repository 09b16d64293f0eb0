package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want uint8
	}{
		{nil, CodeOK},
		{ErrNullParameter, CodeNullParameter},
		{fmt.Errorf("pwm 0: %w", ErrModeConflict), CodeModeConflict},
		{ErrResourceBlocked, CodeResourceBlocked},
		{wrapHardware("set period", errMockFault), CodeHardwareFailure},
		{errors.New("something else"), CodeUnknown},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCodeErrorRoundTrip(t *testing.T) {
	if CodeError(CodeOK) != nil {
		t.Error("CodeOK must map to nil")
	}
	for code := CodeNullParameter; code < CodeUnknown; code++ {
		err := CodeError(code)
		if err == nil {
			t.Fatalf("code %d mapped to nil", code)
		}
		if got := ErrorCode(err); got != code {
			t.Errorf("code %d round tripped to %d", code, got)
		}
	}
	if got := CodeError(200).Error(); got != "unknown error code 200" {
		t.Errorf("unknown code message %q", got)
	}
}

func TestHardwareErrorUnwrap(t *testing.T) {
	err := wrapHardware("enable output", errMockFault)
	if !errors.Is(err, ErrHardwareFailure) || !errors.Is(err, errMockFault) {
		t.Errorf("%v does not match both sentinels", err)
	}
	if wrapHardware("noop", nil) != nil {
		t.Error("wrapping nil must give nil")
	}
}
