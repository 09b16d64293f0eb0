package core

import "errors"

// Driver error taxonomy. Every operation returns one of these (possibly
// wrapped); none of them are raised as panics.
var (
	ErrNullParameter    = errors.New("null parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrResourceBlocked  = errors.New("timer resource blocked")
	ErrModeConflict     = errors.New("channel mode conflict")
	ErrModeInvalid      = errors.New("channel mode not supported by timer block")
	ErrAlreadyStarted   = errors.New("already started")
	ErrAlreadyStopped   = errors.New("already stopped")
	ErrUninitialized    = errors.New("not initialized")
	ErrHardwareFailure  = errors.New("hardware failure")
)

// Wire codes for the error taxonomy. Zero is success.
const (
	CodeOK uint8 = iota
	CodeNullParameter
	CodeInvalidParameter
	CodeResourceBlocked
	CodeModeConflict
	CodeModeInvalid
	CodeAlreadyStarted
	CodeAlreadyStopped
	CodeUninitialized
	CodeHardwareFailure
	CodeUnknown
)

var codeTable = [...]error{
	CodeNullParameter:    ErrNullParameter,
	CodeInvalidParameter: ErrInvalidParameter,
	CodeResourceBlocked:  ErrResourceBlocked,
	CodeModeConflict:     ErrModeConflict,
	CodeModeInvalid:      ErrModeInvalid,
	CodeAlreadyStarted:   ErrAlreadyStarted,
	CodeAlreadyStopped:   ErrAlreadyStopped,
	CodeUninitialized:    ErrUninitialized,
	CodeHardwareFailure:  ErrHardwareFailure,
}

// ErrorCode maps an error onto its wire code
func ErrorCode(err error) uint8 {
	if err == nil {
		return CodeOK
	}
	for code, sentinel := range codeTable {
		if sentinel != nil && errors.Is(err, sentinel) {
			return uint8(code)
		}
	}
	return CodeUnknown
}

// CodeError maps a wire code back onto its sentinel error
func CodeError(code uint8) error {
	if code == CodeOK {
		return nil
	}
	if int(code) < len(codeTable) && codeTable[code] != nil {
		return codeTable[code]
	}
	return errors.New("unknown error code " + itoa(int(code)))
}

// hardwareError wraps a register primitive failure so that callers can
// match both ErrHardwareFailure and the underlying cause.
type hardwareError struct {
	op  string
	err error
}

func (e *hardwareError) Error() string {
	return "hardware failure: " + e.op + ": " + e.err.Error()
}

func (e *hardwareError) Is(target error) bool {
	return target == ErrHardwareFailure
}

func (e *hardwareError) Unwrap() error {
	return e.err
}

func wrapHardware(op string, err error) error {
	if err == nil {
		return nil
	}
	return &hardwareError{op: op, err: err}
}
