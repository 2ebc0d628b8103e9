package workflow

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrWrongState     = errors.New("operation not allowed in current step")
	ErrBusy           = errors.New("another operation is in progress")
	ErrDeliveryFailed = errors.New("proposal submitted but delivery failed")
	ErrNotFound       = errors.New("proposal not found")
	ErrRFBClosed      = errors.New("request for bid is closed")
)
