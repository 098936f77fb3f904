package runner

import "errors"

var (
	ErrInvalidSignal = errors.New("invalid signal")
	ErrInvalidPrice  = errors.New("invalid reference price")
	ErrSizingFailure = errors.New("position sizing failed")

	ErrRiskRejected = errors.New("risk check rejected order")
	ErrMinQuantity  = riskError("quantity below minimum of 1")
	ErrMinNotional  = riskError("notional below minimum")

	ErrSubmissionFailure   = errors.New("order submission failed")
	ErrConfirmationFailure = errors.New("order confirmation failed")
)

type riskErr struct{ msg string }

func riskError(msg string) error { return &riskErr{msg: msg} }

func (e *riskErr) Error() string { return e.msg }
func (e *riskErr) Unwrap() error { return ErrRiskRejected }
