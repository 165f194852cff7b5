package match

import "errors"

var (
	ErrInvalidParam    = errors.New("the param is invalid")
	ErrTimeout         = errors.New("timeout")
	ErrShutdown        = errors.New("order book is shutting down")
	ErrOrderBookClosed = errors.New("order book is closed")
	ErrSequenceGap     = errors.New("sequence gap detected in log stream")
)
