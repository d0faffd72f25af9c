package similar

import (
	"context"
	"errors"
	"fmt"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CallError описывает неуспешный удалённый вызов.
// Err: e.ErrRemoteCall, e.ErrServiceRejected или e.ErrTimeout.
type CallError struct {
	Call    domain.Call
	Code    codes.Code
	Message string
	Err     error
}

func (c *CallError) Error() string {
	return fmt.Sprintf("%s: %v: %s (code %s)", c.Call, c.Err, c.Message, c.Code)
}

func (c *CallError) Unwrap() error {
	return c.Err
}

// classify переводит ошибку gRPC в таксономию.
// callCtx нужен, чтобы отличить: отмена на стороне клиента отличается от CANCELLED, пришедшего от сервиса.
func classify(callCtx context.Context, call domain.Call, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &CallError{Call: call, Code: codes.Unknown, Message: err.Error(), Err: e.ErrRemoteCall}
	}

	callErr := &CallError{Call: call, Code: st.Code(), Message: st.Message()}
	switch st.Code() {
	case codes.DeadlineExceeded:
		callErr.Err = e.ErrTimeout
	case codes.Canceled:
		switch {
		case errors.Is(callCtx.Err(), context.DeadlineExceeded):
			callErr.Err = e.ErrTimeout
		case callCtx.Err() != nil:
			callErr.Err = e.ErrRemoteCall
		default:
			// EuclidesDB отвечает CANCELLED на некорректные аргументы
			callErr.Err = e.ErrServiceRejected
		}
	case codes.Unavailable, codes.Internal, codes.Unknown, codes.ResourceExhausted, codes.Aborted, codes.DataLoss:
		callErr.Err = e.ErrRemoteCall
	default:
		callErr.Err = e.ErrServiceRejected
	}

	return callErr
}
