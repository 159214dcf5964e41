package runtime

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/yoshino-s/cloudlogging/logging"
)

// WrapResult turns a handler result into a Connect response, mapping
// errors onto Connect codes.
func WrapResult[T any](entity *T, err error) (*connect.Response[T], error) {
	if err != nil {
		return nil, WrapError(err)
	}
	return connect.NewResponse(entity), nil
}

func WrapError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.Is(err, logging.ErrInvalidEntry):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
