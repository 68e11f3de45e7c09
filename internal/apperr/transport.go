package apperr

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCStatus converts err into a gRPC status error. Internal details are not leaked.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, "internal error")
	}
	switch e.Kind {
	case KindValidation:
		return status.Error(codes.InvalidArgument, e.Message)
	case KindNotFound:
		return status.Error(codes.NotFound, e.Message)
	case KindConflict:
		return status.Error(codes.AlreadyExists, e.Message)
	case KindTransient:
		return status.Error(codes.Unavailable, e.Message)
	case KindIntegrity:
		return status.Error(codes.Internal, e.Message)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON error envelope returned by the HTTP API.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func Body(err error) ErrorBody {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return ErrorBody{Code: "INTERNAL", Message: "internal error"}
	}
	return ErrorBody{Code: e.Code, Message: e.Message, Fields: e.Fields}
}
