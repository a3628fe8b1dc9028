package errors

// Mongo-specific helpers for mapping driver errors to project ErrorCode and retry semantics

import (
	"context"
	stderrs "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// IsDuplicateKey reports whether the error is a unique index violation
func IsDuplicateKey(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(Root(err))
}

// IsNoDocuments reports whether the error means no document matched
func IsNoDocuments(err error) bool {
	return stderrs.Is(err, mongo.ErrNoDocuments)
}

// DBErrorCode maps a Mongo driver error to an ErrorCode with an ok flag
// !ok means err wasn't recognizably a driver error; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	if err == nil {
		return ErrorCodeUnknown, false
	}
	root := Root(err)

	switch {
	case mongo.IsDuplicateKeyError(root):
		return ErrorCodeDuplicateKey, true
	case stderrs.Is(root, mongo.ErrNoDocuments):
		return ErrorCodeNotFound, true
	case mongo.IsTimeout(root), mongo.IsNetworkError(root):
		// Transient or unreachable dependency
		return ErrorCodeUnavailable, true
	}

	var srv mongo.ServerError
	if stderrs.As(root, &srv) {
		return ErrorCodeDB, true
	}
	var we mongo.WriteException
	if stderrs.As(root, &we) {
		return ErrorCodeDB, true
	}
	var ce mongo.CommandError
	if stderrs.As(root, &ce) {
		return ErrorCodeDB, true
	}
	return ErrorCodeUnknown, false
}

// FromMongo wraps a driver error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromMongo(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromMongof is the formatted variant of FromMongo
func FromMongof(err error, format string, a ...any) error {
	return FromMongo(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a database error represents a transient condition
// worth retrying. Local cancellations and deadline hits are never retryable here;
// the caller owns higher-level retry decisions for those
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	root := Root(err)
	if mongo.IsNetworkError(root) || mongo.IsTimeout(root) {
		return true
	}
	// Not-primary and shutdown-in-progress style topology churn surfaces as a
	// server error with the RetryableWriteError label
	var srv mongo.ServerError
	if stderrs.As(root, &srv) && srv.HasErrorLabel("RetryableWriteError") {
		return true
	}
	return false
}
