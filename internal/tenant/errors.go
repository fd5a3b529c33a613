package tenant

import (
	"context"
	"errors"
	"net"

	mssql "github.com/microsoft/go-mssqldb"
)

// ErrorClass tells callers how to treat a tenant failure: connectivity and
// timeout problems are worth retrying, credential and permission problems
// are fatal for the request.
type ErrorClass int

const (
	// ClassRetryable covers transient connectivity failures: timeouts,
	// refused connections, dropped sessions.
	ClassRetryable ErrorClass = iota
	// ClassFatal covers everything a retry cannot fix, authentication and
	// authorization failures in particular.
	ClassFatal
)

// SQL Server error numbers for login/permission failures.
var fatalSQLNumbers = map[int32]bool{
	4060:  true, // cannot open database
	18456: true, // login failed for user
	18452: true, // login from untrusted domain
	18461: true, // login failed, server in single-user mode
	229:   true, // permission denied on object
	297:   true, // permission denied
}

// Classify maps a tenant error to its retry class. Unknown errors are
// fatal: retrying a malformed query or schema mismatch cannot succeed.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassRetryable
	}

	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		if fatalSQLNumbers[sqlErr.Number] {
			return ClassFatal
		}
		return ClassRetryable
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassRetryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetryable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassRetryable
	}

	return ClassFatal
}
