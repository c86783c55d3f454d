package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
)

// wrapStorage classifies a database error. Connection-level failures
// become STORAGE_UNAVAILABLE so callers can abort the remaining batch;
// anything else stays a row-level failure.
func wrapStorage(err error, op string) error {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
