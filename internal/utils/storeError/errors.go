package storeError

import (
	"errors"
	"fmt"
	"io"

	"github.com/blxryer/haste-server/internal/args"
	"github.com/blxryer/haste-server/internal/logging"
)

var ErrBadRequest = errors.New("bad request")

var ErrNotFound = errors.New("not found")
var ErrDocumentNotFound = fmt.Errorf("document not found: %w", ErrNotFound)

const (
	ExitOk          = 0
	ExitNotFound    = 1
	ExitBadRequest  = 2
	ExitServerError = 3
)

// HandleCliError writes a user facing message for err to w and returns the
// process exit code for it.
func HandleCliError(w io.Writer, err error) int {
	var code int
	var message string

	switch {
	case err == nil:
		return ExitOk

	case errors.Is(err, ErrBadRequest):
		code = ExitBadRequest
		message = err.Error()

	case errors.Is(err, ErrNotFound):
		code = ExitNotFound
		message = err.Error()

	default:
		code = ExitServerError
		if args.IsProduction() {
			message = "internal error"
		} else {
			message = err.Error()
		}
	}

	logging.Logger.Errorf("CLI Error: %d %s", code, message)
	_, _ = fmt.Fprintln(w, message)
	return code
}
