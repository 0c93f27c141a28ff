package storeError

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type HandleCliErrorTestSuite struct {
	suite.Suite
}

func TestHandleCliErrorTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(HandleCliErrorTestSuite))
}

func (s *HandleCliErrorTestSuite) TestExitCodes() {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "nil", err: nil, code: ExitOk},
		{name: "bad request", err: fmt.Errorf("invalid key: %w", ErrBadRequest), code: ExitBadRequest},
		{name: "document not found", err: fmt.Errorf("a: %w", ErrDocumentNotFound), code: ExitNotFound},
		{name: "other", err: errors.New("connection refused"), code: ExitServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// arrange
			var out bytes.Buffer

			// act
			code := HandleCliError(&out, tt.err)

			// assert
			s.Equal(tt.code, code)
			if tt.err != nil {
				s.Contains(out.String(), tt.err.Error())
			} else {
				s.Empty(out.String())
			}
		})
	}
}
