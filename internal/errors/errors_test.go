package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/KirkDiggler/expedition-api/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     errors.CodeNotFound,
			message:  "run not found",
			expected: "NOT_FOUND: run not found",
		},
		{
			name:     "invalid argument error",
			code:     errors.CodeInvalidArgument,
			message:  "party is required",
			expected: "INVALID_ARGUMENT: party is required",
		},
		{
			name:     "quota error",
			code:     errors.CodeQuotaExceeded,
			message:  "daily free runs exhausted",
			expected: "QUOTA_EXCEEDED: daily free runs exhausted",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Assert().Equal(tc.expected, err.Error())
			s.Assert().Equal(tc.code, err.Code)
			s.Assert().Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestErrorWithMeta() {
	err := errors.AlreadyExists("heroes already locked").
		WithMeta("locked_heroes", []string{"0xabc:7"}).
		WithMeta("wallet", "0xwallet")

	s.Assert().Equal([]string{"0xabc:7"}, err.Meta["locked_heroes"])
	s.Assert().Equal("0xwallet", err.Meta["wallet"])
}

func (s *ErrorsTestSuite) TestWrap() {
	baseErr := fmt.Errorf("redis connection refused")
	wrapped := errors.Wrap(baseErr, "failed to load run")

	s.Assert().Equal(errors.CodeInternal, wrapped.Code)
	s.Assert().Equal("failed to load run", wrapped.Message)
	s.Assert().Equal(baseErr, wrapped.Unwrap())
}

func (s *ErrorsTestSuite) TestWrapPreservesCode() {
	base := errors.NotFound("dungeon not found")
	wrapped := errors.Wrap(base, "failed to resolve dungeon")

	s.Assert().Equal(errors.CodeNotFound, wrapped.Code)
	s.Assert().True(errors.IsNotFound(wrapped))
}

func (s *ErrorsTestSuite) TestWrapWithCode() {
	base := fmt.Errorf("counter increment failed")
	wrapped := errors.WrapWithCode(base, errors.CodeAborted, "admission lost the race")

	s.Assert().Equal(errors.CodeAborted, wrapped.Code)
	s.Assert().True(errors.IsAborted(wrapped))
}

func (s *ErrorsTestSuite) TestHTTPStatusMapping() {
	testCases := []struct {
		code   errors.Code
		status int
	}{
		{errors.CodeInvalidArgument, http.StatusBadRequest},
		{errors.CodeAlreadyExists, http.StatusConflict},
		{errors.CodeQuotaExceeded, http.StatusPaymentRequired},
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeUnavailable, http.StatusServiceUnavailable},
		{errors.CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Run(string(tc.code), func() {
			s.Assert().Equal(tc.status, tc.code.HTTPStatus())
		})
	}
}

func (s *ErrorsTestSuite) TestToGRPCError() {
	err := errors.QuotaExceeded("payment required for third run")
	grpcErr := errors.ToGRPCError(err)

	st, ok := status.FromError(grpcErr)
	s.Require().True(ok)
	s.Assert().Equal(codes.ResourceExhausted, st.Code())
	s.Assert().Equal("payment required for third run", st.Message())

	s.Assert().Nil(errors.ToGRPCError(nil))
}

func (s *ErrorsTestSuite) TestGetCode() {
	s.Assert().Equal(errors.CodeOK, errors.GetCode(nil))
	s.Assert().Equal(errors.CodeInternal, errors.GetCode(fmt.Errorf("plain error")))
	s.Assert().Equal(errors.CodeUnavailable, errors.GetCode(errors.Unavailable("no dungeons available")))
}
