package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeConfiguration, Message: "limit must be positive"}
		s.Equal("limit must be positive", err.Error())
	})

	s.Run("code when message is empty", func() {
		err := &Error{Code: CodeStoreUnavailable}
		s.Equal("store_unavailable", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsByCode() {
	s.Run("same code different message matches", func() {
		a := New(CodeStoreUnavailable, "redis down")
		b := &Error{Code: CodeStoreUnavailable}
		s.True(errors.Is(a, b))
	})

	s.Run("different code does not match", func() {
		a := New(CodeStoreUnavailable, "redis down")
		s.False(errors.Is(a, &Error{Code: CodeConfiguration}))
	})

	s.Run("plain errors never match", func() {
		s.False((&Error{Code: CodeInternal}).Is(errors.New("internal_error")))
	})

	s.Run("matches through fmt wrapping", func() {
		inner := New(CodeConfiguration, "window must be positive")
		outer := fmt.Errorf("startup: %w", inner)
		s.True(errors.Is(outer, &Error{Code: CodeConfiguration}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("wraps infrastructure errors with the given code", func() {
		cause := errors.New("dial tcp: connection refused")
		err := Wrap(cause, CodeStoreUnavailable, "failed to increment usage")

		s.True(HasCode(err, CodeStoreUnavailable))
		s.ErrorIs(err, cause)
		s.Equal("failed to increment usage", err.Error())
	})

	s.Run("keeps an existing domain code", func() {
		inner := New(CodeInvalidInput, "unknown feature")
		err := Wrap(inner, CodeStoreUnavailable, "check failed")

		s.True(HasCode(err, CodeInvalidInput))
		s.False(HasCode(err, CodeStoreUnavailable))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.False(HasCode(nil, CodeInternal))
	s.False(HasCode(errors.New("boom"), CodeInternal))
	s.True(HasCode(New(CodeTimeout, "store call timed out"), CodeTimeout))
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	s.Equal(CodeStoreUnavailable, CodeOf(Wrap(errors.New("dial tcp"), CodeStoreUnavailable, "ledger down")))
	s.Equal(CodeConfiguration, CodeOf(fmt.Errorf("startup: %w", New(CodeConfiguration, "window must be positive"))))
}
