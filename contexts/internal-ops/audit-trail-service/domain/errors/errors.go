package errors

import "errors"

var (
	ErrInvalidInput             = errors.New("audit event input is invalid")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
