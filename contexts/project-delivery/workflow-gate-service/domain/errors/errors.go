package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput             = errors.New("workflow gate input is invalid")
	ErrProjectNotFound          = errors.New("project not found")
	ErrPreconditionBlocked      = errors.New("workflow preconditions are not satisfied")
	ErrUnauthorized             = errors.New("actor is not permitted to perform this action")
	ErrDuplicateReview          = errors.New("actor already submitted a review for this project")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)

// BlockedReason is one unmet precondition. The full list is always returned
// so a caller can surface every missing upstream condition at once.
type BlockedReason struct {
	Type    string
	Message string
}

type BlockedError struct {
	Reasons []BlockedReason
}

func (e *BlockedError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrPreconditionBlocked.Error()
	}
	types := make([]string, 0, len(e.Reasons))
	for _, reason := range e.Reasons {
		types = append(types, reason.Type)
	}
	return fmt.Sprintf("%s: %s", ErrPreconditionBlocked.Error(), strings.Join(types, ", "))
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrPreconditionBlocked
}
