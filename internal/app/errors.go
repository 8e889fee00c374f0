package service

import (
	"fmt"

	"github.com/okian/flyerhub/internal/domain/model"
)

// ErrSubmissionPending is returned when a retried submission arrives while the
// first attempt is still being processed.
var ErrSubmissionPending = fmt.Errorf("%w: submission is still being processed", model.ErrConflict)
