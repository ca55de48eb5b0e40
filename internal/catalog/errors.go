package catalog

import (
	"errors"
	"fmt"
)

// ErrDuplicateName matches every *DuplicateNameError via errors.Is.
var ErrDuplicateName = errors.New("duplicate board game name")

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// DuplicateNameError is returned when a create or update would reuse a name
// already held by another game.
type DuplicateNameError struct {
	Name string
	Op   Op
}

func (e *DuplicateNameError) Error() string {
	if e.Op == OpUpdate {
		return fmt.Sprintf("Another board game with name '%s' already exists", e.Name)
	}
	return fmt.Sprintf("Board game with name '%s' already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }
