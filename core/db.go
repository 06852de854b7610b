package core

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidOrdering = errors.New("invalid ordering field")

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderingClause builds an `ORDER BY` clause out of orderings whose fields are all in allowed.
// Returns def when no ordering is provided.
func OrderingClause(orderings []DBOrdering, def string, allowed ...string) (string, error) {
	if len(orderings) == 0 {
		return "ORDER BY " + def, nil
	}
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if !contains(allowed, ord.Field) {
			return "", errors.Wrap(ErrInvalidOrdering, ord.Field)
		}
		parts = append(parts, ord.String())
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
