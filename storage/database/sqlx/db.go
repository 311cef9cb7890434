package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// isUniqueViolation reports whether err is a psql unique constraint violation,
// optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
	}
	return false
}

// prefixOrdering qualifies ordering fields with a table alias.
func prefixOrdering(prefix string, ordering []core.DBOrdering) []core.DBOrdering {
	prefixed := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		ord.Field = prefix + ord.Field
		prefixed = append(prefixed, ord)
	}
	return prefixed
}

func orderByClause(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
