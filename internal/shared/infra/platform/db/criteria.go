package db

import (
	"fmt"
	"strings"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

// WhereClause traduce criterios a SQL con placeholders '?'. Solo se aceptan
// columnas presentes en allowed; el resto devuelve error.
func WhereClause(criteria sharedDomain.Criteria, allowed map[string]bool) (string, []interface{}, error) {
	if criteria == nil {
		return "", nil, nil
	}
	conds := criteria.ToConditions()
	if len(conds) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds))
	for _, c := range conds {
		if !allowed[c.Field] {
			return "", nil, fmt.Errorf("filter on column %q not allowed", c.Field)
		}
		switch c.Op {
		case sharedDomain.OpEq, sharedDomain.OpGte, sharedDomain.OpLte, sharedDomain.OpLike:
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", c.Field, c.Op))
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
