package repository

import (
	"sort"
	"strconv"
	"strings"

	"superbuy/pkg/database"

	"go.uber.org/zap"
)

// Repository bundles all repositories for wiring.
type Repository struct {
	User    UserRepository
	Product ProductRepository
}

func NewRepository(db *database.DB, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Product: NewProductRepository(db, log),
	}
}

// buildSetClause renders "col = $1, col = $2, ..." from a partial field map,
// translating entity field names to columns through the given allow-list.
// Unknown keys are rejected; keys are sorted so statements are deterministic.
func buildSetClause(fields map[string]any, allowed map[string]string) (string, []any, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := allowed[k]; !ok {
			return "", nil, &UnknownFieldError{Field: k}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, fields[k])
		sb.WriteString(allowed[k])
		sb.WriteString(" = $")
		sb.WriteString(strconv.Itoa(len(args)))
	}
	return sb.String(), args, nil
}
