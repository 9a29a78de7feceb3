package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ListFilters represents standard list filters
type ListFilters struct {
	Search   string
	IsActive *bool

	// Entity specific filters
	BuyerID *uuid.UUID
}

// Conditions accumulates AND-ed WHERE clauses with positional arguments.
type Conditions struct {
	clauses []string
	Args    []any
}

// Add appends a clause; every "?" in clause becomes the next placeholder
// bound to v.
func (c *Conditions) Add(clause string, v any) {
	c.Args = append(c.Args, v)
	c.clauses = append(c.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(c.Args))))
}

// Fixed appends a clause that binds no argument.
func (c *Conditions) Fixed(clause string) {
	c.clauses = append(c.clauses, clause)
}

// Where renders the clause list, or "" when empty.
func (c *Conditions) Where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// Like wraps s for a case-insensitive substring match.
func Like(s string) string {
	return "%" + s + "%"
}
