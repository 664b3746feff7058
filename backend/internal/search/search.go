// Package search turns list criteria into a parameterised SQL predicate, ordering and page window.
package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

// Options carry the per-kind rules the builder needs.
type Options struct {
	ExcludeDeleted bool
	FixedFirst     bool
	HasCategory    bool
	// AuthorID, when set, keeps only posts by that author (inquiry "my" filter).
	AuthorID *string
	// AuthorType narrows AuthorID further when set.
	AuthorType *domain.AuthorType
}

// Query is ready to be spliced after "FROM <table> p". Where already has $n placeholders.
type Query struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// sortable maps the accepted sort fields to columns.
var sortable = map[string]string{
	"createdAt": "p.created_at",
	"viewCount": "p.view_count",
	"views":     "p.view_count",
	"title":     "p.title",
	"id":        "p.id",
	"editedAt":  "p.edited_at",
}

// nullable columns sort their NULLs last in both directions.
var nullable = map[string]bool{
	"p.edited_at": true,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Build validates criteria and produces the predicate, order and window.
// Page size bounds are the caller's job; only negatives are rejected here.
func Build(c domain.SearchCriteria, opts Options) (Query, error) {
	if c.PageNumber < 0 || c.PageSize < 0 {
		return Query{}, errors.Validation(errors.CodeIllegalBoardData, "page number and size must not be negative")
	}

	var conds []string
	var args []any

	if c.StartDate != nil {
		conds = append(conds, "p.created_at >= ?")
		args = append(args, startOfDay(*c.StartDate))
	}
	if c.EndDate != nil {
		conds = append(conds, "p.created_at < ?")
		args = append(args, startOfDay(*c.EndDate).AddDate(0, 0, 1))
	}
	if opts.HasCategory && c.CategoryId != nil && *c.CategoryId != domain.CategoryAll {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *c.CategoryId)
	}
	if text := strings.TrimSpace(c.SearchText); text != "" {
		pattern := "%" + likeEscaper.Replace(text) + "%"
		conds = append(conds, `(p.title ILIKE ? ESCAPE '\' OR p.content ILIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if opts.ExcludeDeleted {
		conds = append(conds, "p.is_deleted = false")
	}
	if opts.AuthorID != nil {
		conds = append(conds, "p.author_id = ?")
		args = append(args, *opts.AuthorID)
		if opts.AuthorType != nil {
			conds = append(conds, "p.author_type = ?")
			args = append(args, string(*opts.AuthorType))
		}
	}

	orderBy, err := buildOrder(c.SortField, c.SortDirection, opts.FixedFirst)
	if err != nil {
		return Query{}, err
	}

	where := ""
	if len(conds) > 0 {
		where = numberPlaceholders(strings.Join(conds, " AND "))
	}

	return Query{
		Where:   where,
		Args:    args,
		OrderBy: orderBy,
		Limit:   c.PageSize,
		Offset:  c.Offset(),
	}, nil
}

func buildOrder(field, direction string, fixedFirst bool) (string, error) {
	if field == "" {
		field = domain.DefaultSortField
	}
	column, ok := sortable[field]
	if !ok {
		return "", errors.Validation(errors.CodeIllegalBoardData, fmt.Sprintf("unknown sort field %q", field))
	}

	dir := strings.ToUpper(strings.TrimSpace(direction))
	switch dir {
	case "":
		dir = domain.SortDesc
	case domain.SortAsc, domain.SortDesc:
	default:
		return "", errors.Validation(errors.CodeIllegalBoardData, fmt.Sprintf("unknown sort direction %q", direction))
	}

	parts := make([]string, 0, 3)
	if fixedFirst {
		parts = append(parts, "p.is_fixed DESC")
	}
	key := column + " " + dir
	if nullable[column] {
		key += " NULLS LAST"
	}
	parts = append(parts, key)
	if column != "p.id" {
		// stable paging across equal keys
		parts = append(parts, "p.id "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// numberPlaceholders rewrites each ? into $1, $2, ... in order.
func numberPlaceholders(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
