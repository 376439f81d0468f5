package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType enumerates the supported SQL comparison operators.
type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	IsNull             ConditionType = "IS NULL"
	IsNotNull          ConditionType = "IS NOT NULL"

	defaultLimit  = -1
	defaultOffset = -1
)

// Condition is a single WHERE predicate. Field names are sanitized before
// interpolation; values always travel as bind parameters.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a condition comparing a column against a value.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereNull builds an IS NULL / IS NOT NULL condition.
func WhereNull(field string, notNull bool) Condition {
	t := IsNull
	if notNull {
		t = IsNotNull
	}
	return Condition{Field: field, Type: t}
}

// ListQueryOptions describes a list query over a single table.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions builds options for a list query on the given table.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  defaultLimit,
		Offset: defaultOffset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly switches the query to SELECT COUNT(*).
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// BuildListQuery constructs a SQL query string and bind arguments from
// options. Identifiers are quoted via pgx.Identifier; values are always
// parameterized.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	if options.CountOnly {
		query.WriteString("SELECT COUNT(*) ")
	} else if len(options.Columns) == 0 {
		query.WriteString("SELECT * ")
	} else {
		cols := make([]string, len(options.Columns))
		for i, c := range options.Columns {
			cols[i] = sanitizeIdentifier(c)
		}
		query.WriteString("SELECT " + strings.Join(cols, ", ") + " ")
	}
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	whereClause, args, nextParam := buildWhereClause(options.Conditions, 1)
	if whereClause != "" {
		query.WriteString(" ")
		query.WriteString(whereClause)
	}

	if options.CountOnly {
		return query.String(), args
	}

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" " + dir)
		}
	}
	if options.Limit != defaultLimit {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", nextParam))
		args = append(args, options.Limit)
		nextParam++
	}
	if options.Offset != defaultOffset {
		query.WriteString(fmt.Sprintf(" OFFSET $%d", nextParam))
		args = append(args, options.Offset)
	}

	return query.String(), args
}

func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any, int) {
	conditions := make([]string, 0, len(inputConditions))
	args := []any{}
	paramCount := startParamIndex

	for _, cond := range inputConditions {
		if cond.Field == "" {
			continue
		}
		field := sanitizeIdentifier(cond.Field)

		switch cond.Type {
		case IsNull, IsNotNull:
			conditions = append(conditions, fmt.Sprintf("%s %s", field, cond.Type))
		case In:
			rv := reflect.ValueOf(cond.Value)
			if rv.Kind() != reflect.Slice || rv.Len() == 0 {
				continue
			}
			placeholders := make([]string, rv.Len())
			for i := range rv.Len() {
				placeholders[i] = fmt.Sprintf("$%d", paramCount)
				args = append(args, rv.Index(i).Interface())
				paramCount++
			}
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")))
		case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual, ILike:
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", field, cond.Type, paramCount))
			args = append(args, cond.Value)
			paramCount++
		}
	}

	if len(conditions) == 0 {
		return "", args, paramCount
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, paramCount
}
