package repository

import (
	"fmt"
	"strings"
	"time"
)

// Dialect captures the few differences between the supported SQL engines.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Time converts a timestamp into the value stored in upload_date.
	Time func(t time.Time) any
	// Lower is the SQL function used to case-fold text for search.
	Lower string
}

// SQLiteTimeLayout is fixed-width so that lexical order equals chronological order.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	PostgresDialect = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Time:        func(t time.Time) any { return t.UTC() },
		Lower:       "LOWER",
	}
	SQLiteDialect = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		Time:        func(t time.Time) any { return t.UTC().Format(SQLiteTimeLayout) },
		// built-in LOWER only folds ASCII; go_lower is registered by database.NewSQLite.
		Lower:       "go_lower",
	}
)

// DocumentColumns is the projection shared by every document query, in scan order.
const DocumentColumns = "id, original_name, title, description, doc_type, mime_type, size, page_count, storage_reference, file_url, upload_date"

// argMarker is substituted with the dialect placeholder at build time.
const argMarker = "{?}"

type condition struct {
	clause string
	args   []any
}

// Builder constructs filtered SELECT and COUNT statements with dialect-aware parameter numbering.
type Builder struct {
	dialect    Dialect
	table      string
	columns    string
	conditions []condition
	orderBy    []string
}

func NewBuilder(d Dialect, table, columns string) *Builder {
	return &Builder{dialect: d, table: table, columns: columns}
}

// WhereSearch adds a case-insensitive literal substring match OR-ed across columns.
// LIKE wildcards in search are escaped. No-op for blank input.
func (b *Builder) WhereSearch(search string, columns ...string) *Builder {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + EscapeLike(strings.ToLower(search)) + "%"

	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = fmt.Sprintf(`%s(%s) LIKE %s ESCAPE '\'`, b.lower(), col, argMarker)
		args[i] = pattern
	}
	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

func (b *Builder) lower() string {
	if b.dialect.Lower == "" {
		return "LOWER"
	}
	return b.dialect.Lower
}

// WhereEquals adds an equality condition. No-op for an empty string.
func (b *Builder) WhereEquals(column string, value string) *Builder {
	if value == "" {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: column + " = " + argMarker,
		args:   []any{value},
	})
	return b
}

// WhereTimeRange adds from <= column < until. Nil bounds are skipped.
func (b *Builder) WhereTimeRange(column string, from, until *time.Time) *Builder {
	if from != nil {
		b.conditions = append(b.conditions, condition{
			clause: column + " >= " + argMarker,
			args:   []any{b.dialect.Time(*from)},
		})
	}
	if until != nil {
		b.conditions = append(b.conditions, condition{
			clause: column + " < " + argMarker,
			args:   []any{b.dialect.Time(*until)},
		})
	}
	return b
}

// OrderBy appends ORDER BY terms such as "upload_date DESC".
func (b *Builder) OrderBy(terms ...string) *Builder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args, _ := b.buildWhere(1)
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.table, where), args
}

// BuildPage returns a SELECT with ordering, limit and offset bound as parameters.
func (b *Builder) BuildPage(limit, offset int) (string, []any) {
	where, args, next := b.buildWhere(1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s", b.columns, b.table, where)
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", b.dialect.Placeholder(next), b.dialect.Placeholder(next+1))

	return sb.String(), append(args, limit, offset)
}

func (b *Builder) buildWhere(start int) (string, []any, int) {
	if len(b.conditions) == 0 {
		return "", nil, start
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0)
	idx := start
	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			clause = strings.Replace(clause, argMarker, b.dialect.Placeholder(idx), 1)
			args = append(args, arg)
			idx++
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, idx
}

// EscapeLike escapes the LIKE metacharacters so s matches literally with ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// BuildListQueries returns the page query and the matching count query for f.
func BuildListQueries(d Dialect, f ListFilter) (page string, pageArgs []any, count string, countArgs []any) {
	b := NewBuilder(d, "documents", DocumentColumns).
		WhereSearch(f.Search, "title", "original_name").
		WhereTimeRange("upload_date", f.From, f.Until).
		WhereEquals("doc_type", string(f.DocType)).
		OrderBy("upload_date DESC", "id DESC")

	page, pageArgs = b.BuildPage(f.Limit, f.Offset)
	count, countArgs = b.BuildCount()
	return page, pageArgs, count, countArgs
}
