package db

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Query describes a SELECT to build. Zero values are omitted from the SQL.
type Query struct {
	Table   string
	Fields  []string
	Where   map[string]any
	OrderBy string
	Limit   int
	Offset  int
}

// SQL renders the query. Where conditions are ANDed in sorted column order
// so generated statements are deterministic.
func (q Query) SQL() string {
	fields := "*"
	if len(q.Fields) > 0 {
		fields = strings.Join(q.Fields, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", fields, q.Table)
	if clause := whereClause(q.Where); clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}
	if q.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", q.OrderBy)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}
	return b.String()
}

// BuildInsert renders an INSERT for the given column/value map, columns in
// sorted order.
func BuildInsert(table string, data map[string]any) string {
	cols := sortedKeys(data)
	vals := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = Literal(data[c])
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(vals, ", "))
}

// BuildUpdate renders an UPDATE setting the data columns, constrained by the
// where conditions.
func BuildUpdate(table string, data, where map[string]any) string {
	cols := sortedKeys(data)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = %s", c, Literal(data[c]))
	}
	sql := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))
	if clause := whereClause(where); clause != "" {
		sql += " WHERE " + clause
	}
	return sql
}

// BuildDelete renders a DELETE constrained by the where conditions.
func BuildDelete(table string, where map[string]any) string {
	sql := fmt.Sprintf("DELETE FROM %s", table)
	if clause := whereClause(where); clause != "" {
		sql += " WHERE " + clause
	}
	return sql
}

func whereClause(where map[string]any) string {
	if len(where) == 0 {
		return ""
	}
	conds := make([]string, 0, len(where))
	for _, col := range sortedKeys(where) {
		v := where[col]
		if v == nil {
			conds = append(conds, fmt.Sprintf("%s IS NULL", col))
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = %s", col, Literal(v)))
	}
	return strings.Join(conds, " AND ")
}

// Literal renders a Go value as a SQL literal: strings quoted with embedded
// quotes doubled, times formatted as DATETIME, booleans as 1/0, nil as NULL.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
