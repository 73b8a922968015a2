// Package sqlgen builds the SQL statements shared by the sqlite and postgres
// stores. Property names are translated to columns through the entity's
// Names registry and restriction values are coerced with the column's
// conversion type, so the generated statements always speak the storage
// representation.
package sqlgen

import (
	"fmt"
	"strings"

	"daocore/pkg/dao"
)

// Dialect selects placeholder style and column types.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Valid reports whether the dialect is known.
func (d Dialect) Valid() bool {
	return d == DialectSQLite || d == DialectPostgres
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// SelectColumns returns the entity's columns in stable (alphabetical) order
// together with the property each column scans back into.
func SelectColumns(e dao.Entity) (columns, properties []string) {
	columns = e.Names.ColumnNames()
	properties = make([]string, len(columns))
	for i, column := range columns {
		property, _ := e.Names.PropertyForColumn(column)
		properties[i] = property
	}
	return columns, properties
}

// IDColumn resolves the column backing the entity's identifier property.
func IDColumn(e dao.Entity) (string, error) {
	column, ok := e.Names.ColumnForProperty(e.Names.IDProperty())
	if !ok {
		return "", dao.InvalidArgumentError{Op: "sqlgen", Reason: "identifier property " + e.Names.IDProperty() + " of entity " + e.Name + " is not mapped"}
	}
	return column, nil
}

// Statement couples SQL text with its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

type whereBuilder struct {
	dialect Dialect
	names   *dao.Names
	args    []any
}

func (w *whereBuilder) bind(column string, value any) (string, error) {
	typ, _ := w.names.TypeForColumn(column)
	converted, err := typ.ToStorage(value)
	if err != nil {
		return "", err
	}
	w.args = append(w.args, converted)
	return w.dialect.placeholder(len(w.args)), nil
}

func (w *whereBuilder) restriction(r dao.Restriction) (string, error) {
	column, ok := w.names.ColumnForProperty(r.Property)
	if !ok {
		return "", dao.InvalidArgumentError{Op: "sqlgen", Reason: "no column mapped for property " + r.Property}
	}
	qc := quote(column)
	switch r.Compare {
	case dao.Null:
		return qc + " IS NULL", nil
	case dao.NotNull:
		return qc + " IS NOT NULL", nil
	case dao.In:
		candidates, ok := r.Value.([]any)
		if !ok {
			return "", dao.InvalidArgumentError{Op: "sqlgen", Reason: "in restriction on " + r.Property + " requires a []any value"}
		}
		if len(candidates) == 0 {
			// Empty IN matches nothing.
			return "1 = 0", nil
		}
		placeholders := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			ph, err := w.bind(column, candidate)
			if err != nil {
				return "", err
			}
			placeholders = append(placeholders, ph)
		}
		return qc + " IN (" + strings.Join(placeholders, ", ") + ")", nil
	case dao.Like:
		ph, err := w.bind(column, r.Value)
		if err != nil {
			return "", err
		}
		return qc + " LIKE " + ph, nil
	}

	op := ""
	switch r.Compare {
	case dao.Equals:
		op = "="
	case dao.NotEquals:
		op = "<>"
	case dao.Greater:
		op = ">"
	case dao.GreaterOrEqual:
		op = ">="
	case dao.Less:
		op = "<"
	case dao.LessOrEqual:
		op = "<="
	default:
		return "", dao.InvalidArgumentError{Op: "sqlgen", Reason: "unsupported comparison " + r.Compare.String()}
	}
	ph, err := w.bind(column, r.Value)
	if err != nil {
		return "", err
	}
	return qc + " " + op + " " + ph, nil
}

func (w *whereBuilder) where(search dao.Search) (string, error) {
	if len(search.Restrictions) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(search.Restrictions))
	for _, r := range search.Restrictions {
		clause, err := w.restriction(r)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	join := " AND "
	if search.Disjunction {
		join = " OR "
	}
	return " WHERE " + strings.Join(clauses, join), nil
}

func orderBy(e dao.Entity, orders []dao.Order) (string, error) {
	if len(orders) == 0 {
		orders = []dao.Order{{Property: e.Names.IDProperty()}}
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		column, ok := e.Names.ColumnForProperty(o.Property)
		if !ok {
			return "", dao.InvalidArgumentError{Op: "sqlgen", Reason: "no column mapped for order property " + o.Property}
		}
		direction := " ASC"
		if o.Descending {
			direction = " DESC"
		}
		parts = append(parts, quote(column)+direction)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// Select builds a windowed, ordered SELECT for the search and reports the
// properties the selected columns scan back into.
func Select(e dao.Entity, search dao.Search, dialect Dialect) (Statement, []string, error) {
	columns, properties := SelectColumns(e)
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = quote(column)
	}
	if _, err := IDColumn(e); err != nil {
		return Statement{}, nil, err
	}

	w := &whereBuilder{dialect: dialect, names: e.Names}
	where, err := w.where(search)
	if err != nil {
		return Statement{}, nil, err
	}
	order, err := orderBy(e, search.Orders)
	if err != nil {
		return Statement{}, nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quote(e.Table))
	sb.WriteString(where)
	sb.WriteString(order)
	if search.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", search.Limit)
	} else if search.Start > 0 && dialect == DialectSQLite {
		// sqlite requires a LIMIT clause before OFFSET; postgres rejects
		// negative limits and allows bare OFFSET.
		sb.WriteString(" LIMIT -1")
	}
	if search.Start > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", search.Start)
	}
	return Statement{SQL: sb.String(), Args: w.args}, properties, nil
}

// Count builds a COUNT(*) for the search restrictions; the window is
// ignored.
func Count(e dao.Entity, search dao.Search, dialect Dialect) (Statement, error) {
	w := &whereBuilder{dialect: dialect, names: e.Names}
	where, err := w.where(search)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: "SELECT COUNT(*) FROM " + quote(e.Table) + where, Args: w.args}, nil
}

// Upsert builds an INSERT ... ON CONFLICT DO UPDATE covering every mapped
// column, so an update overwrites omitted properties with NULL. Record
// values are coerced to their storage representation.
func Upsert(e dao.Entity, record dao.Record, dialect Dialect) (Statement, error) {
	idColumn, err := IDColumn(e)
	if err != nil {
		return Statement{}, err
	}
	columns, properties := SelectColumns(e)
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		quoted[i] = quote(column)
		typ, _ := e.Names.TypeForColumn(column)
		converted, err := typ.ToStorage(record[properties[i]])
		if err != nil {
			return Statement{}, err
		}
		args = append(args, converted)
		placeholders[i] = dialect.placeholder(len(args))
		if column != idColumn {
			updates = append(updates, quote(column)+" = excluded."+quote(column))
		}
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quote(e.Table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(placeholders, ", "))
	sb.WriteString(") ON CONFLICT (")
	sb.WriteString(quote(idColumn))
	sb.WriteString(")")
	if len(updates) == 0 {
		sb.WriteString(" DO NOTHING")
	} else {
		sb.WriteString(" DO UPDATE SET ")
		sb.WriteString(strings.Join(updates, ", "))
	}
	return Statement{SQL: sb.String(), Args: args}, nil
}

// DeleteByID builds a DELETE for one identifier value.
func DeleteByID(e dao.Entity, id any, dialect Dialect) (Statement, error) {
	idColumn, err := IDColumn(e)
	if err != nil {
		return Statement{}, err
	}
	typ, _ := e.Names.TypeForColumn(idColumn)
	converted, err := typ.ToStorage(id)
	if err != nil {
		return Statement{}, err
	}
	sql := "DELETE FROM " + quote(e.Table) + " WHERE " + quote(idColumn) + " = " + dialect.placeholder(1)
	return Statement{SQL: sql, Args: []any{converted}}, nil
}

// DeleteBySearch builds a DELETE for the search restrictions.
func DeleteBySearch(e dao.Entity, search dao.Search, dialect Dialect) (Statement, error) {
	w := &whereBuilder{dialect: dialect, names: e.Names}
	where, err := w.where(search)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: "DELETE FROM " + quote(e.Table) + where, Args: w.args}, nil
}
