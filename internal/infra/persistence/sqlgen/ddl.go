package sqlgen

import (
	"bufio"
	"strings"

	"daocore/pkg/dao"
)

func columnType(typ dao.ConversionType, dialect Dialect) string {
	switch typ {
	case dao.TypeInt:
		if dialect == DialectPostgres {
			return "BIGINT"
		}
		return "INTEGER"
	case dao.TypeFloat:
		if dialect == DialectPostgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case dao.TypeBool:
		if dialect == DialectPostgres {
			return "SMALLINT"
		}
		return "INTEGER"
	}
	// string, time (RFC3339), json and unconverted columns all store text.
	return "TEXT"
}

// CreateTable generates the CREATE TABLE IF NOT EXISTS statement for one
// entity. Column types derive from the registry's conversion types; the
// identifier column becomes the primary key.
func CreateTable(e dao.Entity, dialect Dialect) (string, error) {
	idColumn, err := IDColumn(e)
	if err != nil {
		return "", err
	}
	columns := e.Names.ColumnNames()
	if len(columns) == 0 {
		return "", dao.InvalidArgumentError{Op: "sqlgen", Reason: "entity " + e.Name + " has no name mappings"}
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(quote(e.Table))
	sb.WriteString(" (\n")
	for i, column := range columns {
		typ, _ := e.Names.TypeForColumn(column)
		sb.WriteString("\t")
		sb.WriteString(quote(column))
		sb.WriteString(" ")
		sb.WriteString(columnType(typ, dialect))
		if column == idColumn {
			sb.WriteString(" PRIMARY KEY")
		}
		if i < len(columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");")
	return sb.String(), nil
}

// SchemaDDL generates the DDL script for every entity in the schema, in
// entity-name order.
func SchemaDDL(schema *dao.Schema, dialect Dialect) (string, error) {
	var sb strings.Builder
	for _, name := range schema.EntityNames() {
		e, _ := schema.Entity(name)
		stmt, err := CreateTable(e, dialect)
		if err != nil {
			return "", err
		}
		sb.WriteString("-- entity: ")
		sb.WriteString(name)
		sb.WriteString("\n")
		sb.WriteString(stmt)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// SplitStatements splits a semicolon-terminated DDL script into executable
// statements. It drops blank lines and single-line comments that start with
// "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return stmts
}
