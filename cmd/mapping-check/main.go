// Command mapping-check validates a JSON mapping definition file, reporting
// property/column collisions and unresolved identifiers before the schema is
// deployed. It can also emit the generated DDL for a backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"daocore/internal/infra/persistence/sqlgen"
	"daocore/pkg/dao"
)

// EntityDefinition is one entity block of the mapping file.
type EntityDefinition struct {
	Name        string            `json:"name"`
	Table       string            `json:"table"`
	Identifier  string            `json:"identifier,omitempty"`
	Properties  map[string]string `json:"properties"`             // property -> column
	Types       map[string]string `json:"types,omitempty"`        // column -> conversion type
	ForeignKeys map[string]string `json:"foreign_keys,omitempty"` // property -> column
}

// MappingDefinition is the root of the mapping file.
type MappingDefinition struct {
	Entities []EntityDefinition `json:"entities"`
}

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mapping-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		mappingPath string
		ddlDialect  string
		quiet       bool
	)
	fs.StringVar(&mappingPath, "mapping", "mappings.json", "path to mapping definition json")
	fs.StringVar(&ddlDialect, "ddl", "", "emit DDL for the given dialect (sqlite|postgres)")
	fs.BoolVar(&quiet, "quiet", false, "suppress the per-entity summary")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	schema, err := loadSchema(mappingPath)
	if err != nil {
		fmt.Fprintf(stderr, "Mapping validation failed: %v\n", err)
		return 1
	}
	if !quiet {
		printSummary(stdout, schema)
	}
	if ddlDialect != "" {
		dialect := sqlgen.Dialect(ddlDialect)
		if !dialect.Valid() {
			fmt.Fprintf(stderr, "Unknown dialect %s\n", ddlDialect)
			return 2
		}
		ddl, err := sqlgen.SchemaDDL(schema, dialect)
		if err != nil {
			fmt.Fprintf(stderr, "DDL generation failed: %v\n", err)
			return 1
		}
		fmt.Fprint(stdout, ddl)
	}
	if !quiet {
		fmt.Fprintln(stdout, "Mapping validation passed.")
	}
	return 0
}

// validatePath rejects absolute and traversing paths so the tool only reads
// inside the working tree.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

func loadSchema(path string) (*dao.Schema, error) {
	safePath, err := validatePath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(safePath) // #nosec G304: path validated above
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var def MappingDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if len(def.Entities) == 0 {
		return nil, fmt.Errorf("mapping defines no entities")
	}
	schema := dao.NewSchema()
	for i, entity := range def.Entities {
		built, err := buildEntity(entity)
		if err != nil {
			return nil, fmt.Errorf("entities[%d] (%s): %w", i, entity.Name, err)
		}
		if err := schema.Register(built); err != nil {
			return nil, fmt.Errorf("entities[%d] (%s): %w", i, entity.Name, err)
		}
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

func buildEntity(def EntityDefinition) (dao.Entity, error) {
	names := dao.NewNames()
	// Deterministic order keeps collision reports stable across runs.
	properties := make([]string, 0, len(def.Properties))
	for property := range def.Properties {
		properties = append(properties, property)
	}
	sort.Strings(properties)
	for _, property := range properties {
		if err := names.SetNameMapping(property, def.Properties[property], dao.TypeNone); err != nil {
			return dao.Entity{}, err
		}
	}
	columns := make([]string, 0, len(def.Types))
	for column := range def.Types {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		typ, err := dao.ParseConversionType(def.Types[column])
		if err != nil {
			return dao.Entity{}, err
		}
		if err := names.SetTypeForColumn(column, typ); err != nil {
			return dao.Entity{}, err
		}
	}
	fks := make([]string, 0, len(def.ForeignKeys))
	for property := range def.ForeignKeys {
		fks = append(fks, property)
	}
	sort.Strings(fks)
	for _, property := range fks {
		if err := names.SetForeignKeyMapping(property, def.ForeignKeys[property]); err != nil {
			return dao.Entity{}, err
		}
	}
	if def.Identifier != "" {
		if err := names.SetIdentifierProperty(def.Identifier); err != nil {
			return dao.Entity{}, err
		}
	}
	return dao.Entity{Name: def.Name, Table: def.Table, Names: names}, nil
}

func printSummary(w io.Writer, schema *dao.Schema) {
	for _, name := range schema.EntityNames() {
		e, _ := schema.Entity(name)
		fmt.Fprintf(w, "%s -> %s: %d properties, identifier %q", name, e.Table, len(e.Names.PropertyNames()), e.Names.IDProperty())
		if fks := e.Names.ForeignKeyPropertyNames(); len(fks) > 0 {
			fmt.Fprintf(w, ", foreign keys %s", strings.Join(fks, ", "))
		}
		fmt.Fprintln(w)
	}
}
