package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/untout/persistence/orm"
)

// FieldInfo holds parsed metadata for one struct field.
type FieldInfo struct {
	Name       string // Go field name, e.g. "Title"
	Column     string // explicit column from `db:"title"`; empty lets the NameAdapter decide
	GoType     string // Go type as string, e.g. "int64", "uuid.UUID"
	PrimaryKey bool   // tagged `db:",pk"` or `db:",primaryKey"`
}

// StructInfo holds parsed metadata for the target struct.
type StructInfo struct {
	Name      string            // Go struct name, e.g. "Article"
	Package   string            // package name, e.g. "model"
	Fields    []FieldInfo       // exported, non-skipped fields in declaration order
	TableName string            // explicit table override, set by the caller
	Imports   map[string]string // package name -> import path, from the source file
}

// PrimaryKeyField returns the identity field. An explicit pk tag wins over
// a field named Id or ID; more than one explicit pk is an error.
func (s *StructInfo) PrimaryKeyField() (*FieldInfo, error) {
	var pk *FieldInfo
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			if pk != nil {
				return nil, fmt.Errorf("multiple primary keys: %s and %s", pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk != nil {
		return pk, nil
	}
	for i := range s.Fields {
		if s.Fields[i].Name == "Id" || s.Fields[i].Name == "ID" {
			if pk != nil {
				return nil, fmt.Errorf("ambiguous primary key in %s: %s and %s", s.Name, pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk == nil {
		return nil, fmt.Errorf("no primary key defined for %s", s.Name)
	}
	return pk, nil
}

// NonPKFields returns every field except the identity, in declaration order.
func (s *StructInfo) NonPKFields() []FieldInfo {
	pk, err := s.PrimaryKeyField()
	if err != nil {
		return s.Fields
	}
	fields := make([]FieldInfo, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name != pk.Name {
			fields = append(fields, f)
		}
	}
	return fields
}

// Entity returns the orm.Entity described by s.
func (s *StructInfo) Entity() (orm.Entity, error) {
	pk, err := s.PrimaryKeyField()
	if err != nil {
		return orm.Entity{}, err
	}
	e := orm.Entity{
		Name:  s.Name,
		Table: s.TableName,
		ID:    orm.Field{Name: pk.Name, Column: pk.Column},
	}
	for _, f := range s.NonPKFields() {
		e.Fields = append(e.Fields, orm.Field{Name: f.Name, Column: f.Column})
	}
	return e, e.Validate()
}

// ParseFile reads the Go file at filePath and returns StructInfo for every
// struct type that has at least one exported field.
func ParseFile(filePath string) ([]*StructInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	pkg := file.Name.Name
	imports := fileImports(file)
	var infos []*StructInfo

	ast.Inspect(file, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}

		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			return true
		}

		fields := parseStructFields(st)
		if len(fields) == 0 {
			return true
		}

		infos = append(infos, &StructInfo{
			Name:    ts.Name.Name,
			Package: pkg,
			Fields:  fields,
			Imports: imports,
		})
		return true
	})

	return infos, nil
}

// Parse returns the StructInfo for typeName in the Go file at filePath.
func Parse(filePath, typeName string) (*StructInfo, error) {
	infos, err := ParseFile(filePath)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == typeName {
			return info, nil
		}
	}
	return nil, fmt.Errorf("struct %s not found in %s", typeName, filePath)
}

func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		if spec.Name != nil {
			name = spec.Name.Name
		}
		imports[name] = path
	}
	return imports
}

// parseStructFields extracts the mapped fields from an AST struct type.
func parseStructFields(st *ast.StructType) []FieldInfo {
	fields := make([]FieldInfo, 0, len(st.Fields.List))
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded field
		}
		for _, ident := range field.Names {
			fi, skip := parseField(ident, field)
			if skip {
				continue
			}
			fields = append(fields, fi)
		}
	}
	return fields
}

func parseField(ident *ast.Ident, field *ast.Field) (FieldInfo, bool) {
	if !ident.IsExported() {
		return FieldInfo{}, true
	}

	fi := FieldInfo{
		Name:   ident.Name,
		GoType: typeToString(field.Type),
	}

	if field.Tag != nil {
		tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
		if dbTag, ok := tag.Lookup("db"); ok {
			if dbTag == "-" {
				return FieldInfo{}, true // explicitly skipped
			}
			parts := strings.Split(dbTag, ",")
			fi.Column = parts[0]
			for _, opt := range parts[1:] {
				if opt == "pk" || opt == "primaryKey" {
					fi.PrimaryKey = true
				}
			}
		}
	}

	return fi, false
}

func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return fmt.Sprintf("[%s]%s", typeToString(t.Len), typeToString(t.Elt))
	case *ast.BasicLit:
		return t.Value
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	default:
		return fmt.Sprintf("%T", expr)
	}
}
