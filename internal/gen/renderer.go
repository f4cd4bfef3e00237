package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"
)

// ormImport is the import path of the package generated code targets.
const ormImport = "github.com/untout/persistence/orm"

// Render generates the Go source code for a single StructInfo.
// The returned bytes are formatted by gofmt.
func Render(info *StructInfo) ([]byte, error) {
	return RenderFile([]*StructInfo{info})
}

// RenderFile generates a single Go source file with an entity descriptor
// and a mapping constructor for every given StructInfo. All infos must
// share a package. The returned bytes are formatted by gofmt.
func RenderFile(infos []*StructInfo) ([]byte, error) {
	if len(infos) == 0 {
		return nil, errors.New("no structs to render")
	}

	pkg := infos[0].Package
	imports := map[string]bool{ormImport: true}
	structs := make([]templateData, 0, len(infos))

	for _, info := range infos {
		if info.Package != pkg {
			return nil, fmt.Errorf("%s is in package %s, want %s", info.Name, info.Package, pkg)
		}
		if _, err := info.Entity(); err != nil {
			return nil, fmt.Errorf("%s: %w", info.Name, err)
		}
		pk, err := info.PrimaryKeyField()
		if err != nil {
			return nil, err
		}

		if path, ok := typeImport(pk.GoType, info.Imports); ok {
			imports[path] = true
		}

		structs = append(structs, templateData{
			TypeName:    info.Name,
			EntityVar:   info.Name + "Entity",
			MappingFunc: info.Name + "Mapping",
			TableName:   info.TableName,
			PK:          pk,
			Fields:      info.NonPKFields(),
		})
	}

	paths := make([]string, 0, len(imports))
	for p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, fileTemplateData{
		Package: pkg,
		Imports: paths,
		Structs: structs,
	}); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gofmt: %w", err)
	}
	return src, nil
}

// typeImport returns the import path a key type such as "uuid.UUID"
// needs, looked up in the source file's imports.
func typeImport(goType string, imports map[string]string) (string, bool) {
	goType = strings.TrimLeft(goType, "*[]")
	dot := strings.IndexByte(goType, '.')
	if dot < 0 {
		return "", false
	}
	path, ok := imports[goType[:dot]]
	return path, ok
}

type fileTemplateData struct {
	Package string
	Imports []string
	Structs []templateData
}

type templateData struct {
	TypeName    string
	EntityVar   string
	MappingFunc string
	TableName   string
	PK          *FieldInfo
	Fields      []FieldInfo
}

var fileTmpl = template.Must(template.New("file").Parse(`// Code generated by persistgen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{range .Structs}}
// {{.EntityVar}} describes {{.TypeName}} for the orm package.
var {{.EntityVar}} = orm.Entity{
	Name: "{{.TypeName}}",
	{{- if .TableName}}
	Table: "{{.TableName}}",
	{{- end}}
	ID: orm.Field{Name: "{{.PK.Name}}"{{if .PK.Column}}, Column: "{{.PK.Column}}"{{end}}},
	Fields: []orm.Field{
	{{- range .Fields}}
		{Name: "{{.Name}}"{{if .Column}}, Column: "{{.Column}}"{{end}}},
	{{- end}}
	},
}

// {{.MappingFunc}} returns the orm.Mapping for {{.TypeName}}.
func {{.MappingFunc}}() orm.Mapping[{{.PK.GoType}}, {{.TypeName}}] {
	return orm.Mapping[{{.PK.GoType}}, {{.TypeName}}]{
		Entity: {{.EntityVar}},
		Args: func(v *{{.TypeName}}) orm.Args {
			return orm.Args{
			{{- range .Fields}}
				"{{.Name}}": v.{{.Name}},
			{{- end}}
			}
		},
		ID: func(v *{{.TypeName}}) {{.PK.GoType}} { return v.{{.PK.Name}} },
		SetID: func(v *{{.TypeName}}, id {{.PK.GoType}}) { v.{{.PK.Name}} = id },
	}
}
{{end}}`))
