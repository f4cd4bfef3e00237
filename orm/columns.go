package orm

import (
	"reflect"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx/reflectx"
)

// columnMapper maps struct fields to result columns through an explicit
// field-to-column table, normally Builder.Columns.
type columnMapper struct {
	columns map[string]string

	sqlx    sync.Map // *SQLFactory -> *reflectx.Mapper
	structs sync.Map // reflect.Type -> *structColumns
}

func newColumnMapper(columns map[string]string) *columnMapper {
	cp := make(map[string]string, len(columns))
	for k, v := range columns {
		cp[k] = v
	}
	return &columnMapper{columns: cp}
}

// sqlxMapper returns a mapper for f's connections: the table first, then
// f's NameAdapter.
func (m *columnMapper) sqlxMapper(f *SQLFactory) *reflectx.Mapper {
	if v, ok := m.sqlx.Load(f); ok {
		return v.(*reflectx.Mapper) //nolint:forcetypeassert // only mappers are stored
	}
	mapper := reflectx.NewMapperFunc("db", func(field string) string {
		if col, ok := m.columns[field]; ok {
			return col
		}
		return f.names(field)
	})
	v, _ := m.sqlx.LoadOrStore(f, mapper)
	return v.(*reflectx.Mapper) //nolint:forcetypeassert // only mappers are stored
}

// structColumns indexes the exported fields of one struct type by column.
// exact holds `db` tags and table entries; loose holds the remaining
// fields under their normalized names.
type structColumns struct {
	exact map[string][]int
	loose map[string][]int
}

func (s *structColumns) lookup(column string) ([]int, bool) {
	if idx, ok := s.exact[column]; ok {
		return idx, true
	}
	idx, ok := s.loose[normalizeColumn(column)]
	return idx, ok
}

func (m *columnMapper) structColumns(t reflect.Type) *structColumns {
	if v, ok := m.structs.Load(t); ok {
		return v.(*structColumns) //nolint:forcetypeassert // only indexes are stored
	}

	sc := &structColumns{
		exact: make(map[string][]int),
		loose: make(map[string][]int),
	}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || throughPointer(t, f.Index) {
			continue
		}
		if tag, ok := f.Tag.Lookup("db"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				sc.exact[name] = f.Index
				continue
			}
		}
		if col, ok := m.columns[f.Name]; ok {
			sc.exact[col] = f.Index
			continue
		}
		sc.loose[normalizeColumn(f.Name)] = f.Index
	}

	v, _ := m.structs.LoadOrStore(t, sc)
	return v.(*structColumns) //nolint:forcetypeassert // only indexes are stored
}

// throughPointer reports whether the field at index is promoted through
// an embedded pointer, which a zero value cannot address.
func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

// normalizeColumn folds case and drops underscores so "created_at" and
// "CreatedAt" meet.
func normalizeColumn(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}
