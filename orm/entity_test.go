package orm_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/untout/persistence/orm"
)

type note struct {
	ID   int64
	Body string
}

func (note) TableName() string { return "notes" }

func noteMapping() orm.Mapping[int64, note] {
	return orm.Mapping[int64, note]{
		Entity: orm.Entity{
			Name:   "Note",
			ID:     orm.Field{Name: "Id", Column: "id"},
			Fields: []orm.Field{{Name: "Body"}},
		},
		Args:  func(n *note) orm.Args { return orm.Args{"Body": n.Body} },
		ID:    func(n *note) int64 { return n.ID },
		SetID: func(n *note, id int64) { n.ID = id },
	}
}

func TestEntityValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entity  *orm.Entity
		wantErr bool
	}{
		{"valid", &orm.Entity{Name: "A", ID: orm.Field{Name: "Id"}, Fields: []orm.Field{{Name: "B"}}}, false},
		{"no fields", &orm.Entity{Name: "A", ID: orm.Field{Name: "Id"}}, false},
		{"nil", nil, true},
		{"blank name", &orm.Entity{Name: " ", ID: orm.Field{Name: "Id"}}, true},
		{"no identity", &orm.Entity{Name: "A"}, true},
		{"unnamed field", &orm.Entity{Name: "A", ID: orm.Field{Name: "Id"}, Fields: []orm.Field{{Column: "c"}}}, true},
		{"identity in fields", &orm.Entity{Name: "A", ID: orm.Field{Name: "Id"}, Fields: []orm.Field{{Name: "Id"}}}, true},
		{"duplicate", &orm.Entity{Name: "A", ID: orm.Field{Name: "Id"}, Fields: []orm.Field{{Name: "B"}, {Name: "B"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.entity.Validate()
			if tt.wantErr && !errors.Is(err, orm.ErrInvalidArgument) {
				t.Errorf("Validate() = %v, want ErrInvalidArgument", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestEntityFieldNames(t *testing.T) {
	t.Parallel()

	got := articleEntity.FieldNames()
	want := []string{"Title", "Content", "CreatedAt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestNewMappingResolvesTableNamer(t *testing.T) {
	t.Parallel()

	m, err := orm.NewMapping(noteMapping())
	if err != nil {
		t.Fatalf("NewMapping: %v", err)
	}
	if m.Entity.Table != "notes" {
		t.Errorf("Table = %q, want %q", m.Entity.Table, "notes")
	}
}

func TestNewMappingCopiesFields(t *testing.T) {
	t.Parallel()

	src := noteMapping()
	m, err := orm.NewMapping(src)
	if err != nil {
		t.Fatalf("NewMapping: %v", err)
	}
	src.Entity.Fields[0].Name = "Mutated"
	if m.Entity.Fields[0].Name != "Body" {
		t.Errorf("Fields[0] = %q, want %q", m.Entity.Fields[0].Name, "Body")
	}
}

func TestNewMappingRequiresAccessors(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(*orm.Mapping[int64, note]){
		"args":   func(m *orm.Mapping[int64, note]) { m.Args = nil },
		"id":     func(m *orm.Mapping[int64, note]) { m.ID = nil },
		"set id": func(m *orm.Mapping[int64, note]) { m.SetID = nil },
		"entity": func(m *orm.Mapping[int64, note]) { m.Entity.ID = orm.Field{} },
	} {
		m := noteMapping()
		mutate(&m)
		if _, err := orm.NewMapping(m); !errors.Is(err, orm.ErrInvalidArgument) {
			t.Errorf("%s: NewMapping error = %v, want ErrInvalidArgument", name, err)
		}
	}
}
