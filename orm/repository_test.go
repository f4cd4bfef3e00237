package orm_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/untout/persistence/orm"
)

type article struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Content   string `db:"content"`
	CreatedAt string `db:"created_at"`
}

func articleMapping() orm.Mapping[int64, article] {
	return orm.Mapping[int64, article]{
		Entity: articleEntity,
		Args: func(a *article) orm.Args {
			return orm.Args{"Title": a.Title, "Content": a.Content, "CreatedAt": a.CreatedAt}
		},
		ID:    func(a *article) int64 { return a.ID },
		SetID: func(a *article, id int64) { a.ID = id },
	}
}

func newTestRepo(t *testing.T, exec *orm.TestExecutor[article]) (*orm.Repository[int64, article], *orm.TestFactory) {
	t.Helper()

	f := &orm.TestFactory{}
	b := newBuilder(t, orm.NewSnakeCaseAdapter(), articleEntity)
	r, err := orm.NewRepository(f, b, articleMapping(), orm.WithExecutor[int64, article](exec))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return r, f
}

func TestRepositoryGetAll(t *testing.T) {
	t.Parallel()

	exec := &orm.TestExecutor[article]{Rows: []article{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}}
	r, f := newTestRepo(t, exec)

	got, err := r.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if q := exec.LastQuery(); q.SQL != "SELECT * FROM article" || q.Op != "select" {
		t.Errorf("query = %+v", q)
	}
	if f.Open() != 0 {
		t.Errorf("open connections = %d, want 0", f.Open())
	}
}

func TestRepositoryGetByID(t *testing.T) {
	t.Parallel()

	exec := &orm.TestExecutor[article]{Row: &article{ID: 5, Title: "found"}}
	r, f := newTestRepo(t, exec)

	got, found, err := r.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if got.Title != "found" {
		t.Errorf("Title = %q, want %q", got.Title, "found")
	}
	q := exec.LastQuery()
	if q.SQL != "SELECT * FROM article WHERE id = @Id" {
		t.Errorf("SQL = %q", q.SQL)
	}
	if q.Args[orm.IDParam] != int64(5) {
		t.Errorf("Args[Id] = %v, want 5", q.Args[orm.IDParam])
	}
	if f.Open() != 0 {
		t.Errorf("open connections = %d, want 0", f.Open())
	}
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	t.Parallel()

	r, f := newTestRepo(t, &orm.TestExecutor[article]{})

	got, found, err := r.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found {
		t.Errorf("found = true, want false")
	}
	if got != (article{}) {
		t.Errorf("got = %+v, want zero value", got)
	}
	if f.Open() != 0 {
		t.Errorf("open connections = %d, want 0", f.Open())
	}
}

func TestRepositoryAdd(t *testing.T) {
	t.Parallel()

	exec := &orm.TestExecutor[article]{ScalarV: int64(11)}
	r, f := newTestRepo(t, exec)

	a := &article{Title: "t", Content: "c", CreatedAt: "2024-01-01"}
	if err := r.Add(context.Background(), a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.ID != 11 {
		t.Errorf("ID = %d, want 11", a.ID)
	}

	q := exec.LastQuery()
	want := "INSERT INTO article (title, content, created_at) VALUES (@Title, @Content, @CreatedAt) RETURNING id"
	if q.SQL != want {
		t.Errorf("SQL = %q, want %q", q.SQL, want)
	}
	if q.Args["Title"] != "t" || q.Args["Content"] != "c" || q.Args["CreatedAt"] != "2024-01-01" {
		t.Errorf("Args = %v", q.Args)
	}
	if _, ok := q.Args[orm.IDParam]; ok {
		t.Errorf("Args contains identity on insert: %v", q.Args)
	}
	if f.Open() != 0 {
		t.Errorf("open connections = %d, want 0", f.Open())
	}
}

func TestRepositoryAddNoGeneratedKey(t *testing.T) {
	t.Parallel()

	r, _ := newTestRepo(t, &orm.TestExecutor[article]{})

	a := &article{Title: "t"}
	err := r.Add(context.Background(), a)
	if !errors.Is(err, orm.ErrNoGeneratedKey) {
		t.Errorf("error = %v, want ErrNoGeneratedKey", err)
	}
	if a.ID != 0 {
		t.Errorf("ID = %d, want 0", a.ID)
	}
}

func TestRepositoryAddNil(t *testing.T) {
	t.Parallel()

	exec := &orm.TestExecutor[article]{}
	r, f := newTestRepo(t, exec)

	if err := r.Add(context.Background(), nil); !errors.Is(err, orm.ErrInvalidArgument) {
		t.Errorf("Add(nil) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := r.Update(context.Background(), nil); !errors.Is(err, orm.ErrInvalidArgument) {
		t.Errorf("Update(nil) error = %v, want ErrInvalidArgument", err)
	}
	if len(exec.Queries) != 0 || f.Opened != 0 {
		t.Errorf("nil entity reached the database: %d queries, %d connections", len(exec.Queries), f.Opened)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"row updated", 1, true},
		{"no such row", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exec := &orm.TestExecutor[article]{Affected: tt.affected}
			r, f := newTestRepo(t, exec)

			got, err := r.Update(context.Background(), &article{ID: 3, Title: "new"})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got != tt.want {
				t.Errorf("Update = %v, want %v", got, tt.want)
			}

			q := exec.LastQuery()
			want := "UPDATE article SET title = @Title, content = @Content, created_at = @CreatedAt WHERE id = @Id"
			if q.SQL != want {
				t.Errorf("SQL = %q, want %q", q.SQL, want)
			}
			if q.Args[orm.IDParam] != int64(3) || q.Args["Title"] != "new" {
				t.Errorf("Args = %v", q.Args)
			}
			if f.Open() != 0 {
				t.Errorf("open connections = %d, want 0", f.Open())
			}
		})
	}
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"row deleted", 1, true},
		{"no such row", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exec := &orm.TestExecutor[article]{Affected: tt.affected}
			r, _ := newTestRepo(t, exec)

			got, err := r.Delete(context.Background(), 9)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if got != tt.want {
				t.Errorf("Delete = %v, want %v", got, tt.want)
			}
			q := exec.LastQuery()
			if q.SQL != "DELETE FROM article WHERE id = @Id" || q.Args[orm.IDParam] != int64(9) {
				t.Errorf("query = %+v", q)
			}
		})
	}
}

func TestRepositoryExecutorErrorReleasesConnection(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	exec := &orm.TestExecutor[article]{Err: boom}
	r, f := newTestRepo(t, exec)
	ctx := context.Background()

	if _, err := r.GetAll(ctx); !errors.Is(err, boom) {
		t.Errorf("GetAll error = %v, want boom", err)
	}
	if _, _, err := r.GetByID(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("GetByID error = %v, want boom", err)
	}
	if err := r.Add(ctx, &article{}); !errors.Is(err, boom) {
		t.Errorf("Add error = %v, want boom", err)
	}
	if _, err := r.Update(ctx, &article{ID: 1}); !errors.Is(err, boom) {
		t.Errorf("Update error = %v, want boom", err)
	}
	if _, err := r.Delete(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("Delete error = %v, want boom", err)
	}
	if f.Opened != 5 || f.Open() != 0 {
		t.Errorf("opened %d, still open %d; want 5 and 0", f.Opened, f.Open())
	}
}

func TestRepositoryConnectError(t *testing.T) {
	t.Parallel()

	dial := errors.New("connection refused")
	f := &orm.TestFactory{Err: dial}
	exec := &orm.TestExecutor[article]{}
	b := newBuilder(t, orm.NewSnakeCaseAdapter(), articleEntity)
	r, err := orm.NewRepository(f, b, articleMapping(), orm.WithExecutor[int64, article](exec))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	//nolint:errorlint // the factory's error is returned as is
	if _, err := r.GetAll(context.Background()); err != dial {
		t.Errorf("error = %v, want %v unchanged", err, dial)
	}
	if len(exec.Queries) != 0 {
		t.Errorf("queries = %d, want 0", len(exec.Queries))
	}
}

type legacyNamed struct {
	ID   int64  `db:"id"`
	Body string `db:"body"`
}

func (legacyNamed) TableName() string { return "legacy_named" }

func legacyNamedMapping() orm.Mapping[int64, legacyNamed] {
	return orm.Mapping[int64, legacyNamed]{
		Entity: orm.Entity{
			Name:   "Legacy",
			ID:     orm.Field{Name: "ID", Column: "id"},
			Fields: []orm.Field{{Name: "Body"}},
		},
		Args:  func(v *legacyNamed) orm.Args { return orm.Args{"Body": v.Body} },
		ID:    func(v *legacyNamed) int64 { return v.ID },
		SetID: func(v *legacyNamed, id int64) { v.ID = id },
	}
}

func TestNewRepositoryTableNamer(t *testing.T) {
	t.Parallel()

	a := orm.NewSnakeCaseAdapter()
	exec := &orm.TestExecutor[legacyNamed]{}

	raw := legacyNamedMapping()
	stale, err := orm.NewPostgreSQLBuilder(a, &raw.Entity)
	if err != nil {
		t.Fatalf("NewPostgreSQLBuilder: %v", err)
	}
	_, err = orm.NewRepository(&orm.TestFactory{}, stale, raw, orm.WithExecutor[int64, legacyNamed](exec))
	if !errors.Is(err, orm.ErrInvalidArgument) {
		t.Fatalf("builder for %q: error = %v, want ErrInvalidArgument", stale.Table(), err)
	}

	m, err := orm.NewMapping(legacyNamedMapping())
	if err != nil {
		t.Fatalf("NewMapping: %v", err)
	}
	b, err := orm.NewPostgreSQLBuilder(a, &m.Entity)
	if err != nil {
		t.Fatalf("NewPostgreSQLBuilder: %v", err)
	}
	r, err := orm.NewRepository(&orm.TestFactory{}, b, m, orm.WithExecutor[int64, legacyNamed](exec))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if _, err := r.GetAll(context.Background()); err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if q := exec.LastQuery(); q.SQL != "SELECT * FROM legacy_named" {
		t.Errorf("SQL = %q, want %q", q.SQL, "SELECT * FROM legacy_named")
	}
}

func TestNewRepositoryHandsColumnsToExecutor(t *testing.T) {
	t.Parallel()

	e := articleEntity
	e.Fields = []orm.Field{{Name: "Title", Column: "headline"}, {Name: "Content"}, {Name: "CreatedAt"}}
	m := articleMapping()
	m.Entity = e

	exec := &orm.TestExecutor[article]{}
	b := newBuilder(t, orm.NewSnakeCaseAdapter(), e)
	if _, err := orm.NewRepository(&orm.TestFactory{}, b, m, orm.WithExecutor[int64, article](exec)); err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	want := map[string]string{"Id": "id", "Title": "headline", "Content": "content", "CreatedAt": "created_at"}
	if len(exec.Columns) != len(want) {
		t.Fatalf("Columns = %v, want %v", exec.Columns, want)
	}
	for field, col := range want {
		if exec.Columns[field] != col {
			t.Errorf("Columns[%q] = %q, want %q", field, exec.Columns[field], col)
		}
	}
}

func TestRepositoryLogsStatements(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	exec := &orm.TestExecutor[article]{Affected: 1}
	b := newBuilder(t, orm.NewSnakeCaseAdapter(), articleEntity)
	r, err := orm.NewRepository(&orm.TestFactory{}, b, articleMapping(),
		orm.WithExecutor[int64, article](exec),
		orm.WithLogger[int64, article](zap.New(core)),
	)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	if _, err := r.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	entries := logs.FilterMessage("statement executed").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["op"] != "delete" || ctx["entity"] != "Article" || ctx["sql"] != "DELETE FROM article WHERE id = @Id" {
		t.Errorf("log context = %v", ctx)
	}
}

func TestNewRepositoryRejectsNil(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, orm.NewSnakeCaseAdapter(), articleEntity)
	if _, err := orm.NewRepository[int64, article](nil, b, articleMapping()); !errors.Is(err, orm.ErrInvalidArgument) {
		t.Errorf("nil factory error = %v, want ErrInvalidArgument", err)
	}
	if _, err := orm.NewRepository[int64, article](&orm.TestFactory{}, nil, articleMapping()); !errors.Is(err, orm.ErrInvalidArgument) {
		t.Errorf("nil builder error = %v, want ErrInvalidArgument", err)
	}
}

func TestNewRepositoryUnknownFactory(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, orm.NewSnakeCaseAdapter(), articleEntity)
	_, err := orm.NewRepository(&orm.TestFactory{}, b, articleMapping())
	if !errors.Is(err, orm.ErrConnMismatch) {
		t.Errorf("error = %v, want ErrConnMismatch", err)
	}
}
