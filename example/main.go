package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/untout/persistence/config"
	"github.com/untout/persistence/example/model"
	"github.com/untout/persistence/example/repo"
	"github.com/untout/persistence/orm"
)

var createTableSQLite = `CREATE TABLE articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
)`

var createTablePostgreSQL = `CREATE TABLE articles (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

var createTableMariaDB = `CREATE TABLE articles (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
)`

func main() {
	configPath := flag.String("config", "", "persist.yaml to load (defaults to a temporary SQLite database)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := createTable(ctx, cfg); err != nil {
		log.Fatalf("create table: %v", err)
	}
	fmt.Println("Table 'articles' created.")

	articles, closeStore, err := repo.NewArticleStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	// INSERT
	fmt.Println("\n--- INSERT ---")
	now := time.Now().UTC().Truncate(time.Second)
	hello := &model.Article{Title: "Hello", Content: "First post", CreatedAt: now}
	if err := articles.Add(ctx, hello); err != nil {
		log.Fatalf("add hello: %v", err)
	}
	fmt.Printf("Added: %+v\n", *hello)

	again := &model.Article{Title: "Again", Content: "Second post", CreatedAt: now}
	if err := articles.Add(ctx, again); err != nil {
		log.Fatalf("add again: %v", err)
	}
	fmt.Printf("Added: %+v\n", *again)

	// SELECT (all)
	fmt.Println("\n--- SELECT ALL ---")
	all, err := articles.GetAll(ctx)
	if err != nil {
		log.Fatalf("get all: %v", err)
	}
	for _, a := range all {
		fmt.Printf("  %+v\n", a)
	}

	// SELECT (by ID)
	fmt.Println("\n--- SELECT BY ID ---")
	article, found, err := articles.GetByID(ctx, hello.Id)
	if err != nil {
		log.Fatalf("get by ID: %v", err)
	}
	fmt.Printf("Found (%v): %+v\n", found, article)

	// UPDATE
	fmt.Println("\n--- UPDATE ---")
	hello.Title = "Hello, again"
	ok, err := articles.Update(ctx, hello)
	if err != nil {
		log.Fatalf("update hello: %v", err)
	}
	fmt.Printf("Updated: %v\n", ok)

	// DELETE
	fmt.Println("\n--- DELETE ---")
	ok, err = articles.Delete(ctx, again.Id)
	if err != nil {
		log.Fatalf("delete again: %v", err)
	}
	fmt.Printf("Deleted article with ID=%d: %v\n", again.Id, ok)

	_, found, err = articles.GetByID(ctx, again.Id)
	if err != nil {
		log.Fatalf("get deleted: %v", err)
	}
	fmt.Printf("Lookup after delete found a row: %v\n", found)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	dir, err := os.MkdirTemp("", "persistence-example")
	if err != nil {
		return nil, err
	}
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "articles.db")},
		Naming:   config.NamingConfig{Style: "snake_case"},
		Cache:    config.CacheConfig{TTL: time.Minute},
		Logging:  config.LoggingConfig{Level: "debug", Development: true},
	}
	return cfg, cfg.Validate()
}

func createTable(ctx context.Context, cfg *config.Config) error {
	ddl := createTablePostgreSQL
	switch cfg.Database.Driver {
	case "sqlite":
		ddl = createTableSQLite
	case "mysql":
		ddl = createTableMariaDB
	}

	f, err := cfg.OpenFactory(ctx)
	if err != nil {
		return err
	}
	switch f := f.(type) {
	case *orm.SQLFactory:
		defer f.Close()
		if _, err := f.DB().ExecContext(ctx, "DROP TABLE IF EXISTS articles"); err != nil {
			return err
		}
		_, err = f.DB().ExecContext(ctx, ddl)
		return err
	case *orm.PgxFactory:
		defer f.Close()
		if _, err := f.Pool().Exec(ctx, "DROP TABLE IF EXISTS articles"); err != nil {
			return err
		}
		_, err = f.Pool().Exec(ctx, ddl)
		return err
	default:
		return fmt.Errorf("unsupported factory %T", f)
	}
}
