package main

import (
	"flag"
	"path/filepath"
	"sort"

	"goldtrader/internal/config"
	"goldtrader/internal/db"
	"goldtrader/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.sql migration files")
	down := flag.Bool("down", false, "roll back every applied migration in reverse order")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(logger.Options{Development: cfg.IsDevelopment(), Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.Fatal("failed to ensure schema_migrations", zap.Error(err))
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.Fatal("failed to read migrations", zap.Error(err))
	}
	sort.Strings(files)

	if *down {
		rollback(log, database, files)
		return
	}
	for _, file := range files {
		filename := filepath.Base(file)
		var exists bool
		if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.Fatal("failed to read migration state", zap.Error(err))
		}
		if exists {
			continue
		}
		up, _, err := readFile(file)
		if err != nil {
			log.Fatal("failed to read migration", zap.String("file", filename), zap.Error(err))
		}
		if err := apply(database, up, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			log.Fatal("failed to apply migration", zap.String("file", filename), zap.Error(err))
		}
		log.Info("applied migration", zap.String("file", filename))
	}
}

func rollback(log *zap.Logger, database *sqlx.DB, files []string) {
	for i := len(files) - 1; i >= 0; i-- {
		filename := filepath.Base(files[i])
		var exists bool
		if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.Fatal("failed to read migration state", zap.Error(err))
		}
		if !exists {
			continue
		}
		_, downSQL, err := readFile(files[i])
		if err != nil {
			log.Fatal("failed to read migration", zap.String("file", filename), zap.Error(err))
		}
		if err := apply(database, downSQL, `DELETE FROM schema_migrations WHERE filename = $1`, filename); err != nil {
			log.Fatal("failed to roll back migration", zap.String("file", filename), zap.Error(err))
		}
		log.Info("rolled back migration", zap.String("file", filename))
	}
}

// apply runs statements and the bookkeeping query in one transaction.
func apply(database *sqlx.DB, statements []string, bookkeeping, filename string) error {
	tx, err := database.Beginx()
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(bookkeeping, filename); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
