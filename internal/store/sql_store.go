package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/model"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

const postColumns = "id, title, slug, excerpt, content, cover_image, author, published, created_at, updated_at"

// SQLStore keeps posts in PostgreSQL or SQLite. Queries are written with '?'
// placeholders and rebound for the configured driver.
type SQLStore struct {
	db     *sqlx.DB
	config *folio.SQLConfig
	clock  Clock
}

func NewSQLStore(config *folio.SQLConfig, opts ...Option) (*SQLStore, error) {
	switch config.Driver {
	case folio.DriverPostgres, folio.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", config.Driver)
	}

	db, err := config.Connect()
	if err != nil {
		return nil, unavailable("connect", err)
	}

	o := buildOptions(opts)
	return &SQLStore{db: db, config: config, clock: o.clock}, nil
}

func (s *SQLStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// EnsureSchema applies the embedded migrations for the configured driver.
// The migrator gets its own handle because closing it closes the database.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations/"+s.config.Driver)
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}

	db, err := sql.Open(s.config.Driver, s.config.BuildDSN())
	if err != nil {
		return unavailable("ensure schema", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return unavailable("ensure schema", err)
	}

	var driver database.Driver
	switch s.config.Driver {
	case folio.DriverPostgres:
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	case folio.DriverSQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		db.Close()
		return unavailable("ensure schema", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.config.Driver, driver)
	if err != nil {
		db.Close()
		return unavailable("ensure schema", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return unavailable("ensure schema", err)
	}

	log.Printf("applied %s migrations", s.config.Driver)
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	query := s.db.Rebind("SELECT " + postColumns + " FROM posts ORDER BY created_at DESC, id DESC")
	if err := s.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, s.classify("list posts", err)
	}
	return posts, nil
}

func (s *SQLStore) ListPublished(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	query := s.db.Rebind("SELECT " + postColumns + " FROM posts WHERE published = ? ORDER BY created_at DESC, id DESC")
	if err := s.db.SelectContext(ctx, &posts, query, true); err != nil {
		return nil, s.classify("list published posts", err)
	}
	return posts, nil
}

func (s *SQLStore) GetByID(ctx context.Context, id int64) (model.Post, error) {
	return s.getByID(ctx, s.db, id)
}

func (s *SQLStore) getByID(ctx context.Context, q sqlx.QueryerContext, id int64) (model.Post, error) {
	var post model.Post
	query := s.db.Rebind("SELECT " + postColumns + " FROM posts WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &post, query, id); err != nil {
		return model.Post{}, s.classify("get post", err)
	}
	return post, nil
}

func (s *SQLStore) GetPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	var post model.Post
	query := s.db.Rebind("SELECT " + postColumns + " FROM posts WHERE slug = ? AND published = ?")
	if err := s.db.GetContext(ctx, &post, query, slug, true); err != nil {
		return model.Post{}, s.classify("get post by slug", err)
	}
	return post, nil
}

func (s *SQLStore) Create(ctx context.Context, in model.PostInput) (model.Post, error) {
	in, err := validate(in)
	if err != nil {
		return model.Post{}, err
	}

	var post model.Post
	err = s.inTx(ctx, "create post", func(tx *sqlx.Tx) error {
		now := s.now()
		query := tx.Rebind(`INSERT INTO posts (title, slug, excerpt, content, cover_image, author, published, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

		var id int64
		err := tx.QueryRowxContext(ctx, query,
			in.Title, in.Slug, in.Excerpt, in.Content, in.CoverImage, in.Author, in.Published, now, now,
		).Scan(&id)
		if err != nil {
			return err
		}

		post, err = s.getByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *SQLStore) Update(ctx context.Context, id int64, in model.PostInput) (model.Post, error) {
	in, err := validate(in)
	if err != nil {
		return model.Post{}, err
	}

	var post model.Post
	err = s.inTx(ctx, "update post", func(tx *sqlx.Tx) error {
		query := tx.Rebind(`UPDATE posts
			SET title = ?, slug = ?, excerpt = ?, content = ?, cover_image = ?, author = ?, published = ?, updated_at = ?
			WHERE id = ? RETURNING id`)

		var updated int64
		err := tx.QueryRowxContext(ctx, query,
			in.Title, in.Slug, in.Excerpt, in.Content, in.CoverImage, in.Author, in.Published, s.now(), id,
		).Scan(&updated)
		if err != nil {
			return err
		}

		post, err = s.getByID(ctx, tx, updated)
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return s.classify("delete post", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return s.classify("delete post", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Stats(ctx context.Context) (model.PostStats, error) {
	var stats model.PostStats
	query := s.db.Rebind(`SELECT COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN published = ? THEN 1 ELSE 0 END), 0) AS published
		FROM posts`)
	if err := s.db.GetContext(ctx, &stats, query, true); err != nil {
		return model.PostStats{}, s.classify("count posts", err)
	}
	stats.Drafts = stats.Total - stats.Published
	return stats, nil
}

func (s *SQLStore) PublishDrafts(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.inTx(ctx, "publish drafts", func(tx *sqlx.Tx) error {
		var ids []int64
		update := tx.Rebind("UPDATE posts SET published = ?, updated_at = ? WHERE published = ? RETURNING id")
		if err := tx.SelectContext(ctx, &ids, update, true, s.now(), false); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		query, args, err := sqlx.In("SELECT "+postColumns+" FROM posts WHERE id IN (?) ORDER BY created_at DESC, id DESC", ids)
		if err != nil {
			return err
		}
		return tx.SelectContext(ctx, &posts, tx.Rebind(query), args...)
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *SQLStore) Describe(ctx context.Context) (Backend, error) {
	backend := Backend{Engine: s.config.Driver, Posts: "posts"}

	versionQuery := "SELECT version()"
	existsQuery := "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'posts')"
	if s.config.Driver == folio.DriverSQLite {
		versionQuery = "SELECT 'SQLite ' || sqlite_version()"
		existsQuery = "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'posts')"
	}

	if err := s.db.GetContext(ctx, &backend.Version, versionQuery); err != nil {
		return Backend{}, s.classify("read server version", err)
	}
	// "PostgreSQL 16.2 on x86_64-pc-linux-gnu, compiled by ..."
	backend.Version = strings.TrimSpace(strings.SplitN(backend.Version, ",", 2)[0])

	if err := s.db.GetContext(ctx, &backend.PostsReady, existsQuery); err != nil {
		return Backend{}, s.classify("check posts table", err)
	}
	return backend, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.classify(op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return s.classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return s.classify(op, err)
	}
	return nil
}

// classify maps driver errors onto the package's error taxonomy.
func (s *SQLStore) classify(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUniqueConstraint) || IsValidation(err) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrUniqueConstraint
		case "23502", "23514", "22001":
			return &ValidationError{Fields: columnOf(pqErr.Column), Reason: pqErr.Message}
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			return ErrUniqueConstraint
		case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
			return &ValidationError{Reason: liteErr.Error()}
		}
	}

	return unavailable(op, err)
}

func columnOf(column string) []string {
	if column == "" {
		return nil
	}
	return []string{column}
}
