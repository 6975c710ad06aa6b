// Package content reads content items from the platform's content database.
// The store is read-only; it never writes content rows.
package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type SQLStore struct {
	db       *sql.DB
	postgres bool
	table    string
}

var _ domain.IContentStore = (*SQLStore)(nil)

// Open connects to the content database. driver is "postgres" or "sqlite3".
func Open(driver, dsn, table string) (*SQLStore, error) {
	driver = normalizeDriver(driver)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open content database: %w", err)
	}
	store, err := NewSQLStore(db, driver, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an existing connection.
func NewSQLStore(db *sql.DB, driver, table string) (*SQLStore, error) {
	if table == "" {
		table = "contents"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid content table name %q", table)
	}
	return &SQLStore{db: db, postgres: normalizeDriver(driver) == "postgres", table: table}, nil
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return "postgres"
	}
	return "sqlite3"
}

// EnsureSchema creates the content table on sqlite. Postgres deployments own
// their schema and are left untouched.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if s.postgres {
		return nil
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT,
			description TEXT,
			media_refs TEXT,
			tags TEXT
		);
	`, s.table))
	return err
}

func (s *SQLStore) GetContent(ctx context.Context, id string) (domain.Content, error) {
	var (
		c           domain.Content
		title, desc sql.NullString
		err         error
	)
	if s.postgres {
		query := fmt.Sprintf(`SELECT id, user_id, title, description, media_refs, tags FROM %s WHERE id = $1`, s.table)
		err = s.db.QueryRowContext(ctx, query, id).Scan(
			&c.ID, &c.UserID, &title, &desc, pq.Array(&c.MediaRefs), pq.Array(&c.Tags),
		)
	} else {
		var media, tags sql.NullString
		query := fmt.Sprintf(`SELECT id, user_id, title, description, media_refs, tags FROM %s WHERE id = ?`, s.table)
		err = s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.UserID, &title, &desc, &media, &tags)
		if err == nil {
			c.MediaRefs = decodeList(media.String)
			c.Tags = decodeList(tags.String)
		}
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Content{}, fmt.Errorf("%w: %s", domain.ErrContentMissing, id)
		}
		logrus.WithError(err).WithField("content_id", id).Error("[CONTENT] Lookup failed")
		return domain.Content{}, fmt.Errorf("content lookup %s: %w", id, err)
	}
	c.Title = title.String
	c.Description = desc.String
	return c, nil
}

// decodeList accepts a JSON array or a comma separated list.
func decodeList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out
		}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
