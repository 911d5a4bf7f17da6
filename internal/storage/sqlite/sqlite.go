package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"realtime-rank/internal/domain/models"
)

// Storage holds the scored-article audit table of the latest cycle.
type Storage struct {
	db  *sql.DB
	loc *time.Location
}

// New opens the audit database. Publish times are read back in loc (UTC when nil).
func New(path string, loc *time.Location) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	if loc == nil {
		loc = time.UTC
	}

	s := &Storage{db: db, loc: loc}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	// article_scores was keyed by article id, which collapsed repeated ranking items.
	_, err := s.db.Exec(`
	DROP TABLE IF EXISTS article_scores;
	CREATE TABLE IF NOT EXISTS scored_articles (
		source_rank INTEGER PRIMARY KEY,
		article_id TEXT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		published_at INTEGER,
		score REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scored_articles_score ON scored_articles(score DESC);
	`)
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ReplaceScoredArticles swaps the whole table for the given rows in one transaction.
func (s *Storage) ReplaceScoredArticles(ctx context.Context, rows []models.ScoredArticle) (err error) {
	const op = "storage.sqlite.ReplaceScoredArticles"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scored_articles`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scored_articles (source_rank, article_id, title, link, published_at, score)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var published sql.NullInt64
		if r.PublishTime != nil {
			published = sql.NullInt64{Int64: r.PublishTime.Unix(), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, r.SourceRank, r.ID, r.Title, r.Link, published, round2(r.Score)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ScoredArticles reads the table back, highest score first.
func (s *Storage) ScoredArticles(ctx context.Context) ([]models.ScoredArticle, error) {
	const op = "storage.sqlite.ScoredArticles"

	rows, err := s.db.QueryContext(ctx, `
		SELECT article_id, title, link, source_rank, published_at, score
		FROM scored_articles
		ORDER BY score DESC, source_rank ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.ScoredArticle
	for rows.Next() {
		var (
			a         models.ScoredArticle
			published sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.SourceRank, &published, &a.Score); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if published.Valid {
			t := time.Unix(published.Int64, 0).In(s.loc)
			a.PublishTime = &t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
