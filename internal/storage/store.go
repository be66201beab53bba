// Package storage is the relational gateway for comics and postings. Every
// statement is parameterized and runs on the single connection owned by
// pkg/database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/logger"
)

const comicColumns = `num, title, safe_title, transcript, alt, img, link, news, year, month, day`

// Store implements the storage gateway on top of a database.Client.
type Store struct {
	db     *database.Client
	logger *slog.Logger
}

// Stats summarises what is currently persisted.
type Stats struct {
	Comics        int
	IndexedComics int
	Postings      int
	Terms         int
}

func New(db *database.Client, log *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.OrComponent(log, "storage"),
	}
}

// EnsureSchema creates the comics and postings tables if they are missing.
// Any failure wraps ErrSchema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(apperrors.ErrSchema, "ensure schema", err)
		}
	}
	s.logger.Info("schema ready", "dialect", s.db.Dialect())
	return nil
}

// KnownIDs returns the set of comic numbers already persisted.
func (s *Store) KnownIDs(ctx context.Context) (comic.IDSet, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT DISTINCT num FROM comics`)
	if err != nil {
		return nil, fmt.Errorf("querying known comics: %w", err)
	}
	defer rows.Close()

	ids := comic.NewIDSet()
	for rows.Next() {
		var num int
		if err := rows.Scan(&num); err != nil {
			return nil, fmt.Errorf("scanning comic num: %w", err)
		}
		ids.Add(num)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating known comics: %w", err)
	}
	return ids, nil
}

// InsertComic persists c. A duplicate number wraps ErrComicExists; every
// other failure wraps ErrPersistence.
func (s *Store) InsertComic(ctx context.Context, c comic.Comic) error {
	_, err := s.db.DB.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO comics (`+comicColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.Num, c.Title, c.SafeTitle, c.Transcript, c.Alt, c.Img, c.Link, c.News, c.Year, c.Month, c.Day,
	)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperrors.Wrap(apperrors.ErrComicExists, fmt.Sprintf("insert comic %d", c.Num), err)
	}
	return apperrors.Wrap(apperrors.ErrPersistence, fmt.Sprintf("insert comic %d", c.Num), err)
}

// ComicsWithoutPostings returns every comic that has no posting yet, in
// ascending number order.
func (s *Store) ComicsWithoutPostings(ctx context.Context) ([]comic.Comic, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT `+comicColumns+` FROM comics c
		WHERE NOT EXISTS (SELECT 1 FROM postings p WHERE p.comic_num = c.num)
		ORDER BY c.num`)
	if err != nil {
		return nil, fmt.Errorf("querying unindexed comics: %w", err)
	}
	defer rows.Close()

	var comics []comic.Comic
	for rows.Next() {
		var c comic.Comic
		if err := rows.Scan(&c.Num, &c.Title, &c.SafeTitle, &c.Transcript, &c.Alt,
			&c.Img, &c.Link, &c.News, &c.Year, &c.Month, &c.Day); err != nil {
			return nil, fmt.Errorf("scanning comic: %w", err)
		}
		comics = append(comics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unindexed comics: %w", err)
	}
	return comics, nil
}

// InsertPostings writes one posting per term for comic num in a single
// transaction. Either every posting is stored or none is.
func (s *Store) InsertPostings(ctx context.Context, num int, terms index.TermFrequencies) error {
	postings := terms.Postings(num)
	if len(postings) == 0 {
		return apperrors.Newf(apperrors.ErrEmptyTermSet, "insert postings", "comic %d", num)
	}
	op := fmt.Sprintf("insert postings for comic %d", num)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.db.Rebind(
			`INSERT INTO postings (comic_num, term, frequency) VALUES (?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("preparing posting insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range postings {
			if _, err := stmt.ExecContext(ctx, p.ComicNum, p.Term, p.Frequency); err != nil {
				return fmt.Errorf("inserting term %q: %w", p.Term, err)
			}
		}
		return nil
	})
	return apperrors.Wrap(apperrors.ErrPersistence, op, err)
}

// Postings returns the stored postings of comic num ordered by term.
func (s *Store) Postings(ctx context.Context, num int) (index.PostingList, error) {
	rows, err := s.db.DB.QueryContext(ctx, s.db.Rebind(
		`SELECT comic_num, term, frequency FROM postings WHERE comic_num = ? ORDER BY term`), num)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var list index.PostingList
	for rows.Next() {
		var p index.Posting
		if err := rows.Scan(&p.ComicNum, &p.Term, &p.Frequency); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating postings: %w", err)
	}
	return list, nil
}

// Stats counts comics, indexed comics, postings and distinct terms.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.DB.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM comics),
		(SELECT COUNT(DISTINCT comic_num) FROM postings),
		(SELECT COUNT(*) FROM postings),
		(SELECT COUNT(DISTINCT term) FROM postings)`).
		Scan(&st.Comics, &st.IndexedComics, &st.Postings, &st.Terms)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return st, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
