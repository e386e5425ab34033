package trivia

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout = 5 * time.Second

	pgForeignKeyViolation = "23503"

	questionColumns = `id, question, answer, category, difficulty`
)

// Schema is the DDL for the question bank. Every statement is idempotent.
//
//go:embed schema.sql
var Schema string

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed question store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, type FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Category])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int) (Category, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if !fitsInt4(id) {
		return Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}

	var c Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, type FROM categories WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a category, returning the existing row if the type is taken.
func (s *PostgresStore) CreateCategory(ctx context.Context, categoryType string) (Category, error) {
	if strings.TrimSpace(categoryType) == "" {
		return Category{}, fmt.Errorf("%w: category type is required", ErrInvalid)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c := Category{Type: categoryType}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (type) VALUES ($1)
		 ON CONFLICT (type) DO UPDATE SET type = EXCLUDED.type
		 RETURNING id`,
		categoryType,
	).Scan(&c.ID)
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, offset, limit int) ([]Question, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset %d, limit %d", ErrInvalid, offset, limit)
	}
	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

func (s *PostgresStore) CountQuestions(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id int) (Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if !fitsInt4(id) {
		return Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}

	var q Question
	err := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) SearchQuestions(ctx context.Context, term string) ([]Question, error) {
	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE question ILIKE $1 ESCAPE '\'
		 ORDER BY id`,
		"%"+escapeLike(term)+"%",
	)
}

func (s *PostgresStore) QuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error) {
	if !fitsInt4(categoryID) {
		return []Question{}, nil
	}
	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE category = $1 ORDER BY id`,
		categoryID,
	)
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	if !fitsInt4(q.Category) {
		return Question{}, fmt.Errorf("category %d: %w", q.Category, ErrNotFound)
	}
	if !fitsInt4(q.Difficulty) {
		return Question{}, fmt.Errorf("%w: difficulty %d", ErrInvalid, q.Difficulty)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (question, answer, category, difficulty)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		q.Question,
		q.Answer,
		q.Category,
		q.Difficulty,
	).Scan(&q.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return Question{}, fmt.Errorf("category %d: %w", q.Category, ErrNotFound)
		}
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id int) error {
	if !fitsInt4(id) {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) QuizCandidates(ctx context.Context, categoryID int, exclude []int) ([]Question, error) {
	if !fitsInt4(categoryID) {
		return []Question{}, nil
	}
	// Out-of-range ids match no row. The slice is never nil: NULL would
	// make NOT (id = ANY(NULL)) filter every row.
	ids := make([]int, 0, len(exclude))
	for _, id := range exclude {
		if fitsInt4(id) {
			ids = append(ids, id)
		}
	}
	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE ($1::int = 0 OR category = $1::int)
		   AND NOT (id = ANY($2::int[]))
		 ORDER BY id`,
		categoryID,
		ids,
	)
}

func (s *PostgresStore) queryQuestions(ctx context.Context, query string, args ...any) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	questions, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Question])
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	return questions, nil
}

// fitsInt4 reports whether v can be bound to an INTEGER column. Larger ids
// cannot exist in the table, and pgx refuses to encode them.
func fitsInt4(v int) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// escapeLike makes LIKE metacharacters in term match literally.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
