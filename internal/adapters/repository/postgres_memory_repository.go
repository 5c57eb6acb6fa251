package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

var (
	_ domain.MemoryRepository = (*PostgresMemoryRepository)(nil)
	_ domain.PersonRepository = (*PostgresPersonRepository)(nil)
)

type PostgresMemoryRepository struct {
	db *sqlx.DB
}

func NewPostgresMemoryRepository(db *sqlx.DB) *PostgresMemoryRepository {
	return &PostgresMemoryRepository{db: db}
}

type memoryRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Content    string         `db:"content"`
	Type       string         `db:"type"`
	MemoryDate time.Time      `db:"memory_date"`
	ImageRef   *string        `db:"image_ref"`
	PersonIDs  pq.StringArray `db:"person_ids"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (row memoryRow) toDomain() *domain.Memory {
	m := &domain.Memory{
		ID:         row.ID,
		UserID:     row.UserID,
		Content:    row.Content,
		Type:       row.Type,
		MemoryDate: row.MemoryDate,
		PersonIDs:  []string(row.PersonIDs),
		CreatedAt:  row.CreatedAt,
	}
	if row.ImageRef != nil {
		m.ImageRef = *row.ImageRef
	}
	return m
}

// memorySelect aggregates linked person ids from the join table.
const memorySelect = `
	SELECT m.id, m.user_id, m.content, m.type, m.memory_date, m.image_ref, m.created_at,
		COALESCE(array_agg(mp.person_id) FILTER (WHERE mp.person_id IS NOT NULL), '{}') AS person_ids
	FROM memories m
	LEFT JOIN memory_people mp ON mp.memory_id = m.id`

func (r *PostgresMemoryRepository) Create(ctx context.Context, memory *domain.Memory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin memory tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var imageRef *string
	if memory.ImageRef != "" {
		imageRef = &memory.ImageRef
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, content, type, memory_date, image_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		memory.ID, memory.UserID, memory.Content, memory.Type, memory.MemoryDate, imageRef, memory.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}

	var linked []string
	if len(memory.PersonIDs) > 0 {
		// Only people owned by the same user are linked.
		err = tx.SelectContext(ctx, &linked, `
			INSERT INTO memory_people (memory_id, person_id)
			SELECT $1, p.id FROM people p
			WHERE p.user_id = $2 AND p.id = ANY($3)
			ON CONFLICT DO NOTHING
			RETURNING person_id`,
			memory.ID, memory.UserID, pq.Array(memory.PersonIDs),
		)
		if err != nil {
			return fmt.Errorf("failed to link people: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	memory.PersonIDs = linked
	return nil
}

func (r *PostgresMemoryRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Memory, error) {
	query := memorySelect + `
	WHERE m.user_id = $1
	GROUP BY m.id
	ORDER BY m.memory_date DESC`

	var rows []memoryRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return toMemories(rows), nil
}

func (r *PostgresMemoryRepository) Search(ctx context.Context, userID, query string, limit int) ([]*domain.Memory, error) {
	q := memorySelect + `
	WHERE m.user_id = $1 AND m.content ILIKE $2
	GROUP BY m.id
	ORDER BY m.memory_date DESC
	LIMIT $3`

	var rows []memoryRow
	if err := r.db.SelectContext(ctx, &rows, q, userID, likePattern(query), limit); err != nil {
		return nil, fmt.Errorf("search error: %w", err)
	}

	return toMemories(rows), nil
}

func toMemories(rows []memoryRow) []*domain.Memory {
	out := make([]*domain.Memory, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

type PostgresPersonRepository struct {
	db *sqlx.DB
}

func NewPostgresPersonRepository(db *sqlx.DB) *PostgresPersonRepository {
	return &PostgresPersonRepository{db: db}
}

const personSelect = `
	SELECT p.id, p.user_id, p.name, p.relationship, p.avatar, p.created_at,
		COUNT(mp.memory_id) AS memory_count
	FROM people p
	LEFT JOIN memory_people mp ON mp.person_id = p.id`

func (r *PostgresPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	query := `
		INSERT INTO people (id, user_id, name, relationship, avatar, created_at)
		VALUES (:id, :user_id, :name, :relationship, :avatar, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

func (r *PostgresPersonRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Person, error) {
	query := personSelect + `
	WHERE p.user_id = $1
	GROUP BY p.id
	ORDER BY p.name ASC`

	people := []*domain.Person{}
	if err := r.db.SelectContext(ctx, &people, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return people, nil
}

func (r *PostgresPersonRepository) Search(ctx context.Context, userID, query string, limit int) ([]*domain.Person, error) {
	q := personSelect + `
	WHERE p.user_id = $1 AND p.name ILIKE $2
	GROUP BY p.id
	ORDER BY p.name ASC
	LIMIT $3`

	people := []*domain.Person{}
	if err := r.db.SelectContext(ctx, &people, q, userID, likePattern(query), limit); err != nil {
		return nil, fmt.Errorf("search error: %w", err)
	}
	return people, nil
}
