package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no note has the requested id
var ErrNotFound = errors.New("note not found")

// Note is a single personal note
type Note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Body      string    `bun:"body,notnull,default:''" json:"body"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Store persists notes through bun
type Store struct {
	db  *bun.DB
	now func() time.Time
}

// NewStore creates a note store
func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the notes table if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Note)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create notes table: %w", err)
	}
	return nil
}

// List returns notes ordered by id
func (s *Store) List(ctx context.Context, limit, offset int) ([]Note, error) {
	notes := make([]Note, 0)
	err := s.db.NewSelect().
		Model(&notes).
		OrderExpr("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Get returns a note by id
func (s *Store) Get(ctx context.Context, id int64) (*Note, error) {
	note := new(Note)
	err := s.db.NewSelect().Model(note).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return note, nil
}

// Create inserts a note and fills its id and timestamps
func (s *Store) Create(ctx context.Context, note *Note) error {
	now := s.now()
	note.CreatedAt, note.UpdatedAt = now, now

	if _, err := s.db.NewInsert().Model(note).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// Update replaces a note's title and body
func (s *Store) Update(ctx context.Context, note *Note) error {
	note.UpdatedAt = s.now()

	res, err := s.db.NewUpdate().
		Model(note).
		Column("title", "body", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update note %d: %w", note.ID, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a note by id
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*Note)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
