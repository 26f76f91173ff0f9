package metadata

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/filesvc/pkg/pg"
)

// Migrations holds the goose migrations for the files table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

const recordColumns = `id, owner_id, channel_id, thread_id, message_id, filename, mime_type,
	size, hash_sha256, bucket, object_key, version, reused_from, created_at, deleted_at`

// PostgresStore implements Store on PostgreSQL via pgx.
type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	const q = `INSERT INTO files (id, owner_id, channel_id, thread_id, message_id, filename, mime_type,
		size, hash_sha256, bucket, object_key, version, reused_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`

	err := s.db.QueryRow(ctx, q,
		rec.ID, rec.OwnerID, rec.ChannelID, nullable(rec.ThreadID), nullable(rec.MessageID),
		rec.Filename, rec.MIMEType, rec.Size, rec.SHA256, rec.Bucket, rec.ObjectKey,
		rec.Version, nullableUUID(rec.ReusedFrom),
	).Scan(&rec.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pg.ConstraintName(err))
		}
		return errors.Join(ErrQuery, fmt.Errorf("insert file: %w", err))
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1 AND deleted_at IS NULL`, recordColumns)
	return s.one(ctx, q, id)
}

func (s *PostgresStore) FindByMessageAndHash(ctx context.Context, messageID, sha256 string) (*Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM files
		WHERE message_id = $1 AND hash_sha256 = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT 1`, recordColumns)
	return s.one(ctx, q, messageID, sha256)
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*Record, error) {
	f, err := f.validate()
	if err != nil {
		return nil, err
	}

	where := []string{"deleted_at IS NULL"}
	var args []any
	if f.MessageID != "" {
		args = append(args, f.MessageID)
		where = append(where, fmt.Sprintf("message_id = $%d", len(args)))
	}
	if f.ThreadID != "" {
		args = append(args, f.ThreadID)
		where = append(where, fmt.Sprintf("thread_id = $%d", len(args)))
	}
	args = append(args, f.Limit)

	q := fmt.Sprintf(`SELECT %s FROM files WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		recordColumns, strings.Join(where, " AND "), len(args))

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Join(ErrQuery, fmt.Errorf("list files: %w", err))
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Join(ErrQuery, fmt.Errorf("scan file: %w", err))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, fmt.Errorf("iterate files: %w", err))
	}
	return out, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE files SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return errors.Join(ErrQuery, fmt.Errorf("soft delete file: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UsageByOwner(ctx context.Context, ownerID string) (int64, error) {
	var usage int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(size), 0)::BIGINT FROM files WHERE owner_id = $1 AND deleted_at IS NULL`,
		ownerID,
	).Scan(&usage)
	if err != nil {
		return 0, errors.Join(ErrQuery, fmt.Errorf("sum usage: %w", err))
	}
	return usage, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if p, ok := s.db.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return errors.Join(ErrQuery, err)
		}
		return nil
	}
	_, err := s.db.Exec(ctx, "SELECT 1")
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

func (s *PostgresStore) one(ctx context.Context, q string, args ...any) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, q, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrQuery, err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec                 Record
		threadID, messageID *string
		reusedFrom          *uuid.UUID
	)
	if err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.ChannelID, &threadID, &messageID, &rec.Filename, &rec.MIMEType,
		&rec.Size, &rec.SHA256, &rec.Bucket, &rec.ObjectKey, &rec.Version, &reusedFrom,
		&rec.CreatedAt, &rec.DeletedAt,
	); err != nil {
		return nil, err
	}
	if threadID != nil {
		rec.ThreadID = *threadID
	}
	if messageID != nil {
		rec.MessageID = *messageID
	}
	if reusedFrom != nil {
		rec.ReusedFrom = *reusedFrom
	}
	return &rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
