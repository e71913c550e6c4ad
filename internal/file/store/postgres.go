package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"filetrack/internal/file/models"
	id "filetrack/pkg/domain"
	"filetrack/pkg/platform/sentinel"
	"filetrack/pkg/platform/tx"
)

const uniqueViolation = "23505"

const fileColumns = `
	id, tracking_number, file_type_id, file_type_name, citizen_name, citizen_national_id,
	phone, documents, created_by, current_administration, next_administration, status,
	station_statuses, source, notes, version, created_at, updated_at`

// PostgresStore persists files in PostgreSQL. Execute locks the row with
// SELECT ... FOR UPDATE for the duration of the read-modify-write.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, f *models.File) error {
	if f.Version == 0 {
		f.Version = 1
	}
	stations, err := json.Marshal(f.StationStatuses)
	if err != nil {
		return fmt.Errorf("encode station statuses: %w", err)
	}
	query := `
		INSERT INTO citizen_files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, query,
		f.ID.String(), f.TrackingNumber.String(), f.FileTypeID.String(), f.FileTypeName,
		f.Citizen.Name, f.Citizen.NationalID, f.Citizen.Phone, pq.Array(documentsOrEmpty(f.Documents)),
		f.CreatedBy.String(), f.CurrentAdministration.String(), nullableAdmin(f.NextAdministration),
		f.Status.String(), stations, string(f.Source), f.Notes, f.Version, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, fileID id.FileID) (*models.File, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM citizen_files WHERE id = $1`, fileID.String())
	return s.scanOne(row)
}

func (s *PostgresStore) FindByTrackingNumber(ctx context.Context, tn models.TrackingNumber) (*models.File, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM citizen_files WHERE tracking_number = $1`, tn.String())
	return s.scanOne(row)
}

func (s *PostgresStore) ListByHolder(ctx context.Context, admin id.AdministrationID, filter models.ListFilter) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM citizen_files WHERE current_administration = $1`
	args := []any{admin.String()}
	if filter.Status != "" {
		query += ` AND lower(status) = lower($2)`
		args = append(args, filter.Status.String())
	}
	query += ` ORDER BY created_at DESC, tracking_number`
	return s.queryMany(ctx, query, args...)
}

func (s *PostgresStore) ListIncoming(ctx context.Context, admin id.AdministrationID) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM citizen_files
		WHERE next_administration = $1 AND lower(status) = lower($2)
		ORDER BY created_at DESC, tracking_number`
	return s.queryMany(ctx, query, admin.String(), models.StatusInTransit.String())
}

func (s *PostgresStore) Execute(ctx context.Context, fileID id.FileID, validate func(*models.File) error, mutate func(*models.File)) (*models.File, error) {
	var out *models.File
	err := tx.Run(ctx, s.db, func(ctx context.Context, t *sql.Tx) error {
		row := t.QueryRowContext(ctx,
			`SELECT `+fileColumns+` FROM citizen_files WHERE id = $1 FOR UPDATE`, fileID.String())
		f, err := s.scanOne(row)
		if err != nil {
			return err
		}
		if err := validate(f); err != nil {
			return err
		}
		mutate(f)
		f.Version++

		stations, err := json.Marshal(f.StationStatuses)
		if err != nil {
			return fmt.Errorf("encode station statuses: %w", err)
		}
		_, err = t.ExecContext(ctx, `
			UPDATE citizen_files SET
				current_administration = $2,
				next_administration = $3,
				status = $4,
				station_statuses = $5,
				source = $6,
				notes = $7,
				version = $8,
				updated_at = $9
			WHERE id = $1
		`, fileID.String(), f.CurrentAdministration.String(), nullableAdmin(f.NextAdministration),
			f.Status.String(), stations, string(f.Source), f.Notes, f.Version, f.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.File, error) {
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return f, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var (
		rawID, tracking, fileTypeID, createdBy, current, status, source string
		next                                                            sql.NullString
		stations                                                        []byte
		f                                                               models.File
		createdAt, updatedAt                                            time.Time
	)
	err := row.Scan(
		&rawID, &tracking, &fileTypeID, &f.FileTypeName, &f.Citizen.Name, &f.Citizen.NationalID,
		&f.Citizen.Phone, pq.Array(&f.Documents), &createdBy, &current, &next, &status,
		&stations, &source, &f.Notes, &f.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	fileID, err := id.ParseFileID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored file id %q: %w", rawID, err)
	}
	if err := json.Unmarshal(stations, &f.StationStatuses); err != nil {
		return nil, fmt.Errorf("decode station statuses: %w", err)
	}
	f.ID = fileID
	f.TrackingNumber = models.TrackingNumber(tracking)
	f.FileTypeID = id.FileTypeID(fileTypeID)
	f.CreatedBy = id.AdministrationID(createdBy)
	f.CurrentAdministration = id.AdministrationID(current)
	f.NextAdministration = id.AdministrationID(next.String)
	f.Status = models.Status(status)
	f.Source = models.Source(source)
	f.CreatedAt = createdAt
	f.UpdatedAt = updatedAt
	return &f, nil
}

func nullableAdmin(a id.AdministrationID) sql.NullString {
	return sql.NullString{String: a.String(), Valid: !a.IsNil()}
}

func documentsOrEmpty(docs []string) []string {
	if docs == nil {
		return []string{}
	}
	return docs
}
