package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"filetrack/internal/route/models"
	id "filetrack/pkg/domain"
)

// PostgresStore persists routes and administrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, route *models.Route) error {
	now := route.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	created := route.CreatedAt
	if created.IsZero() {
		created = now
	}
	stations := make([]string, route.Len())
	for i := range stations {
		stations[i] = route.At(i).String()
	}
	query := `
		INSERT INTO file_routes (file_type_id, file_type_name, stations, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_type_id) DO UPDATE SET
			file_type_name = EXCLUDED.file_type_name,
			stations = EXCLUDED.stations,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		route.FileTypeID.String(), route.FileTypeName, pq.Array(stations), route.CreatedBy.String(), created, now)
	if err != nil {
		return fmt.Errorf("save route: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByFileType(ctx context.Context, fileTypeID id.FileTypeID) (*models.Route, error) {
	query := `
		SELECT file_type_id, file_type_name, stations, created_by, created_at, updated_at
		FROM file_routes
		WHERE file_type_id = $1
	`
	route, err := scanRoute(s.db.QueryRowContext(ctx, query, fileTypeID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find route: %w", err)
	}
	return route, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Route, error) {
	query := `
		SELECT file_type_id, file_type_name, stations, created_by, created_at, updated_at
		FROM file_routes
		ORDER BY file_type_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var out []*models.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*models.Route, error) {
	var (
		fileTypeID, name, createdBy string
		stations                    []string
		createdAt, updatedAt        time.Time
	)
	if err := row.Scan(&fileTypeID, &name, pq.Array(&stations), &createdBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	admins := make([]id.AdministrationID, len(stations))
	for i, st := range stations {
		admins[i] = id.AdministrationID(st)
	}
	route, err := models.FromStations(id.FileTypeID(fileTypeID), name, admins)
	if err != nil {
		return nil, fmt.Errorf("stored route %s is invalid: %w", fileTypeID, err)
	}
	route.CreatedBy = id.AdministrationID(createdBy)
	route.CreatedAt = createdAt
	route.UpdatedAt = updatedAt
	return route, nil
}

func (s *PostgresStore) UpsertAdministration(ctx context.Context, admin models.Administration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO administrations (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, admin.ID.String(), admin.Name)
	if err != nil {
		return fmt.Errorf("upsert administration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAdministration(ctx context.Context, adminID id.AdministrationID) (*models.Administration, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM administrations WHERE id = $1`, adminID.String()).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find administration: %w", err)
	}
	return &models.Administration{ID: adminID, Name: name}, nil
}

func (s *PostgresStore) ListAdministrations(ctx context.Context) ([]models.Administration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM administrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list administrations: %w", err)
	}
	defer rows.Close()

	var out []models.Administration
	for rows.Next() {
		var adminID, name string
		if err := rows.Scan(&adminID, &name); err != nil {
			return nil, fmt.Errorf("scan administration: %w", err)
		}
		out = append(out, models.Administration{ID: id.AdministrationID(adminID), Name: name})
	}
	return out, rows.Err()
}
