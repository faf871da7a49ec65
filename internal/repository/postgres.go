package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibforms/forms-api/internal/models"
)

const queryTimeout = 5 * time.Second

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---- profiles ----

func (r *PostgresRepository) CreateProfile(ctx context.Context, p *models.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO profiles (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Email, p.PasswordHash, p.Role, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`

	var p models.Profile
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p models.Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE profiles
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *PostgresRepository) ProfileRoleCounts(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM profiles GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count profiles: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan profile counts: %w", err)
		}
		counts[role] = n
	}

	return counts, rows.Err()
}

// ---- sessions ----

func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.Session) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, s.ID, s.UserID, s.Token, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND expires_at > NOW()
	`

	var s models.Session
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteSessionsForUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

// ---- forms ----

func (r *PostgresRepository) CreateForm(ctx context.Context, f *models.Form) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	schema, err := json.Marshal(f.JSONSchema)
	if err != nil {
		return fmt.Errorf("failed to serialize form schema: %w", err)
	}

	query := `
		INSERT INTO forms (id, title, description, json_schema, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		f.ID, f.Title, f.Description, schema, f.Status, f.CreatedBy, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}

	return nil
}

func scanForm(row pgx.Row) (*models.Form, error) {
	var f models.Form
	var schema []byte
	err := row.Scan(
		&f.ID, &f.Title, &f.Description, &schema, &f.Status,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(schema) > 0 {
		if err := json.Unmarshal(schema, &f.JSONSchema); err != nil {
			return nil, fmt.Errorf("failed to deserialize form schema: %w", err)
		}
	}
	return &f, nil
}

func (r *PostgresRepository) GetFormByID(ctx context.Context, id string) (*models.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, title, description, json_schema, status, created_by, created_at, updated_at
		FROM forms
		WHERE id = $1
	`

	f, err := scanForm(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	return f, nil
}

func (r *PostgresRepository) ListForms(ctx context.Context, status string) ([]*models.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, title, description, json_schema, status, created_by, created_at, updated_at
		FROM forms
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	forms := []*models.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, f)
	}

	return forms, rows.Err()
}

func (r *PostgresRepository) UpdateForm(ctx context.Context, id string, req *models.UpdateFormRequest) (*models.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var schema []byte
	if req.JSONSchema != nil {
		b, err := json.Marshal(*req.JSONSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize form schema: %w", err)
		}
		schema = b
	}

	query := `
		UPDATE forms
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    json_schema = COALESCE($4, json_schema),
		    status = COALESCE($5, status),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, description, json_schema, status, created_by, created_at, updated_at
	`

	f, err := scanForm(r.pool.QueryRow(ctx, query, id, req.Title, req.Description, schema, req.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to update form: %w", err)
	}

	return f, nil
}

func (r *PostgresRepository) DeleteForm(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFormNotFound
	}

	return nil
}

func (r *PostgresRepository) FormStatusCounts(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM forms GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count forms: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan form counts: %w", err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

// ---- responses ----

func (r *PostgresRepository) InsertResponse(ctx context.Context, resp *models.FormResponse) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	data, err := json.Marshal(resp.ResponseData)
	if err != nil {
		return fmt.Errorf("failed to serialize response data: %w", err)
	}

	query := `
		INSERT INTO form_responses (id, form_id, user_id, response_data)
		VALUES ($1, $2, $3, $4)
		RETURNING submitted_at
	`

	err = r.pool.QueryRow(ctx, query, resp.ID, resp.FormID, resp.UserID, data).Scan(&resp.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetResponseByID(ctx context.Context, id string) (*models.FormResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, form_id, user_id, response_data, submitted_at
		FROM form_responses
		WHERE id = $1
	`

	var resp models.FormResponse
	var data []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&resp.ID, &resp.FormID, &resp.UserID, &data, &resp.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if err := unmarshalResponseData(data, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (r *PostgresRepository) GetResponseWithForm(ctx context.Context, id string) (*models.ResponseWithForm, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT fr.id, fr.form_id, fr.user_id, fr.response_data, fr.submitted_at, f.title
		FROM form_responses fr
		LEFT JOIN forms f ON fr.form_id = f.id
		WHERE fr.id = $1
	`

	var resp models.ResponseWithForm
	var data []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&resp.ID, &resp.FormID, &resp.UserID, &data, &resp.SubmittedAt, &resp.FormTitle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if err := unmarshalResponseData(data, &resp.FormResponse); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (r *PostgresRepository) ListResponses(ctx context.Context, formID, userID string) ([]*models.ResponseWithForm, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT fr.id, fr.form_id, fr.user_id, fr.response_data, fr.submitted_at, f.title, p.email
		FROM form_responses fr
		LEFT JOIN forms f ON fr.form_id = f.id
		LEFT JOIN profiles p ON fr.user_id = p.id
	`
	conditions := []string{}
	args := []any{}
	if formID != "" {
		args = append(args, formID)
		conditions = append(conditions, fmt.Sprintf("fr.form_id = $%d", len(args)))
	}
	if userID != "" {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("fr.user_id = $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += ` ORDER BY fr.submitted_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	return scanResponsesWithForm(rows)
}

func (r *PostgresRepository) ListResponsesByForm(ctx context.Context, formID string, page, limit int) ([]*models.ResponseWithForm, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM form_responses WHERE form_id = $1`, formID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	query := `
		SELECT fr.id, fr.form_id, fr.user_id, fr.response_data, fr.submitted_at, f.title, p.email
		FROM form_responses fr
		LEFT JOIN forms f ON fr.form_id = f.id
		LEFT JOIN profiles p ON fr.user_id = p.id
		WHERE fr.form_id = $1
		ORDER BY fr.submitted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, formID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses, err := scanResponsesWithForm(rows)
	if err != nil {
		return nil, 0, err
	}

	return responses, total, nil
}

func (r *PostgresRepository) DeleteResponse(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM form_responses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrResponseNotFound
	}

	return nil
}

func (r *PostgresRepository) CountResponses(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM form_responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) CreateFileUpload(ctx context.Context, u *models.FileUpload) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO form_file_uploads (id, form_response_id, question_name, file_name, file_path, file_size, file_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING uploaded_at
	`

	err := r.pool.QueryRow(ctx, query,
		u.ID, u.FormResponseID, u.QuestionName, u.FileName,
		u.FilePath, u.FileSize, u.FileType, u.UploadedBy,
	).Scan(&u.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create file upload: %w", err)
	}

	return nil
}

func scanResponsesWithForm(rows pgx.Rows) ([]*models.ResponseWithForm, error) {
	responses := []*models.ResponseWithForm{}
	for rows.Next() {
		var resp models.ResponseWithForm
		var data []byte
		err := rows.Scan(
			&resp.ID, &resp.FormID, &resp.UserID, &data, &resp.SubmittedAt,
			&resp.FormTitle, &resp.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if err := unmarshalResponseData(data, &resp.FormResponse); err != nil {
			return nil, err
		}
		responses = append(responses, &resp)
	}

	return responses, rows.Err()
}

func unmarshalResponseData(data []byte, resp *models.FormResponse) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &resp.ResponseData); err != nil {
		return fmt.Errorf("failed to deserialize response data: %w", err)
	}
	return nil
}
