package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

// ErrDuplicateAudioURL is returned when a transcription already exists for the URL
var ErrDuplicateAudioURL = errors.New("transcription already exists for this audio url")

// TranscriptionRepository implements port.TranscriptionRepository on SQLite
type TranscriptionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTranscriptionRepository creates a new transcription repository
func NewTranscriptionRepository(db *sql.DB, logger *zap.Logger) port.TranscriptionRepository {
	return &TranscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new transcription record and fills in its id and timestamps
func (r *TranscriptionRepository) Create(ctx context.Context, t *entity.Transcription) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO transcriptions (audio_url, transcription, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, t.AudioURL, t.Transcription, t.Source, now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateAudioURL
		}
		r.logger.Error("Failed to create transcription", zap.String("audio_url", t.AudioURL), zap.Error(err))
		return fmt.Errorf("failed to create transcription: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetByID retrieves a transcription by id
func (r *TranscriptionRepository) GetByID(ctx context.Context, id int64) (*entity.Transcription, error) {
	query := `
		SELECT id, audio_url, transcription, source, created_at, updated_at
		FROM transcriptions
		WHERE id = ?
	`

	var t entity.Transcription
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.AudioURL, &t.Transcription, &t.Source, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get transcription", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get transcription: %w", err)
	}

	return &t, nil
}

// FindRecent returns records created within the last `days` days
func (r *TranscriptionRepository) FindRecent(ctx context.Context, days int) ([]*entity.Transcription, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	query := `
		SELECT id, audio_url, transcription, source, created_at, updated_at
		FROM transcriptions
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to list recent transcriptions", zap.Error(err))
		return nil, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	defer rows.Close()

	var records []*entity.Transcription
	for rows.Next() {
		var t entity.Transcription
		if err := rows.Scan(&t.ID, &t.AudioURL, &t.Transcription, &t.Source, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transcription: %w", err)
		}
		records = append(records, &t)
	}
	return records, rows.Err()
}

// FindRecentByAudioURL returns a record for the URL created within the last
// `days` days, or (nil, nil) when none exists
func (r *TranscriptionRepository) FindRecentByAudioURL(ctx context.Context, audioURL string, days int) (*entity.Transcription, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	query := `
		SELECT id, audio_url, transcription, source, created_at, updated_at
		FROM transcriptions
		WHERE audio_url = ? AND created_at >= ?
	`

	var t entity.Transcription
	err := r.db.QueryRowContext(ctx, query, audioURL, cutoff).Scan(
		&t.ID, &t.AudioURL, &t.Transcription, &t.Source, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to look up transcription by audio url",
			zap.String("audio_url", audioURL),
			zap.Error(err))
		return nil, fmt.Errorf("failed to look up transcription: %w", err)
	}

	return &t, nil
}

// Update applies the partial update and returns the updated record
func (r *TranscriptionRepository) Update(ctx context.Context, id int64, upd port.TranscriptionUpdate) (*entity.Transcription, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if upd.AudioURL != nil {
		sets = append(sets, "audio_url = ?")
		args = append(args, *upd.AudioURL)
	}
	if upd.Transcription != nil {
		sets = append(sets, "transcription = ?")
		args = append(args, *upd.Transcription)
	}
	if upd.Source != nil {
		sets = append(sets, "source = ?")
		args = append(args, *upd.Source)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE transcriptions SET %s WHERE id = ?`, strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update transcription", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update transcription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Verify interface compliance
var _ port.TranscriptionRepository = (*TranscriptionRepository)(nil)
