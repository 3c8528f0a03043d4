package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamSachinDev/transcription-workflow-api/internal/domain/entity"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
)

var (
	// ErrAudioExists is returned when a recent transcription already covers the audio URL
	ErrAudioExists = errors.New("audio already exists")

	// ErrTranscriptionNotFound is returned when an id does not resolve to a transcription
	ErrTranscriptionNotFound = errors.New("transcription not found")
)

// dedupeWindowDays is how far back a duplicate audio URL counts as a conflict
const dedupeWindowDays = 30

// TranscriptionService ingests audio references and produces transcription records
type TranscriptionService interface {
	// Create downloads the audio and transcribes it with the local backend
	Create(ctx context.Context, audioURL string) (*entity.Transcription, error)

	// CreateWithSpeech downloads the audio and transcribes it with the
	// speech backend, honoring the requested language
	CreateWithSpeech(ctx context.Context, audioURL, language string) (*entity.Transcription, error)

	GetByID(ctx context.Context, id int64) (*entity.Transcription, error)
	ListRecent(ctx context.Context, days int) ([]*entity.Transcription, error)
	Update(ctx context.Context, id int64, upd port.TranscriptionUpdate) (*entity.Transcription, error)
}

type transcriptionServiceImpl struct {
	repo    port.TranscriptionRepository
	fetcher port.AudioFetcher
	local   port.Transcriber
	speech  port.Transcriber
	logger  Logger
}

// NewTranscriptionService creates a new TranscriptionService
func NewTranscriptionService(
	repo port.TranscriptionRepository,
	fetcher port.AudioFetcher,
	local port.Transcriber,
	speech port.Transcriber,
	logger Logger,
) TranscriptionService {
	return &transcriptionServiceImpl{
		repo:    repo,
		fetcher: fetcher,
		local:   local,
		speech:  speech,
		logger:  logger,
	}
}

// Create ingests an audio URL with the local transcription backend
func (s *transcriptionServiceImpl) Create(ctx context.Context, audioURL string) (*entity.Transcription, error) {
	return s.create(ctx, audioURL, "", s.local)
}

// CreateWithSpeech ingests an audio URL with the speech backend
func (s *transcriptionServiceImpl) CreateWithSpeech(ctx context.Context, audioURL, language string) (*entity.Transcription, error) {
	return s.create(ctx, audioURL, language, s.speech)
}

func (s *transcriptionServiceImpl) create(ctx context.Context, audioURL, language string, transcriber port.Transcriber) (*entity.Transcription, error) {
	existing, err := s.repo.FindRecentByAudioURL(ctx, audioURL, dedupeWindowDays)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAudioExists, audioURL)
	}

	audio, err := s.fetcher.Fetch(ctx, audioURL)
	if err != nil {
		s.logger.Error("Failed to download audio", "error", err, "audio_url", audioURL)
		return nil, fmt.Errorf("failed to download audio: %w", err)
	}

	text, source, err := transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		s.logger.Error("Transcription failed", "error", err, "audio_url", audioURL)
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	record := &entity.Transcription{
		AudioURL:      audioURL,
		Transcription: text,
		Source:        source,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("Failed to store transcription", "error", err, "audio_url", audioURL)
		return nil, err
	}

	s.logger.Info("Transcription created",
		"id", record.ID, "audio_url", audioURL, "source", source)
	return record, nil
}

// GetByID retrieves a transcription by id
func (s *transcriptionServiceImpl) GetByID(ctx context.Context, id int64) (*entity.Transcription, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTranscriptionNotFound, id)
	}
	return record, nil
}

// ListRecent retrieves transcriptions created within the last `days` days
func (s *transcriptionServiceImpl) ListRecent(ctx context.Context, days int) ([]*entity.Transcription, error) {
	return s.repo.FindRecent(ctx, days)
}

// Update applies a partial update to an existing transcription
func (s *transcriptionServiceImpl) Update(ctx context.Context, id int64, upd port.TranscriptionUpdate) (*entity.Transcription, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTranscriptionNotFound, id)
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTranscriptionNotFound, id)
	}
	return updated, nil
}
