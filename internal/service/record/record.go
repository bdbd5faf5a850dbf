// Package record persists sessions and chat messages. It is the only layer
// that touches the database; the counseling logic goes through Store so tests
// can substitute fakes.
package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"counselgo/internal/models"
)

// Store handles session lifecycle and message persistence.
type Store struct {
	db *sql.DB
}

// NewStore builds a new record store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateSession inserts a new session from questionnaire answers.
func (s *Store) CreateSession(ctx context.Context, profile models.Profile) (*models.Session, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return nil, errors.New("name is required")
	}
	if profile.Age <= 0 {
		return nil, errors.New("age must be positive")
	}
	if !models.ValidStatus(profile.Status) {
		return nil, fmt.Errorf("invalid status: %s", profile.Status)
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_sessions (session_id, name, age, status, level, year, field, concerns, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, profile.Name, profile.Age, profile.Status,
		profile.Level, profile.Year, profile.Field, profile.Concerns, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession loads one session by id. Returns sql.ErrNoRows when unknown.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var (
		session models.Session
		level   sql.NullString
		year    sql.NullString
		field   sql.NullString
		conc    sql.NullString
		resume  sql.NullString
		roadmap sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, name, age, status, level, year, field, concerns, resume_path, roadmap_data, created_at, updated_at
		 FROM user_sessions WHERE session_id = ?`, sessionID,
	).Scan(&session.ID, &session.Profile.Name, &session.Profile.Age, &session.Profile.Status,
		&level, &year, &field, &conc, &resume, &roadmap, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.Profile.Level = level.String
	session.Profile.Year = year.String
	session.Profile.Field = field.String
	session.Profile.Concerns = conc.String
	session.ResumePath = resume.String
	if roadmap.Valid && roadmap.String != "" {
		session.RoadmapData = []byte(roadmap.String)
	}
	return &session, nil
}

// SaveRoadmap writes the session's single roadmap slot.
func (s *Store) SaveRoadmap(ctx context.Context, sessionID string, data []byte) error {
	if len(data) == 0 {
		return errors.New("roadmap data is empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_sessions SET roadmap_data = ?, updated_at = ? WHERE session_id = ?`,
		string(data), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("save roadmap: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("roadmap rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AttachResume records the stored path of an uploaded resume.
func (s *Store) AttachResume(ctx context.Context, sessionID, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("resume path is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_sessions SET resume_path = ?, updated_at = ? WHERE session_id = ?`,
		path, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("attach resume: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resume rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
