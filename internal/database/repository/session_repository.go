package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EgehanKilicarslan/tasktracker/internal/database/models"
)

// SessionRepository defines the interface for login session operations
type SessionRepository interface {
	Create(session *models.Session) error
	FindByToken(token string) (*models.Session, error)
	RevokeToken(token string) error
	DeleteExpired() (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.Session) error {
	return r.db.Omit(clause.Associations).Create(session).Error
}

func (r *sessionRepository) FindByToken(token string) (*models.Session, error) {
	var session models.Session
	err := r.db.Where("token = ? AND is_revoked = ?", token, false).
		Preload("User").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	// Check if expired
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

func (r *sessionRepository) RevokeToken(token string) error {
	result := r.db.Model(&models.Session{}).
		Where("token = ?", token).
		Update("is_revoked", true)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes expired and revoked sessions, returning how many were purged
func (r *sessionRepository) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at < ? OR is_revoked = ?", time.Now(), true).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// Repository errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)
