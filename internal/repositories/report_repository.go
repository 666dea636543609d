package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ReportRepository stores abuse reports and user blocks.
type ReportRepository interface {
	CreateReport(ctx context.Context, reporterID int, reportedUserID, publicationID *int, message string) error
	BlockUser(ctx context.Context, userID int, blockedUserID int) error
}

// ReportRepo is a sqlx implementation of ReportRepository.
type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo constructs a ReportRepo.
func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// CreateReport files a complaint against a user and/or a publication.
func (r *ReportRepo) CreateReport(ctx context.Context, reporterID int, reportedUserID, publicationID *int, message string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO reports (reporter_id, reported_user_id, publication_id, message)
        VALUES ($1, $2, $3, $4)`,
		reporterID, reportedUserID, publicationID, message)
	return err
}

// BlockUser records a block, idempotently.
func (r *ReportRepo) BlockUser(ctx context.Context, userID int, blockedUserID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO blocked_users (user_id, blocked_user_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, blockedUserID)
	return err
}
