package store

import (
	"context"
	"fmt"
)

// ImportLog 업로드 한 건의 이력
type ImportLog struct {
	ID                string
	OwnerID           string
	Filename          string
	FileSize          int64
	FileHash          string
	FilesFound        int
	ValidRows         int
	ErrorRows         int
	NewRecords        int
	DuplicatesIgnored int
	Status            string // processing/completed/failed
	ErrorMessage      string
}

// BeginImport 업로드 이력 생성 (status=processing)
func (s *Store) BeginImport(ctx context.Context, id, ownerID, filename string, fileSize int64, fileHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (id, user_id, filename, file_size, file_hash, status)
		VALUES (?, ?, ?, ?, ?, 'processing')
	`, id, ownerID, filename, fileSize, fileHash)
	if err != nil {
		return fmt.Errorf("failed to create import log: %w", err)
	}
	return nil
}

// FinishImport 업로드 이력 완료 처리
func (s *Store) FinishImport(ctx context.Context, l ImportLog) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			files_found = ?,
			valid_rows = ?,
			error_rows = ?,
			new_records = ?,
			duplicates_ignored = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, l.FilesFound, l.ValidRows, l.ErrorRows, l.NewRecords, l.DuplicatesIgnored, l.Status, l.ErrorMessage, l.ID)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// GetImport 업로드 이력 조회
func (s *Store) GetImport(ctx context.Context, id string) (*ImportLog, error) {
	l := &ImportLog{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, filename, file_size, file_hash, files_found, valid_rows, error_rows,
			new_records, duplicates_ignored, status, error_message
		FROM import_logs WHERE id = ?
	`, id).Scan(&l.ID, &l.OwnerID, &l.Filename, &l.FileSize, &l.FileHash, &l.FilesFound, &l.ValidRows,
		&l.ErrorRows, &l.NewRecords, &l.DuplicatesIgnored, &l.Status, &l.ErrorMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to get import log %s: %w", id, err)
	}
	return l, nil
}
