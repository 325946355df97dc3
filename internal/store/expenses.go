package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hevi35-coder/Settlement/internal/model"
)

// SaveExpenses 지출 레코드를 일괄 저장한다
// (user_id, unique_hash) 가 이미 있으면 무시하고 중복으로 센다. 배치 안의 중복도 첫 건만 저장된다.
// 전체가 하나의 트랜잭션이므로 실패하면 아무것도 저장되지 않는다.
func (s *Store) SaveExpenses(ctx context.Context, ownerID string, records []model.StampedRecord) (model.PersistResult, error) {
	if len(records) == 0 {
		return model.PersistResult{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PersistResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shared_expenses (
			id, user_id, expense_date, category_main, content,
			amount, memo, payment_method, unique_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, unique_hash) DO NOTHING
	`)
	if err != nil {
		return model.PersistResult{}, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			uuid.NewString(), ownerID, r.Date, r.Category, r.Content,
			decimal.NewFromFloat(r.Amount).StringFixed(2), r.Memo, r.PaymentMethod, r.UniqueHash,
		)
		if err != nil {
			return model.PersistResult{}, fmt.Errorf("failed to insert expense (row %d): %w", r.SourceRow, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return model.PersistResult{}, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return model.PersistResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return model.PersistResult{
		TotalSubmitted:    len(records),
		NewRecords:        inserted,
		DuplicatesIgnored: len(records) - inserted,
	}, nil
}

// CountExpenses 사용자별 저장된 지출 건수
func (s *Store) CountExpenses(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shared_expenses WHERE user_id = ?", ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}
