package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

const expenseColumns = `id, trip_id, description, amount, currency, exchange_rate_to_base,
	paid_by_id, paid_by_kind, split_mode, created_at`

// CreateExpense persists an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.Currency = strings.ToUpper(strings.TrimSpace(expense.Currency))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Description, expense.Amount, expense.Currency,
		expense.ExchangeRateToBase, expense.PaidByID, string(expense.PaidByKind),
		expense.SplitMode, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, sp := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_splits (expense_id, participant_id, participant_kind, amount, seq)
			 VALUES (?, ?, ?, ?, ?)`,
			expense.ID, sp.ParticipantID, string(sp.ParticipantKind), sp.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, participant_id, participant_kind, amount
		 FROM expense_splits WHERE expense_id = ? ORDER BY seq`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	byID := map[string]*models.Expense{expense.ID: expense}
	if err := attachSplits(rows, byID); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense removes an expense; its splits cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

func listExpenses(ctx context.Context, q queryer, tripID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE trip_id = ? ORDER BY created_at, rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return expenses, nil
	}

	splitRows, err := q.QueryContext(ctx,
		`SELECT es.expense_id, es.participant_id, es.participant_kind, es.amount
		 FROM expense_splits es
		 JOIN expenses e ON e.id = es.expense_id
		 WHERE e.trip_id = ? ORDER BY es.expense_id, es.seq`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense splits: %w", err)
	}
	defer splitRows.Close()

	if err := attachSplits(splitRows, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var paidByKind string
	err := row.Scan(&e.ID, &e.TripID, &e.Description, &e.Amount, &e.Currency,
		&e.ExchangeRateToBase, &e.PaidByID, &paidByKind, &e.SplitMode, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.PaidByKind = models.ParticipantKind(paidByKind)
	return e, nil
}

func attachSplits(rows *sql.Rows, byID map[string]*models.Expense) error {
	for rows.Next() {
		var expenseID, kind string
		var sp models.ExpenseSplit
		if err := rows.Scan(&expenseID, &sp.ParticipantID, &kind, &sp.Amount); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		sp.ParticipantKind = models.ParticipantKind(kind)
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, sp)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return nil
}
