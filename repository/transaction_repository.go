package repository

import (
	"context"
	"errors"
	"fmt"

	"quizbot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements interfaces.TransactionRepository
type TransactionRepository struct {
	q       Queryable
	guildID int64
}

// NewTransactionRepository creates a ledger repository scoped to a guild
func NewTransactionRepository(q Queryable, guildID int64) *TransactionRepository {
	return &TransactionRepository{q: q, guildID: guildID}
}

// Record appends a ledger entry
func (r *TransactionRepository) Record(ctx context.Context, tx *entities.Transaction) error {
	if tx.GuildID != 0 && tx.GuildID != r.guildID {
		return fmt.Errorf("transaction for guild %d recorded through guild %d", tx.GuildID, r.guildID)
	}
	tx.GuildID = r.guildID

	err := r.q.QueryRow(ctx, `
		INSERT INTO transactions (guild_id, player_id, tx_type, points_delta, money_delta, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.guildID, tx.PlayerID, tx.Type, tx.PointsDelta, tx.MoneyDelta, tx.Description).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s transaction for %d in guild %d: %w", tx.Type, tx.PlayerID, r.guildID, err)
	}
	return nil
}

// GetByPlayer returns the most recent entries for a player, newest first
func (r *TransactionRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*entities.Transaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, guild_id, player_id, tx_type, points_delta, money_delta, description, created_at
		FROM transactions
		WHERE guild_id = $1 AND player_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, r.guildID, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %d: %w", playerID, err)
	}
	defer rows.Close()

	var txs []*entities.Transaction
	for rows.Next() {
		var tx entities.Transaction
		if err := rows.Scan(&tx.ID, &tx.GuildID, &tx.PlayerID, &tx.Type, &tx.PointsDelta, &tx.MoneyDelta, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}

const reconcileSelect = `
	SELECT a.player_id,
	       a.guild_id,
	       a.points,
	       a.money,
	       COALESCE(SUM(t.points_delta), 0)::bigint AS ledger_points,
	       COALESCE(SUM(t.money_delta), 0)::bigint AS ledger_money
	FROM accounts a
	LEFT JOIN transactions t ON t.guild_id = a.guild_id AND t.player_id = a.player_id
`

func scanReconciliation(row pgx.Row) (*entities.Reconciliation, error) {
	var rec entities.Reconciliation
	if err := row.Scan(&rec.PlayerID, &rec.GuildID, &rec.Points, &rec.Money, &rec.LedgerPoints, &rec.LedgerMoney); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Reconcile compares one account with the sum of its ledger
func (r *TransactionRepository) Reconcile(ctx context.Context, playerID int64) (*entities.Reconciliation, error) {
	rec, err := scanReconciliation(r.q.QueryRow(ctx, reconcileSelect+`
		WHERE a.guild_id = $1 AND a.player_id = $2
		GROUP BY a.player_id, a.guild_id, a.points, a.money
	`, r.guildID, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile account %d: %w", playerID, err)
	}
	return rec, nil
}

// FindDrift returns every account whose balances the ledger does not explain
func (r *TransactionRepository) FindDrift(ctx context.Context) ([]*entities.Reconciliation, error) {
	rows, err := r.q.Query(ctx, reconcileSelect+`
		WHERE a.guild_id = $1
		GROUP BY a.player_id, a.guild_id, a.points, a.money
		HAVING a.points <> COALESCE(SUM(t.points_delta), 0) OR a.money <> COALESCE(SUM(t.money_delta), 0)
		ORDER BY a.player_id
	`, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to audit ledger in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var drift []*entities.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation: %w", err)
		}
		drift = append(drift, rec)
	}
	return drift, rows.Err()
}

// Count returns the number of ledger entries in the guild
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE guild_id = $1`, r.guildID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions in guild %d: %w", r.guildID, err)
	}
	return count, nil
}
