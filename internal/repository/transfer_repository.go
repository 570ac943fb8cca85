package repository

import (
	"context"
	"database/sql"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// TransferRepo persists the audit records written when a session moves
// between tables.
type TransferRepo struct {
	db *sql.DB
}

// NewTransferRepo returns a TransferRepo bound to the given database.
func NewTransferRepo(db *sql.DB) *TransferRepo { return &TransferRepo{db: db} }

// CreateTx inserts a transfer record within the transaction.
func (r *TransferRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.SessionTransfer) error {
	const q = `INSERT INTO session_transfers
	    (from_session_id, to_session_id, from_table_id, to_table_id, remaining_minutes, reason, operator_id, transferred_at)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.FromSessionID, t.ToSessionID, t.FromTableID, t.ToTableID,
		t.RemainingMinutes, nullableString(t.Reason), t.OperatorID, t.TransferredAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListBySession returns transfers where the session was source or
// destination, oldest first, so a session's hop chain reads in order.
func (r *TransferRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.SessionTransfer, error) {
	const q = `SELECT id, from_session_id, to_session_id, from_table_id, to_table_id, remaining_minutes, reason, operator_id, transferred_at
	           FROM session_transfers
	           WHERE from_session_id = ? OR to_session_id = ?
	           ORDER BY transferred_at, id`
	rows, err := r.db.QueryContext(ctx, q, sessionID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	transfers := make([]model.SessionTransfer, 0)
	for rows.Next() {
		var t model.SessionTransfer
		var reason sql.NullString
		if err := rows.Scan(&t.ID, &t.FromSessionID, &t.ToSessionID, &t.FromTableID, &t.ToTableID,
			&t.RemainingMinutes, &reason, &t.OperatorID, &t.TransferredAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			v := reason.String
			t.Reason = &v
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}
