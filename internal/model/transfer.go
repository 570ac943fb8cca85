package model

import "time"

// SessionTransfer is the audit record written when an in-progress
// session moves to another table. It is created in the same transaction
// that marks the source session Transferred, opens the destination
// session and swaps both tables' occupancy, so a transfer either leaves
// all five marks or none.
type SessionTransfer struct {
	ID               uint64    // session_transfers.id
	FromSessionID    uint64    // session_transfers.from_session_id
	ToSessionID      uint64    // session_transfers.to_session_id
	FromTableID      uint64    // session_transfers.from_table_id
	ToTableID        uint64    // session_transfers.to_table_id
	RemainingMinutes int       // session_transfers.remaining_minutes
	Reason           *string   // session_transfers.reason (nullable)
	OperatorID       uint64    // session_transfers.operator_id
	TransferredAt    time.Time // session_transfers.transferred_at
}
