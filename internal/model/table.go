package model

import "time"

// TableState enumerates the occupancy states of a billiard table.
// Occupied is only ever set by the session engine; Reserved is written
// by the reservation collaborator and is treated as not-free when a
// session is opened.
type TableState string

const (
	TableFree        TableState = "FREE"
	TableOccupied    TableState = "OCCUPIED"
	TableReserved    TableState = "RESERVED"
	TableMaintenance TableState = "MAINTENANCE"
)

// ValidTableState reports whether s is one of the known occupancy states.
func ValidTableState(s TableState) bool {
	switch s {
	case TableFree, TableOccupied, TableReserved, TableMaintenance:
		return true
	}
	return false
}

// Table is a rentable billiard table. Tables are created by
// configuration and soft-deactivated rather than deleted, because
// historical sessions keep referencing them.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name shown on the floor plan.
//  Code       – short unique code printed on tickets.
//  RatePlanID – billing policy applied to sessions on this table.
//  State      – occupancy state (FREE, OCCUPIED, RESERVED, MAINTENANCE).
//  IsActive   – soft-deactivation flag.
type Table struct {
	ID         uint64     // tables.id
	Name       string     // tables.name
	Code       string     // tables.code
	RatePlanID uint64     // tables.rate_plan_id
	State      TableState // tables.state
	IsActive   bool       // tables.is_active
	CreatedAt  time.Time  // tables.created_at
	UpdatedAt  time.Time  // tables.updated_at
}
