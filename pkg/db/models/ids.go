package models

import "github.com/google/uuid"

// ensureID assigns a v4 id when the caller did not provide one. Ids are
// generated in Go so the same models work on Postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Customer{},
		&ServiceCategory{},
		&UnitOfMeasure{},
		&InventoryItem{},
		&Service{},
		&ServiceComponent{},
		&ServicePricing{},
		&Order{},
		&OrderLine{},
		&OrderTracking{},
		&InventoryMovement{},
		&CashRegister{},
		&CashMovement{},
		&OutboxEvent{},
		&Notification{},
	}
}
