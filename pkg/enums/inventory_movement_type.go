package enums

import "fmt"

// InventoryMovementType classifies a stock ledger entry.
type InventoryMovementType string

const (
	InventoryMovementEntry      InventoryMovementType = "entry"
	InventoryMovementExit       InventoryMovementType = "exit"
	InventoryMovementReturn     InventoryMovementType = "return"
	InventoryMovementAdjustment InventoryMovementType = "adjustment"
)

var validInventoryMovementTypes = []InventoryMovementType{
	InventoryMovementEntry,
	InventoryMovementExit,
	InventoryMovementReturn,
	InventoryMovementAdjustment,
}

func (t InventoryMovementType) String() string {
	return string(t)
}

func (t InventoryMovementType) IsValid() bool {
	for _, candidate := range validInventoryMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseInventoryMovementType(value string) (InventoryMovementType, error) {
	for _, candidate := range validInventoryMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory movement type %q", value)
}
