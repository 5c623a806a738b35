package enums

import "fmt"

// CashMovementType distinguishes money coming in from money going out of a register.
type CashMovementType string

const (
	CashMovementIncome  CashMovementType = "income"
	CashMovementExpense CashMovementType = "expense"
)

var validCashMovementTypes = []CashMovementType{
	CashMovementIncome,
	CashMovementExpense,
}

func (t CashMovementType) String() string {
	return string(t)
}

func (t CashMovementType) IsValid() bool {
	for _, candidate := range validCashMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseCashMovementType(value string) (CashMovementType, error) {
	for _, candidate := range validCashMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cash movement type %q", value)
}
