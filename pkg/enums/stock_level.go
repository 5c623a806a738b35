package enums

// StockLevel is the alert level of an inventory item relative to its minimum.
type StockLevel string

const (
	StockLevelOK      StockLevel = "ok"
	StockLevelWarning StockLevel = "warning"
	StockLevelDanger  StockLevel = "danger"
)
