package enums

import "fmt"

// ServiceUnitType is the unit a service is priced by.
type ServiceUnitType string

const (
	ServiceUnitGarment ServiceUnitType = "garment"
	ServiceUnitPound   ServiceUnitType = "pound"
	ServiceUnitKilo    ServiceUnitType = "kilo"
	ServiceUnitService ServiceUnitType = "service"
)

var validServiceUnitTypes = []ServiceUnitType{
	ServiceUnitGarment,
	ServiceUnitPound,
	ServiceUnitKilo,
	ServiceUnitService,
}

func (u ServiceUnitType) IsValid() bool {
	for _, candidate := range validServiceUnitTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

func ParseServiceUnitType(value string) (ServiceUnitType, error) {
	for _, candidate := range validServiceUnitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service unit type %q", value)
}
