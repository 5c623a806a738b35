package enums

import "fmt"

// CustomerType segments customers; service pricing can differ per type.
type CustomerType string

const (
	CustomerTypePersonal CustomerType = "personal"
	CustomerTypeBusiness CustomerType = "business"
	CustomerTypeDelivery CustomerType = "delivery"
)

var validCustomerTypes = []CustomerType{
	CustomerTypePersonal,
	CustomerTypeBusiness,
	CustomerTypeDelivery,
}

func (t CustomerType) String() string {
	return string(t)
}

func (t CustomerType) IsValid() bool {
	for _, candidate := range validCustomerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseCustomerType(value string) (CustomerType, error) {
	for _, candidate := range validCustomerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer type %q", value)
}
