package enums

import "fmt"

// CourierStatus maps to the courier_status enum in Postgres.
type CourierStatus string

const (
	CourierStatusOffline    CourierStatus = "offline"
	CourierStatusAvailable  CourierStatus = "available"
	CourierStatusOnDelivery CourierStatus = "on_delivery"
	CourierStatusBreak      CourierStatus = "break"
)

var validCourierStatuses = []CourierStatus{
	CourierStatusOffline,
	CourierStatusAvailable,
	CourierStatusOnDelivery,
	CourierStatusBreak,
}

// String implements fmt.Stringer.
func (c CourierStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CourierStatus.
func (c CourierStatus) IsValid() bool {
	for _, candidate := range validCourierStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsOnline is true only while the courier can take or is running a delivery.
func (c CourierStatus) IsOnline() bool {
	return c == CourierStatusAvailable || c == CourierStatusOnDelivery
}

// ParseCourierStatus converts raw input into a CourierStatus.
func ParseCourierStatus(value string) (CourierStatus, error) {
	for _, candidate := range validCourierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid courier status %q", value)
}
