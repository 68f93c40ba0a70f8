package coffee

import (
	"time"
)

const (
	// DefaultCity is the location whose weather decides the drink temperature.
	DefaultCity = "Auckland"

	// RefillEvery is the request interval at which the machine runs dry.
	RefillEvery = 5

	IcedCoffeeMessage = "Your refreshing iced coffee is ready"
	HotCoffeeMessage  = "Your piping hot coffee is ready"
)

// BrewRecord is the persisted request counter of the machine.
// LastRequestDate is a calendar date (midnight UTC), see common.DateOf.
type BrewRecord struct {
	RequestCount    int       `json:"request_count" dynamodbav:"request_count"`
	LastRequestDate time.Time `json:"last_request_date" dynamodbav:"last_request_date"`
}

// BrewOutcome is the result of a single brew request.
// Message is empty when OutOfCoffee is set.
type BrewOutcome struct {
	Message     string
	OutOfCoffee bool
	Prepared    time.Time
}

// MachineStatus is a read-only view of the stored record.
type MachineStatus struct {
	RequestCount     int       `json:"requestCount"`
	LastRequestDate  time.Time `json:"lastRequestDate"`
	BrewsUntilRefill int       `json:"brewsUntilRefill"`
}
