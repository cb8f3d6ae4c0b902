package domain

// Dataset is the complete user dataset moved by export and import.
// Trip and ticket IDs are not part of the interchange; the store reassigns them.
type Dataset struct {
	Settings Settings
	Trips    []Trip
	Tickets  []Ticket
}
