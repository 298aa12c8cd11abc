package domain

// Account an exchange account registered in the terminal's account directory.
// Immutable for the lifetime of a session.
type Account struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExchangeName ExchangeName `json:"exchange_name"`
}
