package domain

import "strings"

// Customer is a checkout customer identified by cédula.
type Customer struct {
	NationalID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Merge copies the non-empty fields of incoming over c. Empty incoming
// fields never clear stored data; a later checkout with partial billing
// details must not erase what an earlier one provided.
func (c *Customer) Merge(incoming *Customer) {
	if incoming.FirstName != "" {
		c.FirstName = incoming.FirstName
	}
	if incoming.LastName != "" {
		c.LastName = incoming.LastName
	}
	if incoming.Email != "" {
		c.Email = incoming.Email
	}
	if incoming.Phone != "" {
		c.Phone = incoming.Phone
	}
	if incoming.Address != "" {
		c.Address = incoming.Address
	}
	if incoming.City != "" {
		c.City = incoming.City
	}
	if incoming.State != "" {
		c.State = incoming.State
	}
	if incoming.PostalCode != "" {
		c.PostalCode = incoming.PostalCode
	}
	if incoming.Country != "" {
		c.Country = incoming.Country
	}
}

// DisplayName returns the customer's full name for display.
func (c *Customer) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
