// Package employee drives the employee pages: listing submitted bills and
// submitting a new one against the bill store.
package employee

// RouteBills is the bills page route
const RouteBills = "#employee/bills"

// Navigator moves the presentation layer to another page
type Navigator func(route string)

// Identity is the signed-in employee
type Identity struct {
	Email string
}

func (n Navigator) to(route string) {
	if n != nil {
		n(route)
	}
}
