package bill

// Status is the review state of a bill
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is one of the known review states
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Bill represents an expense claim as stored
type Bill struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Type         string  `json:"type"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"` // ISO 8601 (YYYY-MM-DD), may be empty for staged bills
	VAT          string  `json:"vat"`
	Pct          int     `json:"pct"`
	Commentary   string  `json:"commentary"`
	FileURL      string  `json:"fileUrl"`
	FileName     string  `json:"fileName"`
	Status       Status  `json:"status"`
	CommentAdmin string  `json:"commentAdmin"`
}

// HasFile reports whether the bill references an uploaded justification file
func (b Bill) HasFile() bool {
	return b.FileURL != "" && b.FileName != ""
}

// DisplayBill is a bill with its date and status turned into labels.
// The embedded Bill keeps the raw values.
type DisplayBill struct {
	Bill
	Date   string `json:"date"`
	Status string `json:"status"`
}
