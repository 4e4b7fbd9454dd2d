package store

import (
	"context"

	"github.com/zombor/billed/internal/bill"
)

// Client gives access to the remote bill store, one sub-client per resource
type Client interface {
	Bills() Bills
	Files() Files
}

// Bills defines the bill operations offered by the store
type Bills interface {
	// List returns every bill in store order
	List(ctx context.Context) ([]bill.Bill, error)

	// Create stores a new bill and returns it with its assigned ID
	Create(ctx context.Context, b bill.Bill) (bill.Bill, error)

	// Update replaces the bill identified by b.ID
	Update(ctx context.Context, b bill.Bill) (bill.Bill, error)
}

// Files defines the justification file operations offered by the store
type Files interface {
	// Create uploads a file and returns where it was stored
	Create(ctx context.Context, upload Upload) (FileRef, error)
}

// Upload is a justification file along with the metadata sent with it
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
	Email       string
}

// FileRef identifies an uploaded file. BillID is set when the store
// pre-allocates a bill for the upload.
type FileRef struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	BillID   string `json:"key,omitempty"`
}
