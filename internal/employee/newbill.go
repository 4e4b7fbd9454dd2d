package employee

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/logger"
	"github.com/zombor/billed/internal/store"
)

// State is the progress of a new bill submission
type State int

const (
	Editing State = iota
	FileStaged
	Submitting
	Submitted
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case FileStaged:
		return "file staged"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrSubmissionBlocked    = errors.New("submission blocked: no valid justification file uploaded")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted     = errors.New("bill already submitted")
	ErrSelectionReplaced    = errors.New("file selection replaced by a newer one")
	ErrIncompleteUpload     = errors.New("store returned no file url")
)

// File is a justification file picked by the employee
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Form holds the new bill fields as typed by the employee
type Form struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

// NewBill drives a single bill submission: file selection, upload, then submit
type NewBill struct {
	bills    store.Bills
	files    store.Files
	navigate Navigator
	identity Identity
	log      *zap.Logger

	mu        sync.Mutex
	state     State
	valid     bool
	message   string
	staged    *store.FileRef
	selection int
}

// NewNewBill creates the orchestrator for one new bill form
func NewNewBill(client store.Client, navigate Navigator, identity Identity, log *zap.Logger) *NewBill {
	return &NewBill{
		bills:    client.Bills(),
		files:    client.Files(),
		navigate: navigate,
		identity: identity,
		log:      logger.OrNop(log),
	}
}

// State returns the current submission state
func (n *NewBill) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Valid reports whether the last selected file has an accepted type
func (n *NewBill) Valid() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.valid
}

// ValidationMessage returns the file error to display, empty when there is none
func (n *NewBill) ValidationMessage() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message
}

// Staged returns the uploaded file reference, if the upload completed
func (n *NewBill) Staged() (store.FileRef, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.staged == nil {
		return store.FileRef{}, false
	}
	return *n.staged, true
}

// ChangeFile validates a newly selected file and uploads it when it is accepted.
// A rejected file returns a *bill.ValidationError and sets the validation message;
// an accepted one clears it. Each selection replaces the previous one.
func (n *NewBill) ChangeFile(ctx context.Context, file File) error {
	n.mu.Lock()
	if err := n.editable(); err != nil {
		n.mu.Unlock()
		return err
	}
	n.selection++
	selection := n.selection
	n.staged = nil
	n.state = Editing

	if err := bill.ValidateFile(file.Name, file.ContentType); err != nil {
		n.valid = false
		var validationErr *bill.ValidationError
		if errors.As(err, &validationErr) {
			n.message = validationErr.Message()
		}
		n.mu.Unlock()
		return err
	}
	n.valid = true
	n.message = ""
	n.mu.Unlock()

	ref, err := n.files.Create(ctx, store.Upload{
		Name:        file.Name,
		ContentType: bill.ContentType(file.Name, file.ContentType),
		Data:        file.Data,
		Email:       n.identity.Email,
	})
	if err == nil && ref.FileURL == "" {
		err = ErrIncompleteUpload
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if selection != n.selection {
		return ErrSelectionReplaced
	}
	if err != nil {
		n.log.Error("Failed to upload justification file",
			zap.String("filename", file.Name),
			zap.String("email", n.identity.Email),
			zap.Error(err),
		)
		return fmt.Errorf("uploading justification file: %w", err)
	}

	if ref.FileName == "" {
		ref.FileName = file.Name
	}
	n.staged = &ref
	n.state = FileStaged
	return nil
}

// Submit assembles the bill from the form and the staged file and sends it to
// the store. On success it navigates back to the bills page. On failure the
// form stays as is and Submit may be called again.
func (n *NewBill) Submit(ctx context.Context, form Form) error {
	n.mu.Lock()
	if err := n.editable(); err != nil {
		n.mu.Unlock()
		return err
	}
	if !n.valid || n.staged == nil {
		n.mu.Unlock()
		return ErrSubmissionBlocked
	}
	record := n.assemble(form, *n.staged)
	n.state = Submitting
	n.mu.Unlock()

	var err error
	if record.ID != "" {
		_, err = n.bills.Update(ctx, record)
	} else {
		_, err = n.bills.Create(ctx, record)
	}

	n.mu.Lock()
	if err != nil {
		n.state = Failed
		n.mu.Unlock()
		n.log.Error("Failed to submit bill",
			zap.String("bill_id", record.ID),
			zap.String("email", record.Email),
			zap.Error(err),
		)
		return fmt.Errorf("submitting bill: %w", err)
	}
	n.state = Submitted
	n.mu.Unlock()

	n.navigate.to(RouteBills)
	return nil
}

// editable must be called with mu held
func (n *NewBill) editable() error {
	switch n.state {
	case Submitting:
		return ErrSubmissionInProgress
	case Submitted:
		return ErrAlreadySubmitted
	}
	return nil
}

func (n *NewBill) assemble(form Form, ref store.FileRef) bill.Bill {
	return bill.Bill{
		ID:         ref.BillID,
		Email:      n.identity.Email,
		Type:       form.Type,
		Name:       form.Name,
		Amount:     parseAmount(form.Amount),
		Date:       strings.TrimSpace(form.Date),
		VAT:        strings.TrimSpace(form.VAT),
		Pct:        parsePct(form.Pct),
		Commentary: form.Commentary,
		FileURL:    ref.FileURL,
		FileName:   ref.FileName,
		Status:     bill.StatusPending,
	}
}

// parseAmount reads an amount as typed; anything unreadable is zero
func parseAmount(value string) float64 {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return amount
}

func parsePct(value string) int {
	pct, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return pct
}
