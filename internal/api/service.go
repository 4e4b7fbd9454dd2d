package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/logger"
	"github.com/zombor/billed/internal/store"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidBill = errors.New("invalid bill")
)

// IDGenerator generates unique IDs for bills and files
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill and justification file operations
type Service struct {
	db          DB
	storage     Storage
	publicURL   string
	log         *zap.Logger
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with uuid ids and the wall clock.
// publicURL is the address clients reach the server at, used to build file urls.
func NewService(db DB, storage Storage, publicURL string, log *zap.Logger) *Service {
	return NewServiceWithDeps(db, storage, publicURL, log, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, publicURL string, log *zap.Logger, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		publicURL:   strings.TrimRight(publicURL, "/"),
		log:         logger.OrNop(log),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename keeps the extension and a short alphanumeric base
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeChars.ReplaceAllString(base, "")
	base = spaces.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "justificatif"
	}
	return base + ext
}

// FileURL returns the public url of a stored file
func (s *Service) FileURL(key string) string {
	return s.publicURL + "/files/" + url.PathEscape(key)
}

// StageFile stores a justification file and pre-allocates a pending bill
// that references it. The returned reference carries the bill id as key.
func (s *Service) StageFile(filename string, data []byte, contentType, email string) (*store.FileRef, error) {
	if err := bill.ValidateFile(filename, contentType); err != nil {
		return nil, err
	}
	contentType = bill.ContentType(filename, contentType)

	billID := s.idGenerator.Generate()
	key := fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename))

	savedKey, err := s.storage.Save(key, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	ref := &store.FileRef{
		FileURL:  s.FileURL(savedKey),
		FileName: filename,
		BillID:   billID,
	}

	staged := &bill.Bill{
		ID:       billID,
		Email:    email,
		FileURL:  ref.FileURL,
		FileName: ref.FileName,
		Status:   bill.StatusPending,
	}
	if err := s.db.SaveBill(staged); err != nil {
		s.removeFile(savedKey)
		return nil, fmt.Errorf("saving staged bill: %w", err)
	}

	meta := &StoredFile{
		Key:         savedKey,
		Name:        filename,
		ContentType: contentType,
		Email:       email,
		BillID:      billID,
		CreatedAt:   s.timeSource.Now(),
	}
	if err := s.db.SaveFile(meta); err != nil {
		if delErr := s.db.DeleteBill(billID); delErr != nil {
			s.log.Warn("Failed to delete staged bill", zap.String("bill_id", billID), zap.Error(delErr))
		}
		s.removeFile(savedKey)
		return nil, fmt.Errorf("saving file metadata: %w", err)
	}

	return ref, nil
}

func (s *Service) removeFile(key string) {
	if err := s.storage.Delete(key); err != nil {
		s.log.Warn("Failed to delete file", zap.String("key", key), zap.Error(err))
	}
}

// GetFile returns the bytes and content type of a stored file
func (s *Service) GetFile(key string) ([]byte, string, error) {
	meta, err := s.db.GetFile(key)
	if err != nil {
		return nil, "", fmt.Errorf("getting file: %w", err)
	}

	data, err := s.storage.Get(meta.Key)
	if err != nil {
		return nil, "", fmt.Errorf("getting file data: %w", err)
	}
	return data, meta.ContentType, nil
}

// ListBills returns all bills
func (s *Service) ListBills() ([]*bill.Bill, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return bills, nil
}

// CreateBill saves a new bill under a fresh id. A missing or unknown status becomes pending.
func (s *Service) CreateBill(b bill.Bill) (*bill.Bill, error) {
	b.ID = s.idGenerator.Generate()
	if !b.Status.Valid() {
		b.Status = bill.StatusPending
	}
	if err := checkFile(b); err != nil {
		return nil, err
	}

	if err := s.db.SaveBill(&b); err != nil {
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	return &b, nil
}

// UpdateBill applies a JSON patch of bill fields to an existing bill.
// Fields absent from the patch keep their stored value; the id never changes.
func (s *Service) UpdateBill(id string, patch []byte) (*bill.Bill, error) {
	existing, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}

	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBill, err)
	}
	updated.ID = existing.ID

	if updated.Status == "" {
		updated.Status = existing.Status
	}
	if !updated.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidBill, updated.Status)
	}
	if err := checkFile(updated); err != nil {
		return nil, err
	}

	if err := s.db.SaveBill(&updated); err != nil {
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	return &updated, nil
}

// checkFile rejects a bill holding only half of a file reference
func checkFile(b bill.Bill) error {
	if (b.FileURL == "") != (b.FileName == "") {
		return fmt.Errorf("%w: fileUrl and fileName must be set together", ErrInvalidBill)
	}
	return nil
}
