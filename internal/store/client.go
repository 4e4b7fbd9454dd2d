package store

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zombor/billed/internal/bill"
)

const (
	billsPath = "/bills"
	billPath  = "/bills/{id}"
	filesPath = "/files"
)

// HTTPClient implements Client against the bill store HTTP API
type HTTPClient struct {
	bills *httpBills
	files *httpFiles
}

// NewHTTPClient creates a client for the store API rooted at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		rest.SetTimeout(timeout)
	}

	return &HTTPClient{
		bills: &httpBills{rest: rest},
		files: &httpFiles{rest: rest},
	}
}

// Bills returns the bills sub-client
func (c *HTTPClient) Bills() Bills {
	return c.bills
}

// Files returns the files sub-client
func (c *HTTPClient) Files() Files {
	return c.files
}

type httpBills struct {
	rest *resty.Client
}

func (b *httpBills) List(ctx context.Context) ([]bill.Bill, error) {
	var bills []bill.Bill
	resp, err := b.rest.R().
		SetContext(ctx).
		SetResult(&bills).
		Get(billsPath)
	if err := check("listing bills", resp, err); err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []bill.Bill{}
	}
	return bills, nil
}

func (b *httpBills) Create(ctx context.Context, payload bill.Bill) (bill.Bill, error) {
	var created bill.Bill
	resp, err := b.rest.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		Post(billsPath)
	if err := check("creating bill", resp, err); err != nil {
		return bill.Bill{}, err
	}
	return created, nil
}

func (b *httpBills) Update(ctx context.Context, payload bill.Bill) (bill.Bill, error) {
	if payload.ID == "" {
		return bill.Bill{}, &Error{Op: "updating bill", Kind: Unknown, Err: ErrMissingID}
	}

	var updated bill.Bill
	resp, err := b.rest.R().
		SetContext(ctx).
		SetPathParam("id", payload.ID).
		SetBody(payload).
		SetResult(&updated).
		Patch(billPath)
	if err := check("updating bill "+payload.ID, resp, err); err != nil {
		return bill.Bill{}, err
	}
	return updated, nil
}

type httpFiles struct {
	rest *resty.Client
}

func (f *httpFiles) Create(ctx context.Context, upload Upload) (FileRef, error) {
	var ref FileRef
	resp, err := f.rest.R().
		SetContext(ctx).
		SetMultipartField("file", upload.Name, upload.ContentType, bytes.NewReader(upload.Data)).
		SetMultipartFormData(map[string]string{"email": upload.Email}).
		SetResult(&ref).
		Post(filesPath)
	if err := check("uploading file "+upload.Name, resp, err); err != nil {
		return FileRef{}, err
	}
	return ref, nil
}

// check turns a transport error or a non-2xx response into an *Error
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &Error{Op: op, Kind: Unknown, Err: err}
	}
	if !resp.IsSuccess() {
		return StatusError(op, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
