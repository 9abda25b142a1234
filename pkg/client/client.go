package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/jmerrifield20/listingledger/internal/listing"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// pageSize is the page size AllRecords requests.
const pageSize = 500

// Record is a ledger record as served by the API.
type Record = chain.Record

// Listing types as served by the API.
type (
	Listing           = listing.Listing
	ListingEvent      = listing.Event
	AddListingRequest = listing.AddRequest
)

// AddListingResult is the response of POST /listings: the listing after the
// event and the record that carries it.
type AddListingResult struct {
	Listing Listing `json:"listing"`
	Record  Record  `json:"record"`
}

// Overview summarises the remote chain.
type Overview struct {
	Records int    `json:"records"`
	Root    string `json:"root"`
}

// VerifyResult is the server's integrity verdict. Position is only
// meaningful when Valid is false and the failure points at a record.
type VerifyResult struct {
	Valid    bool   `json:"valid"`
	Root     string `json:"root,omitempty"`
	Position *int   `json:"position,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Page is one slice of GET /ledger/records.
type Page struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// Client talks to one listingledger server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.httpClient.Timeout = d
		return nil
	}
}

// New creates a Client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Overview returns the chain length and root hash.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	if err := c.getJSON(ctx, "/api/v1/ledger", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the server to walk its chain.
func (c *Client) Verify(ctx context.Context) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.getJSON(ctx, "/api/v1/ledger/verify", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Records returns one page of records starting at offset.
func (c *Client) Records(ctx context.Context, offset, limit int) (*Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var out Page
	if err := c.getJSON(ctx, "/api/v1/ledger/records?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllRecords pages through the whole chain in order.
func (c *Client) AllRecords(ctx context.Context) ([]Record, error) {
	var all []Record
	for {
		page, err := c.Records(ctx, len(all), pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if len(page.Records) == 0 || len(all) >= page.Total {
			return all, nil
		}
	}
}

// Record returns the record at position.
func (c *Client) Record(ctx context.Context, position int) (*Record, error) {
	var out Record
	if err := c.getJSON(ctx, "/api/v1/ledger/records/"+strconv.Itoa(position), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Append adds payload to the remote chain and returns the new record.
func (c *Client) Append(ctx context.Context, payload string) (*Record, error) {
	var out Record
	if err := c.postJSON(ctx, "/api/v1/ledger/records", map[string]string{"payload": payload}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddListing records a listing event. Repeating an address extends that
// listing's price and owner history.
func (c *Client) AddListing(ctx context.Context, req AddListingRequest) (*AddListingResult, error) {
	var out AddListingResult
	if err := c.postJSON(ctx, "/api/v1/listings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Listings returns every listing on the chain.
func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	var out struct {
		Listings []Listing `json:"listings"`
	}
	if err := c.getJSON(ctx, "/api/v1/listings", &out); err != nil {
		return nil, err
	}
	return out.Listings, nil
}

// Listing returns the current state of listing id.
func (c *Client) Listing(ctx context.Context, id string) (*Listing, error) {
	var out Listing
	if err := c.getJSON(ctx, "/api/v1/listings/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListingHistory returns the events of listing id in chain order.
func (c *Client) ListingHistory(ctx context.Context, id string) ([]ListingEvent, error) {
	var out struct {
		History []ListingEvent `json:"history"`
	}
	if err := c.getJSON(ctx, "/api/v1/listings/"+url.PathEscape(id)+"/history", &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// VerifyLocally re-checks records fetched from a server without trusting
// the server's verdict.
func VerifyLocally(records []Record) error {
	return chain.VerifyRecords(records)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do executes an HTTP request and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", req.URL.Path, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, apiError(body))
	}
	return body, nil
}

// apiError extracts the "error" field of a JSON error body, falling back to
// the raw body.
func apiError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
