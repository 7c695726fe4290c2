package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/session"
	"github.com/five82/handbook/internal/state"
)

// Ensure Client satisfies the state container's backend contracts.
var (
	_ state.Remote = (*Client)(nil)
	_ state.Auth   = (*Client)(nil)
)

const (
	defaultURL             = "http://127.0.0.1:54321"
	defaultUserAgent       = "handbook/0.1"
	defaultEntriesTable    = "entries"
	defaultCategoriesTable = "kategorien"

	restPrefix = "/rest/v1/"
	authPrefix = "/auth/v1/"
)

// Options configure a Client.
type Options struct {
	URL             string
	AnonKey         string
	EntriesTable    string
	CategoriesTable string
	SessionFile     string       // empty disables session persistence
	HTTPClient      *http.Client // nil uses a client without timeout
	Logger          *slog.Logger
	UserAgent       string
}

// Client talks to a Supabase project: PostgREST for the tables and GoTrue
// for password authentication.
type Client struct {
	baseURL         *url.URL
	anonKey         string
	http            *http.Client
	userAgent       string
	entriesTable    string
	categoriesTable string
	sessionFile     string
	log             *slog.Logger
	now             func() time.Time

	bus session.Bus
}

// NewClient builds a Client and restores a persisted session when one is
// configured and still valid.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:         base,
		anonKey:         strings.TrimSpace(opts.AnonKey),
		http:            httpClient,
		userAgent:       orDefault(opts.UserAgent, defaultUserAgent),
		entriesTable:    orDefault(opts.EntriesTable, defaultEntriesTable),
		categoriesTable: orDefault(opts.CategoriesTable, defaultCategoriesTable),
		sessionFile:     strings.TrimSpace(opts.SessionFile),
		log:             logger.With("component", "supabase"),
		now:             time.Now,
	}
	c.restoreSession()
	return c, nil
}

// SelectEntries reads every row of the entries table.
func (c *Client) SelectEntries(ctx context.Context) ([]handbook.Entry, error) {
	var rows []handbook.Entry
	q := url.Values{"select": {"*"}}
	if err := c.do(ctx, http.MethodGet, c.tableURL(c.entriesTable, q), nil, "", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SelectCategories reads the name column of the categories table.
func (c *Client) SelectCategories(ctx context.Context) ([]string, error) {
	var rows []handbook.Category
	q := url.Values{"select": {"name"}}
	if err := c.do(ctx, http.MethodGet, c.tableURL(c.categoriesTable, q), nil, "", &rows); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names, nil
}

// InsertEntry inserts one row and returns it as stored, with its assigned id.
func (c *Client) InsertEntry(ctx context.Context, fields handbook.EntryFields) (handbook.Entry, error) {
	var rows []handbook.Entry
	body := []handbook.EntryFields{fields}
	if err := c.do(ctx, http.MethodPost, c.tableURL(c.entriesTable, nil), body, "return=representation", &rows); err != nil {
		return handbook.Entry{}, err
	}
	if len(rows) == 0 {
		return handbook.Entry{}, fmt.Errorf("insert into %s returned no rows", c.entriesTable)
	}
	return rows[0], nil
}

// UpdateEntry patches the row with the given id. It returns nil when no row matched.
func (c *Client) UpdateEntry(ctx context.Context, id string, fields handbook.EntryFields) (*handbook.Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("entry id required")
	}
	var rows []handbook.Entry
	q := url.Values{"id": {"eq." + id}}
	if err := c.do(ctx, http.MethodPatch, c.tableURL(c.entriesTable, q), fields, "return=representation", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// DeleteEntry removes the row with the given id.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("entry id required")
	}
	q := url.Values{"id": {"eq." + id}}
	return c.do(ctx, http.MethodDelete, c.tableURL(c.entriesTable, q), nil, "return=minimal", nil)
}

// InsertCategory inserts a category row. Uniqueness is up to the table.
func (c *Client) InsertCategory(ctx context.Context, name string) error {
	body := []handbook.Category{{Name: name}}
	return c.do(ctx, http.MethodPost, c.tableURL(c.categoriesTable, nil), body, "return=minimal", nil)
}

func (c *Client) tableURL(table string, q url.Values) *url.URL {
	rel := &url.URL{Path: restPrefix + table}
	if len(q) > 0 {
		rel.RawQuery = q.Encode()
	}
	return rel
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body any, prefer string, dest any) error {
	return c.doWithToken(ctx, method, rel, body, prefer, c.bearerToken(), dest)
}

func (c *Client) doWithToken(ctx context.Context, method string, rel *url.URL, body any, prefer, token string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return decodeAPIError(rel.Path, resp.StatusCode, data)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bearerToken prefers a live user session over the anon key.
func (c *Client) bearerToken() string {
	if s := c.bus.Current(); s != nil && s.AccessToken != "" && !s.Expired(c.now()) {
		return s.AccessToken
	}
	return c.anonKey
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse supabase url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse supabase url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
