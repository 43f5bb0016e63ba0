package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const firestorePageSize = 300

var (
	_ record.Store  = (*FirestoreStore)(nil)
	_ record.Pinger = (*FirestoreStore)(nil)
)

// FirestoreStore talks to the Firestore REST API (v1).
// Every value read from the wire passes through decodeDocument, so callers
// only ever see flat string fields.
type FirestoreStore struct {
	client  *http.Client
	docsURL string // .../projects/{p}/databases/{d}/documents
	apiKey  string
	logger  *zap.Logger
}

// FirestoreOption configures a FirestoreStore
type FirestoreOption func(*FirestoreStore)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) FirestoreOption {
	return func(s *FirestoreStore) {
		s.client = c
	}
}

// WithFirestoreLogger sets the logger
func WithFirestoreLogger(logger *zap.Logger) FirestoreOption {
	return func(s *FirestoreStore) {
		s.logger = logger
	}
}

// NewFirestoreStore creates a store for the configured project and database
func NewFirestoreStore(cfg *config.FirestoreConfig, opts ...FirestoreOption) (*FirestoreStore, error) {
	if cfg == nil {
		return nil, errors.New("firestore configuration is required")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://firestore.googleapis.com/v1"
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid firestore base url: %w", err)
	}
	database := cfg.DatabaseID
	if database == "" {
		database = "(default)"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &FirestoreStore{
		client:  &http.Client{Timeout: timeout},
		docsURL: fmt.Sprintf("%s/projects/%s/databases/%s/documents", base, url.PathEscape(cfg.ProjectID), url.PathEscape(database)),
		apiKey:  cfg.APIKey,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// firestoreValue is one typed Firestore value. Only scalar kinds are read.
type firestoreValue struct {
	StringValue    *string  `json:"stringValue,omitempty"`
	IntegerValue   *string  `json:"integerValue,omitempty"`
	DoubleValue    *float64 `json:"doubleValue,omitempty"`
	BooleanValue   *bool    `json:"booleanValue,omitempty"`
	TimestampValue *string  `json:"timestampValue,omitempty"`
	NullValue      *string  `json:"nullValue,omitempty"`
}

type firestoreDocument struct {
	Name   string                    `json:"name,omitempty"`
	Fields map[string]firestoreValue `json:"fields"`
}

type firestoreListResponse struct {
	Documents     []firestoreDocument `json:"documents"`
	NextPageToken string              `json:"nextPageToken"`
}

type firestoreErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// decodeDocument converts a wire document into a record.Document. The id is
// the last segment of the resource name.
func decodeDocument(d firestoreDocument) record.Document {
	fields := make(record.Fields, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = decodeValue(v)
	}
	return record.Document{ID: path.Base(d.Name), Fields: fields}
}

func decodeValue(v firestoreValue) string {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		return *v.IntegerValue
	case v.DoubleValue != nil:
		return strconv.FormatFloat(*v.DoubleValue, 'f', -1, 64)
	case v.BooleanValue != nil:
		return strconv.FormatBool(*v.BooleanValue)
	case v.TimestampValue != nil:
		return *v.TimestampValue
	default:
		return ""
	}
}

// encodeFields wraps every field as a Firestore stringValue
func encodeFields(fields record.Fields) firestoreDocument {
	out := firestoreDocument{Fields: make(map[string]firestoreValue, len(fields))}
	for k, v := range fields {
		out.Fields[k] = firestoreValue{StringValue: &v}
	}
	return out
}

// List pages through the whole collection
func (s *FirestoreStore) List(ctx context.Context, collection string) ([]record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}

	docs := make([]record.Document, 0)
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(firestorePageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page firestoreListResponse
		if err := s.do(ctx, http.MethodGet, s.docsURL+"/"+collection, q, nil, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		for _, d := range page.Documents {
			docs = append(docs, decodeDocument(d))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	record.SortByID(docs)
	return docs, nil
}

// Get fetches one document
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}

	var d firestoreDocument
	if err := s.do(ctx, http.MethodGet, s.documentURL(collection, id), nil, nil, &d); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	doc := decodeDocument(d)
	return &doc, nil
}

// Add creates a document with a server-assigned id
func (s *FirestoreStore) Add(ctx context.Context, collection string, fields record.Fields) (string, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return "", err
	}

	var created firestoreDocument
	if err := s.do(ctx, http.MethodPost, s.docsURL+"/"+collection, nil, encodeFields(fields), &created); err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	id := path.Base(created.Name)
	if id == "" || id == "." || id == "/" {
		return "", shared.ErrStoreUnavailable.WithCause(errors.New("firestore returned a document without a name"))
	}
	return id, nil
}

// Update patches only the given fields and fails when the document is missing
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields record.Fields) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("currentDocument.exists", "true")
	for _, k := range fields.Keys() {
		q.Add("updateMask.fieldPaths", k)
	}
	if err := s.do(ctx, http.MethodPatch, s.documentURL(collection, id), q, encodeFields(fields), nil); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document and fails when it is missing
func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("currentDocument.exists", "true")
	if err := s.do(ctx, http.MethodDelete, s.documentURL(collection, id), q, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping lists a single document of the users collection
func (s *FirestoreStore) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("pageSize", "1")
	return s.do(ctx, http.MethodGet, s.docsURL+"/"+record.CollectionUsers, q, nil, nil)
}

func (s *FirestoreStore) documentURL(collection, id string) string {
	return s.docsURL + "/" + collection + "/" + url.PathEscape(id)
}

func (s *FirestoreStore) do(ctx context.Context, method, rawURL string, q url.Values, body, out any) error {
	if s.apiKey != "" {
		if q == nil {
			q = url.Values{}
		}
		q.Set("key", s.apiKey)
	}
	if len(q) > 0 {
		rawURL += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return shared.ErrStoreUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return s.statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shared.ErrStoreUnavailable.WithCause(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (s *FirestoreStore) statusError(resp *http.Response) error {
	var fe firestoreErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &fe)
	cause := fmt.Errorf("firestore: %s %s", resp.Status, fe.Error.Message)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound.WithCause(cause)
	case resp.StatusCode == http.StatusBadRequest:
		return shared.ErrInvalidInput.WithCause(cause)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.logger.Warn("Firestore rejected credentials", zap.Int("status", resp.StatusCode), zap.String("status_text", fe.Error.Status))
		return shared.ErrStoreUnavailable.WithCause(cause)
	default:
		return shared.ErrStoreUnavailable.WithCause(cause)
	}
}
