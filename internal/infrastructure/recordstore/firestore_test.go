package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firestoreDocsPath = "/projects/isow-dev/databases/(default)/documents"

func newTestFirestore(t *testing.T, handler http.HandlerFunc) *FirestoreStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewFirestoreStore(&config.FirestoreConfig{
		BaseURL:   srv.URL,
		ProjectID: "isow-dev",
		APIKey:    "test-key",
	})
	require.NoError(t, err)
	return s
}

func TestNewFirestoreStore_Validation(t *testing.T) {
	_, err := NewFirestoreStore(nil)
	assert.Error(t, err)

	_, err = NewFirestoreStore(&config.FirestoreConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project id")
}

func TestDecodeDocument(t *testing.T) {
	raw := `{
		"name": "projects/p/databases/(default)/documents/companies/abc123",
		"fields": {
			"name": {"stringValue": "ACME"},
			"employees": {"integerValue": "42"},
			"rating": {"doubleValue": 4.5},
			"active": {"booleanValue": true},
			"deleted_at": {"nullValue": null}
		}
	}`
	var d firestoreDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	doc := decodeDocument(d)

	assert.Equal(t, "abc123", doc.ID)
	assert.Equal(t, record.Fields{
		"name":       "ACME",
		"employees":  "42",
		"rating":     "4.5",
		"active":     "true",
		"deleted_at": "",
	}, doc.Fields)
}

func TestEncodeFields(t *testing.T) {
	payload, err := json.Marshal(encodeFields(record.Fields{"name": "ACME", "cnpj": "1"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":{"name":{"stringValue":"ACME"},"cnpj":{"stringValue":"1"}}}`, string(payload))
}

func TestFirestoreStore_List(t *testing.T) {
	calls := 0
	s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, firestoreDocsPath+"/companies", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"documents":[{"name":"x/companies/b","fields":{"name":{"stringValue":"Beta"}}}],"nextPageToken":"p2"}`))
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("pageToken"))
		_, _ = w.Write([]byte(`{"documents":[{"name":"x/companies/a","fields":{"name":{"stringValue":"ACME"}}}]}`))
	})

	docs, err := s.List(context.Background(), "companies")

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "ACME", docs[0].Fields["name"])
	assert.Equal(t, "b", docs[1].ID)
}

func TestFirestoreStore_ListEmptyCollection(t *testing.T) {
	s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	docs, err := s.List(context.Background(), "users")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestFirestoreStore_Add(t *testing.T) {
	s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, firestoreDocsPath+"/users", r.URL.Path)

		var body firestoreDocument
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana", *body.Fields["name"].StringValue)

		_, _ = w.Write([]byte(`{"name":"projects/isow-dev/databases/(default)/documents/users/new-id","fields":{}}`))
	})

	id, err := s.Add(context.Background(), "users", record.Fields{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
}

func TestFirestoreStore_Update(t *testing.T) {
	t.Run("sends update mask and existence precondition", func(t *testing.T) {
		s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, firestoreDocsPath+"/companies/a1", r.URL.Path)
			assert.Equal(t, []string{"cnpj", "name"}, r.URL.Query()["updateMask.fieldPaths"])
			assert.Equal(t, "true", r.URL.Query().Get("currentDocument.exists"))
			_, _ = w.Write([]byte(`{}`))
		})

		err := s.Update(context.Background(), "companies", "a1", record.Fields{"name": "ACME", "cnpj": "1"})
		assert.NoError(t, err)
	})

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"No document to update","status":"NOT_FOUND"}}`))
		})

		err := s.Update(context.Background(), "companies", "missing", record.Fields{"name": "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Contains(t, err.Error(), "update companies/missing")
	})
}

func TestFirestoreStore_Delete(t *testing.T) {
	s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/u1"))
		_, _ = w.Write([]byte(`{}`))
	})

	assert.NoError(t, s.Delete(context.Background(), "users", "u1"))
}

func TestFirestoreStore_ServerErrors(t *testing.T) {
	s := newTestFirestore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := s.Get(context.Background(), "users", "u1")
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)

	assert.ErrorIs(t, s.Ping(context.Background()), shared.ErrStoreUnavailable)
}
