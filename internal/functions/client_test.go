package functions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcubed/gradeboard/pkg/logger"
)

func TestFormatDocumentsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "message": "3 documents formatted"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logger.NewTestLogger())
	result, err := c.FormatDocuments(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "3 documents formatted", result.Message)
}

func TestFormatDocumentsBackendRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "no extracted documents"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logger.NewTestLogger())
	result, err := c.FormatDocuments(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "no extracted documents", result.Message)
}

func TestFormatDocumentsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logger.NewTestLogger())
	result, err := c.FormatDocuments(context.Background())

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestFormatDocumentsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	c := NewClient(srv.URL, time.Second, logger.NewTestLogger())
	_, err := c.FormatDocuments(context.Background())
	assert.Error(t, err)
}

func TestFormatDocumentsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, logger.NewTestLogger())
	_, err := c.FormatDocuments(context.Background())
	assert.Error(t, err)
}
