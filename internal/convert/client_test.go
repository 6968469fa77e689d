package convert

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsentry/internal/common"
)

func TestClient_Convert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "umowa.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		content, _ := io.ReadAll(file)
		assert.Equal(t, "pdf bytes", string(content))

		_, _ = w.Write([]byte(`{"text":"znormalizowany tekst","metadata":{"filename":"umowa.pdf","size":9,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	res, err := client.Convert(context.Background(), "umowa.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	require.NotNil(t, res.Text)
	assert.Equal(t, "znormalizowany tekst", *res.Text)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "umowa.pdf", res.Metadata.Filename)
}

func TestClient_ConvertNullText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":null,"metadata":{"filename":"skan.png","size":1,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	res, err := client.Convert(context.Background(), "skan.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Nil(t, res.Text)
	require.NotNil(t, res.Metadata)
}

func TestClient_ConvertUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	_, err := client.Convert(context.Background(), "umowa.pdf", "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, common.KindUpstream, common.KindOf(err))
	assert.Contains(t, err.Error(), "Error from Conversion (500)")
	assert.Contains(t, err.Error(), "Internal Server Error")
}

func TestClient_ConvertNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	_, err := client.Convert(context.Background(), "umowa.pdf", "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, common.KindTransport, common.KindOf(err))
	assert.Contains(t, err.Error(), "Network error calling Conversion")
}

func TestClient_ConvertMissingMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"abc"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	_, err := client.Convert(context.Background(), "umowa.pdf", "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing metadata")
}

func TestClient_ConvertTruncatesHugeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 10_000)))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	_, err := client.Convert(context.Background(), "umowa.pdf", "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1000)
}
