package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resume-smart-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DisabledWithoutURL(t *testing.T) {
	assert.Nil(t, NewClient(config.TikaConfig{}))
}

func TestExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-raw", string(body))
		_, _ = w.Write([]byte("Jane Doe\nSoftware Engineer\n"))
	}))
	defer srv.Close()

	c := NewClient(config.TikaConfig{ServerURL: srv.URL + "/"})
	text, err := c.ExtractText(context.Background(), strings.NewReader("%PDF-raw"), "CV.PDF")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer\n", text)
}

func TestExtractText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(config.TikaConfig{ServerURL: srv.URL})
	_, err := c.ExtractText(context.Background(), strings.NewReader("x"), "a.bin")
	assert.Error(t, err)
}
