package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	assert.Empty(t, ClientOptions("  "))
	assert.Len(t, ClientOptions(`{"type":"service_account"}`), 1)
	assert.Len(t, ClientOptions("/etc/gcp/sa.json"), 1)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	s := &Store{bucket: "b", baseURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/certificates/WCU-00001/1.pdf", s.PublicURL("certificates/WCU-00001/1.pdf"))
}
