package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"wcu-registry/internal/ports/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	s := New("http://localhost:8080/files/")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "certificates/WCU-00001/1.pdf", "application/pdf", strings.NewReader("%PDF")))

	rc, err := s.Get(ctx, "certificates/WCU-00001/1.pdf")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "%PDF", string(b))

	assert.Equal(t, "http://localhost:8080/files/certificates/WCU-00001/1.pdf", s.PublicURL("/certificates/WCU-00001/1.pdf"))

	require.NoError(t, s.Delete(ctx, "certificates/WCU-00001/1.pdf"))
	_, err = s.Get(ctx, "certificates/WCU-00001/1.pdf")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nope"), objectstore.ErrNotFound)
}
