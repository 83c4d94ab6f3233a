package infrastructure

import (
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFromMIME(t *testing.T) {
	for mime, want := range map[string]string{
		"image/jpeg": "jpg",
		"image/jpg":  "jpg",
		"image/png":  "png",
		"image/webp": "webp",
		"image/gif":  "gif",
	} {
		got, err := ExtensionFromMIME(mime)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ExtensionFromMIME("application/pdf")
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
	assert.ErrorIs(t, err, e.ErrValidation)
}
