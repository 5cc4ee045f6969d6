package service

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("bare base64 defaults to png", func(t *testing.T) {
		data, ext, err := decodeImagePayload(encoded)
		require.NoError(t, err)
		assert.Equal(t, raw, data)
		assert.Equal(t, "png", ext)
	})

	t.Run("data URI carries the extension", func(t *testing.T) {
		data, ext, err := decodeImagePayload("data:image/jpeg;base64," + encoded)
		require.NoError(t, err)
		assert.Equal(t, raw, data)
		assert.Equal(t, "jpeg", ext)
	})

	t.Run("malformed data URI", func(t *testing.T) {
		_, _, err := decodeImagePayload("data:image/png;base64")
		assert.Error(t, err)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, _, err := decodeImagePayload("not base64 at all!!!")
		assert.Error(t, err)
	})
}
