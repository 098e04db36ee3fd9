package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureWriterWithinLimit(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 64}

	n, err := cw.Write([]byte(`{"slots":[]}`))
	assert.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, int64(12), cw.size)
	assert.Equal(t, `{"slots":[]}`, cw.buf.String())
}

// A response larger than the capture limit must be detectable afterwards:
// the buffer stops at the limit but size keeps counting, so size > limit
// marks the capture as truncated and not safe to cache.
func TestCaptureWriterOversizedResponse(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 10}

	first := strings.Repeat("a", 10)
	second := strings.Repeat("b", 5)
	_, err := cw.Write([]byte(first))
	assert.NoError(t, err)
	_, err = cw.Write([]byte(second))
	assert.NoError(t, err)

	assert.Equal(t, first, cw.buf.String()) // nothing past the limit captured
	assert.Equal(t, int64(15), cw.size)
	assert.Greater(t, cw.size, cw.limit)
}

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	payload, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	assert.NoError(t, err)

	status, decoded, body, ok := decodePayload(payload)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", decoded.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 1, 2})
	assert.False(t, ok)
}
