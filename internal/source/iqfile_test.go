package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.iq")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestIQFileReaderConversion(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	// Two samples: full-scale negative and full-scale positive.
	path := writeCapture(t, []byte{0x00, 0x00, 0xFF, 0xFF})
	r, err := NewIQFileReader(path, 2, logger)
	require.NoError(t, err)
	defer r.Close()

	frame, err := r.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Len(t, frame, 2)
	assert.Equal(t, complex(-127.5, -127.5), frame[0])
	assert.Equal(t, complex(127.5, 127.5), frame[1])

	_, err = r.ReadFrame(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestIQFileReaderPadsPartialFrame(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	// Three samples with a frame size of two: the second frame is half
	// real data, half 0x80 padding.
	path := writeCapture(t, []byte{0x80, 0x80, 0x80, 0x80, 0x00, 0xFF})
	r, err := NewIQFileReader(path, 2, logger)
	require.NoError(t, err)
	defer r.Close()

	frame, err := r.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Len(t, frame, 2)

	frame, err = r.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Len(t, frame, 2, "partial tail frame is padded to full size")
	assert.Equal(t, complex(-127.5, 127.5), frame[0])
	assert.Equal(t, complex(0.5, 0.5), frame[1])

	_, err = r.ReadFrame(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestIQFileReaderHonorsContext(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	path := writeCapture(t, make([]byte, 8))
	r, err := NewIQFileReader(path, 2, logger)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ReadFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIQFileReaderRejectsBadFrameSize(t *testing.T) {
	logger := logrus.New()
	_, err := NewIQFileReader("irrelevant", 0, logger)
	assert.Error(t, err)
}

func TestIQFileReaderMissingFile(t *testing.T) {
	logger := logrus.New()
	_, err := NewIQFileReader(filepath.Join(t.TempDir(), "nope.iq"), 2, logger)
	assert.Error(t, err)
}
