package uploads

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{name: "pdf within limit", filename: "syllabus.pdf", size: 1024},
		{name: "uppercase extension", filename: "GRADES.PDF", size: 1024},
		{name: "png", filename: "scan.png", size: 1024},
		{name: "too large", filename: "syllabus.pdf", size: MaxFileSize + 1, wantErr: true},
		{name: "unsupported extension", filename: "notes.docx", size: 1024, wantErr: true},
		{name: "no extension", filename: "syllabus", size: 1024, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filename, tt.size)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCopyLimitedWithinLimit(t *testing.T) {
	var buf bytes.Buffer
	n, err := copyLimited(&buf, strings.NewReader("hello"), 16)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "hello", buf.String())
}

func TestCopyLimitedExactLimit(t *testing.T) {
	var buf bytes.Buffer
	n, err := copyLimited(&buf, strings.NewReader("12345678"), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
}

func TestCopyLimitedRejectsOversizedStream(t *testing.T) {
	// A stream longer than the declared size must error, not truncate.
	var buf bytes.Buffer
	_, err := copyLimited(&buf, strings.NewReader("123456789"), 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}
