package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
		wantJSON  bool
	}{
		{EnvLocal, true, false},
		{EnvDev, true, true},
		{EnvProd, false, true},
		{"unknown", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.env, &buf)

			log.Debug("debug line")
			log.Info("info line")

			out := buf.String()
			assert.Contains(t, out, "info line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantJSON, bytes.HasPrefix(buf.Bytes(), []byte("{")))
		})
	}
}

func TestFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rank.log")

	log := FileOnly(EnvProd, FileOptions{Path: path, MaxSizeMB: 1})
	log.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestFileOnly_NoPath(t *testing.T) {
	log := FileOnly(EnvProd, FileOptions{})
	assert.NotPanics(t, func() { log.Info("dropped") })
}
