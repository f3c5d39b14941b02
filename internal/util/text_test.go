package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanizeBytes(512))
	assert.Equal(t, "1.0KB", HumanizeBytes(1024))
	assert.Equal(t, "1.5KB", HumanizeBytes(1536))
	assert.Equal(t, "2.0MB", HumanizeBytes(2*1024*1024))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "fw-board-A.bin", Truncate("fw-board-A.bin", 20))
	assert.Equal(t, "fw-bo…", Truncate("fw-board-A.bin", 6))
	assert.Equal(t, "Zurü…", Truncate("Zurück", 5))
	assert.Equal(t, "", Truncate("abc", 0))
}
