package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestInfo_String(t *testing.T) {
	s := Get().String()

	assert.Contains(t, s, "hashback")
	assert.Contains(t, s, Version)
	assert.Contains(t, s, Commit)
}
