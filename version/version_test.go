package version

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/cachedprop/naming"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, naming.Version, info.Naming)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestString(t *testing.T) {
	info := Info{CommitHash: "0123456789abcdef", BuildTime: "2026-01-02", Version: "v1.2.0"}
	assert.Equal(t, "cachedprop v1.2.0 (commit 0123456, built 2026-01-02)", info.String())

	info.Version = "dev"
	assert.Equal(t, "cachedprop dev (commit 0123456, built 2026-01-02)", info.String())
}

func TestShort(t *testing.T) {
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
	assert.Equal(t, "abcdef1", Info{CommitHash: "abcdef1234"}.Short())
}
