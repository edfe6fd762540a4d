package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	dev := Info{Version: "dev", CommitHash: "abc1234def", BuildTime: "now"}
	assert.Equal(t, "mavgen dev (commit abc1234def, built now)", dev.String())
	assert.Equal(t, "abc1234", dev.Short())

	tagged := Info{Version: "v1.2.3", CommitHash: "abc", BuildTime: "now"}
	assert.Equal(t, "mavgen v1.2.3 (commit abc, built now)", tagged.String())
	assert.Equal(t, "abc", tagged.Short())
}

func TestSemver(t *testing.T) {
	assert.Equal(t, "1.2.3", Info{Version: "v1.2.3"}.Semver().String())
	assert.Equal(t, "0.0.0-dev", Info{Version: "dev"}.Semver().String())
	assert.True(t, Info{Version: "dev"}.Semver().LessThan(Info{Version: "0.1.0"}.Semver()))
}
