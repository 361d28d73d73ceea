package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildVariablesHaveDefaults(t *testing.T) {
	for name, v := range map[string]string{"Version": Version, "BuildTime": BuildTime, "GitCommit": GitCommit} {
		assert.NotEmpty(t, v, name)
	}
}
