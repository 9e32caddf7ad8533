package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "generation:progress:sess-1", Key("sess-1"))
	assert.Equal(t, "generation:progress:", Key(""))
}
