package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDHelpers(t *testing.T) {
	id := GenerateUUID()
	assert.True(t, IsValidUUID(id))
	assert.NotEqual(t, id, GenerateUUID())

	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
}
