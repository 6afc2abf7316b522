package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDsCarryPrefix(t *testing.T) {
	id := NewNodeID()
	assert.True(t, strings.HasPrefix(id, PrefixNode+"_"), id)
	require.NoError(t, Validate(id, PrefixNode))
	assert.NotEqual(t, id, NewNodeID())
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	err := Validate(NewEdgeID(), PrefixNode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected prefix")
}

func TestValidateRejectsGarbage(t *testing.T) {
	require.Error(t, Validate("not an id", PrefixCanvas))
}
