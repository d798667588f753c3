package nodefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperator_Description(t *testing.T) {
	assert.Len(t, operatorDescriptions, 16)

	for op, description := range operatorDescriptions {
		assert.True(t, op.IsValid(), op)
		assert.NotEmpty(t, description, op)
	}

	assert.Equal(t, "Filter nodes by property of (strict) equality.", OpEq.Description())
	assert.Equal(t, "Filter nodes which have a string property of specified length.", OpLen.Description())
}

func TestOperator_IsValid(t *testing.T) {
	assert.False(t, Operator("startsWith").IsValid())
	assert.False(t, Operator("").IsValid())
	assert.Empty(t, Operator("startsWith").Description())
}
