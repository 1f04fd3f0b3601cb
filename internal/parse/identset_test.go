package parse

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentSetDedupsAndPreservesOrder(t *testing.T) {
	s := newIdentSet()
	assert.True(t, s.add("a"))
	assert.True(t, s.add("b"))
	assert.True(t, s.add("a"))
	assert.Equal(t, []string{"a", "b"}, s.values())
}

func TestIdentSetIgnoresEmpty(t *testing.T) {
	s := newIdentSet()
	s.add("")
	assert.Empty(t, s.values())
}

func TestIdentSetCapsAtMax(t *testing.T) {
	s := newIdentSet()
	for i := 0; i < maxIdentsPerFile+5; i++ {
		s.add("ident" + strconv.Itoa(i))
	}
	assert.Len(t, s.values(), maxIdentsPerFile)
}

func TestIdentSetValuesNeverNil(t *testing.T) {
	s := newIdentSet()
	assert.NotNil(t, s.values())
}
