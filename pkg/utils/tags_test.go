package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinSplitRoundTrip(t *testing.T) {
	tags := []string{"fast delivery", "trusted since 1998", "open late"}
	joined := JoinTags(tags)
	assert.Equal(t, "fast delivery,trusted since 1998,open late", joined)
	assert.Equal(t, tags, SplitTags(joined))
}

func TestSplitTagsEmpty(t *testing.T) {
	assert.Empty(t, SplitTags(""))
	assert.Empty(t, SplitTags("   "))
}

func TestJoinTagsDropsEmptyElements(t *testing.T) {
	assert.Equal(t, "a,b", JoinTags([]string{"a", "", "  ", "b"}))
}

func TestLimitTags(t *testing.T) {
	tags := []string{"a", "b", "c", "d"}

	limited := LimitTags(tags, 2)
	assert.Equal(t, []string{"a", "b"}, limited)

	// Must not alias the input slice.
	limited[0] = "x"
	assert.Equal(t, "a", tags[0])

	assert.Equal(t, tags, LimitTags(tags, 10))
	assert.Empty(t, LimitTags(tags, 0))
	assert.Empty(t, LimitTags(nil, 3))
}
