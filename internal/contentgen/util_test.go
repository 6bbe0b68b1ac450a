package contentgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock_JSONFence(t *testing.T) {
	input := "```json\n{\"key\": \"value\"}\n```"
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_GenericFenceWithLanguage(t *testing.T) {
	input := "```javascript\n{\"key\": \"value\"}\n```"
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_FenceWithoutLanguage(t *testing.T) {
	input := "```\n[1, 2, 3]\n```"
	assert.Equal(t, `[1, 2, 3]`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_PlainTextUnchanged(t *testing.T) {
	input := `{"already": "clean"}`
	assert.Equal(t, input, CleanJSONBlock(input))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "long ex...", Truncate("long example text", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
