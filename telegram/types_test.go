package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Plans", Entity{Title: "Plans", FirstName: "Ada"}.DisplayTitle())
	assert.Equal(t, "Ada", Entity{FirstName: "Ada"}.DisplayTitle())
	assert.Equal(t, "Unknown", Entity{Username: "ada42"}.DisplayTitle())
}
