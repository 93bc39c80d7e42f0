package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskMetadata(t *testing.T) {
	out := MaskMetadata(map[string]any{
		"phone":       "081234567890",
		"member_code": "M-001",
		"nested":      map[string]any{"member_phone": "0899"},
		"":            "dropped",
	})

	assert.Equal(t, "****890", out["phone"])
	assert.Equal(t, "M-001", out["member_code"])
	assert.Equal(t, map[string]any{"member_phone": "****899"}, out["nested"])
	assert.NotContains(t, out, "")
}

func TestMaskPhoneShort(t *testing.T) {
	assert.Equal(t, "****", MaskPhone("12"))
	assert.Equal(t, "", MaskPhone("  "))
}
