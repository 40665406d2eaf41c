package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestIdentity_Predicates(t *testing.T) {
	assert.False(t, Identity{}.HasNumber())
	assert.False(t, Identity{}.HasAmount())

	id := Identity{Number: "87654321"}
	assert.True(t, id.HasNumber())
	assert.True(t, id.ShortForm())

	long := Identity{Number: "12345678901234567890"}
	assert.False(t, long.ShortForm())

	withAmt := id.WithAmount(decimal.RequireFromString("15.5"))
	assert.True(t, withAmt.HasAmount())
	assert.False(t, id.HasAmount(), "WithAmount must not mutate the receiver")
}

func TestFileName(t *testing.T) {
	id := Identity{Number: "87654321", Amount: amt("15.5")}

	tests := []struct {
		name       string
		id         Identity
		ext        string
		withAmount bool
		want       string
	}{
		{"amount visible", id, ".pdf", true, "[¥15.50]87654321.pdf"},
		{"amount hidden by policy", id, ".pdf", false, "87654321.pdf"},
		{"no amount known", Identity{Number: "87654321"}, ".ofd", true, "87654321.ofd"},
		{"zero amount still rendered", Identity{Number: "87654321", Amount: amt("0")}, ".pdf", true, "[¥0.00]87654321.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.id, tt.ext, tt.withAmount))
		})
	}
}

func TestAmountFromFilename(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		name := FileName(Identity{Number: "87654321", Amount: amt("286.79")}, ".pdf", true)
		got := AmountFromFilename(name)
		require.NotNil(t, got)
		assert.Equal(t, "286.79", FormatAmount(*got))
	})
	t.Run("suffixed collision name still parses", func(t *testing.T) {
		got := AmountFromFilename("[¥10.00]87654321_1.pdf")
		require.NotNil(t, got)
		assert.Equal(t, "10.00", FormatAmount(*got))
	})
	t.Run("plain name has no amount", func(t *testing.T) {
		assert.Nil(t, AmountFromFilename("87654321.pdf"))
		assert.Nil(t, AmountFromFilename("scan_001.pdf"))
	})
	t.Run("malformed bracket is ignored", func(t *testing.T) {
		assert.Nil(t, AmountFromFilename("[¥..]87654321.pdf"))
	})
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "15.50", FormatAmount(decimal.RequireFromString("15.5")))
	assert.Equal(t, "100.00", FormatAmount(decimal.RequireFromString("100")))
	assert.Equal(t, "0.99", FormatAmount(decimal.RequireFromString("0.99")))
}
