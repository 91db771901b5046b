package protocol

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDerivativeMetadataNaming(t *testing.T) {
	got := DerivativeMetadata(AssetMetadata{
		Name:   "Wrapped SOL",
		Symbol: "SOL",
		URI:    "https://example.org/sol.json",
	})

	assert.Equal(t, "Liquid Wrapped SOL", got.Name)
	assert.Equal(t, "liSOL", got.Symbol)
	assert.Equal(t, "https://example.org/sol.json", got.URI)
}

func TestDerivativeMetadataTrimsPadding(t *testing.T) {
	// On-chain metadata often arrives space-padded to field width.
	got := DerivativeMetadata(AssetMetadata{
		Name:   "Token   ",
		Symbol: "TOK  ",
	})

	assert.Equal(t, "Liquid Token", got.Name)
	assert.Equal(t, "liTOK", got.Symbol)
}

func TestDerivativeMetadataByteCaps(t *testing.T) {
	got := DerivativeMetadata(AssetMetadata{
		Name:   "An Exceedingly Long Token Name Indeed",
		Symbol: "LONGSYMBOL",
	})

	assert.LessOrEqual(t, len(got.Name), 32)
	assert.LessOrEqual(t, len(got.Symbol), 10)
	assert.Equal(t, "Liquid An Exceedingly Long Token", got.Name)
	assert.Equal(t, "liLONGSYMB", got.Symbol)
}

func TestDerivativeMetadataDoesNotSplitRunes(t *testing.T) {
	got := DerivativeMetadata(AssetMetadata{
		Name:   "Токен Легчайшей Ликвидности",
		Symbol: "ТОКЕН",
	})

	assert.True(t, utf8.ValidString(got.Name))
	assert.True(t, utf8.ValidString(got.Symbol))
	assert.LessOrEqual(t, len(got.Name), 32)
	assert.LessOrEqual(t, len(got.Symbol), 10)
}
