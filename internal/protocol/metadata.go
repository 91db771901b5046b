package protocol

import "strings"

// DerivativeMetadata derives the derivative asset's metadata from the
// underlying's: "Liquid <name>" and "li<symbol>", byte-capped to what the
// metadata service accepts, with the URI carried over unchanged.
func DerivativeMetadata(underlying AssetMetadata) AssetMetadata {
	name := "Liquid " + strings.TrimRight(underlying.Name, " ")
	symbol := "li" + strings.TrimRight(underlying.Symbol, " ")
	return AssetMetadata{
		Name:   truncateBytes(name, maxDerivativeNameBytes),
		Symbol: truncateBytes(symbol, maxDerivativeSymbolBytes),
		URI:    underlying.URI,
	}
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
