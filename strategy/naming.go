package strategy

import (
	"go/token"
	"strings"
)

const interfaceLabel = "Interface"

// lowerCamel lowercases the leading run of ASCII capitals, so "HTTPClient"
// becomes "httpclient" and "Logger" becomes "logger".
func lowerCamel(name string) string {
	b := []byte(name)
	for i := 0; i < len(b); i++ {
		if b[i] < 'A' || b[i] > 'Z' {
			break
		}
		b[i] += 'a' - 'A'
	}
	return string(b)
}

// stripInterface drops a trailing "Interface" label.
func stripInterface(name string) string {
	if len(name) < len(interfaceLabel) {
		return name
	}
	return strings.TrimSuffix(name, interfaceLabel)
}

// safeIdent makes name usable as a Go identifier.
func safeIdent(name string) string {
	if name == "" {
		return "v"
	}
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}
