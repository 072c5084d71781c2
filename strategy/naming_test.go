package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerCamel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "Logger", want: "logger"},
		{in: "HTTPClient", want: "httpclient"},
		{in: "LoggerInterface", want: "loggerInterface"},
		{in: "ABC", want: "abc"},
		{in: "already", want: "already"},
		{in: "", want: ""},
		{in: "X9Y", want: "x9Y"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lowerCamel(tt.in))
		})
	}
}

func TestStripInterface(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Logger", stripInterface("LoggerInterface"))
	assert.Equal(t, "logger", stripInterface("loggerInterface"))
	assert.Equal(t, "Logger", stripInterface("Logger"))
	assert.Equal(t, "Face", stripInterface("Face"))
	assert.Equal(t, "", stripInterface("Interface"))
	assert.Equal(t, "InterfaceX", stripInterface("InterfaceX"))
}

func TestSafeIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "type_", safeIdent("type"))
	assert.Equal(t, "func_", safeIdent("func"))
	assert.Equal(t, "logger", safeIdent("logger"))
	assert.Equal(t, "v", safeIdent(""))
}
