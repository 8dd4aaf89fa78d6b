package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"":        Info,
		"INFO":    Info,
		"warning": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("logfmt"))
}

func TestToZapFields_SortsAndSkipsBlankKeys(t *testing.T) {
	fields := toZapFields(map[string]any{
		"b":   1,
		"a":   "x",
		"  ":  "ignored",
		"err": errors.New("boom"),
	})
	if assert.Len(t, fields, 3) {
		assert.Equal(t, "a", fields[0].Key)
		assert.Equal(t, "b", fields[1].Key)
		assert.Equal(t, "err", fields[2].Key)
	}
}

func TestNop_WithReturnsUsableLogger(t *testing.T) {
	l := Nop().With(map[string]any{"module": "test"})
	l.Info("hello", map[string]any{"k": "v"})
	Sync(l)
}
