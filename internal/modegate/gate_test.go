package modegate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentity(t *testing.T) {
	cases := map[string]string{
		"1234@c.us":      "1234",
		" 1234 ":         "1234",
		"abc@s.whatsapp": "abc",
		"@x":             "",
		"":               "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeIdentity(in), in)
	}
}

func TestGate(t *testing.T) {
	g := NewGate([]string{"1234@c.us", "", "  "}, false)
	require.Equal(t, Public, g.Mode())
	require.True(t, g.IsAdmin("1234"))
	require.True(t, g.IsAdmin("1234@s.whatsapp.net"))
	require.False(t, g.IsAdmin("999"))
	require.False(t, g.IsAdmin(""))

	require.True(t, g.Allowed("999"))
	g.SetMode(Private)
	require.Equal(t, Private, g.Mode())
	require.False(t, g.Allowed("999"))
	require.True(t, g.Allowed("1234"))

	g.SetMode(Public)
	require.True(t, g.Allowed("999"))
}

func TestStartPrivate(t *testing.T) {
	g := NewGate(nil, true)
	require.Equal(t, Private, g.Mode())
	require.False(t, g.Allowed("anyone"))
}
