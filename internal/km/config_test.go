package km

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebKV(t *testing.T) {
	kv, err := parseWebKV("%7B%22value%22%3A%221998-01%22%2C%22expires%22%3A1700000000%7D")
	require.NoError(t, err)
	assert.Equal(t, "1998-01", kv.Value)
	assert.Equal(t, int64(1700000000), kv.Expires)

	// Numeric-valued cookies come back unquoted.
	kv, err = parseWebKV("%7B%22value%22%3A1%2C%22expires%22%3A1700000000%7D")
	require.NoError(t, err)
	assert.Equal(t, "1", kv.Value)
}

func TestWebKVCookieRoundTrip(t *testing.T) {
	for _, kv := range []WebKV{
		{Value: "1998-01", Expires: 1700000000},
		{Value: "1", Expires: 1700000000},
	} {
		parsed, err := parseWebKV(kv.encodeCookie())
		require.NoError(t, err)
		assert.Equal(t, kv, parsed)
	}
}

func TestAbsorbCookies(t *testing.T) {
	cfg := DefaultWebConfig()
	cfg.UWT = "old-token"

	changed := cfg.absorbCookies([]*http.Cookie{
		{Name: "uwt", Value: "new-token"},
		{Name: "unrelated", Value: "x"},
	})

	assert.True(t, changed)
	assert.Equal(t, "new-token", cfg.UWT)

	// Same token again is not a change.
	changed = cfg.absorbCookies([]*http.Cookie{{Name: "uwt", Value: "new-token"}})
	assert.False(t, changed)
}

func TestParseNetscapeCookies(t *testing.T) {
	data := "# Netscape HTTP Cookie File\n" +
		"kmanga.example\tFALSE\t/\tTRUE\t1700000000\tbirthday\t%7B%22value%22%3A%221990-04%22%2C%22expires%22%3A1700000000%7D\n" +
		"kmanga.example\tFALSE\t/\tTRUE\t1700000000\tterms_of_service_adult\t%7B%22value%22%3A1%2C%22expires%22%3A1700000000%7D\n" +
		"#HttpOnly_kmanga.example\tFALSE\t/\tTRUE\t1700000000\tuwt\tsome-session-token\n"

	cfg, err := ParseNetscapeCookies(data)
	require.NoError(t, err)

	assert.Equal(t, "some-session-token", cfg.UWT)
	assert.Equal(t, "1990-04", cfg.Birthday.Value)
	assert.Equal(t, "1", cfg.TOSAdult.Value)
}

func TestParseNetscapeCookiesMissingToken(t *testing.T) {
	_, err := ParseNetscapeCookies("# Netscape HTTP Cookie File\n")
	assert.Error(t, err)
}
