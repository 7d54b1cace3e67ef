package km

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKV(t *testing.T) {
	got := hashKV("key", "value")
	want := "2c70e12b7a0646f92279f427c7b38e7334d8e5389cff167a1dc30e73f826b683" +
		"_" +
		"ec2c83edecb60304d154ebdb85bdfaf61a92bd142e71c4f7b25a15b9cb5f3c0a" +
		"e301cfb3569cf240e4470031385348bc296d8d99d09e06b26f09591a97527296"

	assert.Equal(t, want, got)
}

func TestRequestHashWeb(t *testing.T) {
	cfg := &ConfigWeb{
		Birthday: WebKV{Value: "1998-01", Expires: 1700000000},
	}

	params := map[string]string{"b": "2", "a": "1", "c": "3"}

	first := requestHash(cfg, params)
	second := requestHash(cfg, params)

	// Canonicalization sorts by key, so the hash is stable across map
	// iteration orders.
	assert.Equal(t, first, second)
	assert.Len(t, first, 128)

	// The birthday cookie feeds into the signature.
	other := &ConfigWeb{Birthday: WebKV{Value: "2000-06", Expires: 1700000000}}
	assert.NotEqual(t, first, requestHash(other, params))
}

func TestRequestHashMobile(t *testing.T) {
	cfg := &ConfigMobile{UserSecret: "secret-key"}

	params := map[string]string{"platform": "2", "version": "5.8.0", "user_id": "12345"}

	first := requestHash(cfg, params)
	second := requestHash(cfg, params)

	require.Equal(t, first, second)
	assert.Len(t, first, 64)

	// The secret is folded in with the values, so a different secret
	// yields a different signature for the same parameters.
	other := &ConfigMobile{UserSecret: "other-key"}
	assert.NotEqual(t, first, requestHash(other, params))
}
