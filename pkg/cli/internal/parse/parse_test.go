package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValue(t *testing.T) {
	k, v, ok := KeyValue("X-Env: prod")
	require.True(t, ok)
	assert.Equal(t, "X-Env", k)
	assert.Equal(t, " prod", v)

	k, v, ok = KeyValue("a=b:c", ':', '=')
	require.True(t, ok)
	assert.Equal(t, "a", k)
	assert.Equal(t, "b:c", v)

	_, _, ok = KeyValue("plain")
	assert.False(t, ok)
}

func TestHeaders(t *testing.T) {
	h, err := Headers([]string{"X-Env: prod", "X-Team=core", " Accept :*/*"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Env": "prod", "X-Team": "core", "Accept": "*/*"}, h)

	h, err = Headers(nil)
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = Headers([]string{"broken"})
	assert.Error(t, err)
	_, err = Headers([]string{":value"})
	assert.Error(t, err)
}

func TestSplitTrim(t *testing.T) {
	assert.Equal(t, []string{"eu", "us"}, SplitTrim(" eu, ,us ", ","))
	assert.Nil(t, SplitTrim("", ","))
}
