package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalHashDeterminism(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"closed":true,"question":"Will it rain?","tokens":[{"outcome":"Yes","price":0.97}]}`)

	first, err := CanonicalHash(payload)
	require.NoError(t, err)

	second, err := CanonicalHash(payload)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCanonicalHashKeyOrderIndependence(t *testing.T) {
	t.Parallel()

	a := []byte(`{"closed":true,"question":"q"}`)
	b := []byte(`{"question":"q","closed":true}`)

	hashA, err := CanonicalHash(a)
	require.NoError(t, err)

	hashB, err := CanonicalHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
}

func TestCanonicalHashDistinguishesContent(t *testing.T) {
	t.Parallel()

	a := []byte(`{"closed":true}`)
	b := []byte(`{"closed":false}`)

	hashA, err := CanonicalHash(a)
	require.NoError(t, err)

	hashB, err := CanonicalHash(b)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

func TestCanonicalHashMalformedPayload(t *testing.T) {
	t.Parallel()

	_, err := CanonicalHash([]byte(`{"closed":`))
	assert.Error(t, err)
}
