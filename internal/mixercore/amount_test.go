package mixercore

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(nil))
	assert.Equal(t, "0", FormatAmount(big.NewInt(0)))
	assert.Equal(t, "100", FormatAmount(tokens(100)))
	assert.Equal(t, "0.000000000000000001", FormatAmount(big.NewInt(1)))

	v, ok := new(big.Int).SetString("49950000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "49.95", FormatAmount(v))
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 1.5 ")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", got.String())

	got, err = ParseAmount("100")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(tokens(100)))

	got, err = ParseAmount("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Int64())

	for _, bad := range []string{"", "   ", "abc", "-1", "1.0000000000000000001", "1,5"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", bad)
	}
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("  " + alice.Hex() + " ")
	require.NoError(t, err)
	assert.Equal(t, alice, a)

	for _, bad := range []string{"", "0x123", "not an address", common.Address{}.Hex()} {
		_, err := ParseAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, "input %q", bad)
	}
}

func TestShortForms(t *testing.T) {
	assert.Equal(t, alice.Hex()[:6]+"...", ShortAddress(alice))
	h := common.HexToHash("0x12345678aabbccdd")
	assert.Equal(t, h.Hex()[:10], ShortHash(h))
	assert.Len(t, ShortHash(h), 10)
}
