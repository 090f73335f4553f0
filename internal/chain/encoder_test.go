package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeCreateLimitBatch(t *testing.T) {
	entries := []LimitOrderEntry{
		{AmountBase: 1, PriceBase: 0x2710, IsAsk: false, HintID: 1},
		{AmountBase: 2, PriceBase: 0x2712, IsAsk: true, HintID: 2},
		{AmountBase: 3, PriceBase: 0x2713, IsAsk: false, HintID: 3},
	}

	const want = "0x010003" +
		"000000000000000100000000000027100000000001" +
		"000000000000000200000000000027120100000002" +
		"000000000000000300000000000027130000000003"
	assert.Equal(t, want, EncodeCreateLimitBatch(0, entries))

	// Same input, same bytes.
	assert.Equal(t, want, EncodeCreateLimitBatch(0, entries))
}

func TestEncodeCreateLimitBatchSingle(t *testing.T) {
	entries := []LimitOrderEntry{
		{AmountBase: 0xff, PriceBase: 0x01, IsAsk: true, HintID: 0},
	}
	assert.Equal(t,
		"0x050101"+"00000000000000ff"+"0000000000000001"+"01"+"00000000",
		EncodeCreateLimitBatch(5, entries))
}

func TestEncodeUpdateLimitBatch(t *testing.T) {
	entries := []UpdateOrderEntry{
		{OrderID: 0x0db1, AmountBase: 1, PriceBase: 0x2710, HintID: 7},
		{OrderID: 0x0db2, AmountBase: 2, PriceBase: 0x2712, HintID: 8},
	}
	assert.Equal(t,
		"0x020102"+
			"00000db1"+"0000000000000001"+"0000000000002710"+"00000007"+
			"00000db2"+"0000000000000002"+"0000000000002712"+"00000008",
		EncodeUpdateLimitBatch(1, entries))
}

func TestEncodeCancelBatch(t *testing.T) {
	assert.Equal(t,
		"0x03000300000db100000db200000db3",
		EncodeCancelBatch(0, []uint32{3505, 3506, 3507}))

	assert.Equal(t, "0x0302010000000a", EncodeCancelBatch(2, []uint32{10}))
}

func TestEncodeCreateMarket(t *testing.T) {
	// No count prefix and no hint id on market orders.
	assert.Equal(t,
		"0x04000000000000000001000000000000271000",
		EncodeCreateMarket(0, 1, 0x2710, false))

	assert.Equal(t,
		"0x04070000000000002710000000000000000101",
		EncodeCreateMarket(7, 0x2710, 1, true))
}
