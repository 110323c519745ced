package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
	"github.com/stretchr/testify/assert"
)

func testBlock() *types.BlockEvents {
	alice := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	return &types.BlockEvents{
		BlockNumber: 42,
		Methods: []*types.ContractMethod{
			types.NewContractMethod(types.MethodKind_DepositETH, alice, numbers.NewUint256(100)),
			types.NewContractMethod(types.MethodKind_SwapToToken, bob, numbers.MustUint256FromDecimal("1000000000000000000000")),
			types.NewContractMethod(types.MethodKind_RemoveLiquidity, alice, numbers.MaxUint256()),
		},
	}
}

func Test_Codec(t *testing.T) {
	t.Run("Should encode the header and commands in little-endian order", func(t *testing.T) {
		block := testBlock()
		encoded, err := EncodeBlockEvents(block)
		assert.Nil(t, err)
		assert.Equal(t, headerSize+3*commandSize, len(encoded))
		assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(encoded[0:4]))
		assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(encoded[4:8]))

		first := encoded[headerSize : headerSize+commandSize]
		assert.Equal(t, byte(types.MethodKind_DepositETH), first[0])
		assert.Equal(t, block.Methods[0].Sender.Bytes(), first[1:21])
		assert.Equal(t, byte(100), first[21])
		assert.Equal(t, byte(0), first[52])

		decoded, err := DecodeBlockEvents(encoded)
		assert.Nil(t, err)
		assert.Equal(t, block, decoded)
	})
	t.Run("Should decode an empty block", func(t *testing.T) {
		encoded, err := EncodeBlockEvents(&types.BlockEvents{BlockNumber: 7})
		assert.Nil(t, err)

		decoded, err := DecodeBlockEvents(encoded)
		assert.Nil(t, err)
		assert.Equal(t, uint32(7), decoded.BlockNumber)
		assert.Len(t, decoded.Methods, 0)
	})
	t.Run("Should reject an unknown command tag", func(t *testing.T) {
		encoded, err := EncodeBlockEvents(testBlock())
		assert.Nil(t, err)
		encoded[headerSize+commandSize] = 9

		_, err = DecodeBlockEvents(encoded)
		assert.True(t, errors.Is(err, ErrUnknownCommandTag))
	})
	t.Run("Should refuse to encode an unknown command tag", func(t *testing.T) {
		block := &types.BlockEvents{
			BlockNumber: 1,
			Methods:     []*types.ContractMethod{{Kind: types.MethodKind(200)}},
		}
		_, err := EncodeBlockEvents(block)
		assert.True(t, errors.Is(err, ErrUnknownCommandTag))
	})
	t.Run("Should reject truncated input", func(t *testing.T) {
		encoded, err := EncodeBlockEvents(testBlock())
		assert.Nil(t, err)

		_, err = DecodeBlockEvents(encoded[:len(encoded)-1])
		assert.True(t, errors.Is(err, ErrTruncated))

		_, err = DecodeBlockEvents(encoded[:3])
		assert.True(t, errors.Is(err, ErrTruncated))
	})
	t.Run("Should reject a huge command count without allocating", func(t *testing.T) {
		data := binary.LittleEndian.AppendUint32(nil, 1)
		data = binary.LittleEndian.AppendUint32(data, 0xffffffff)
		_, err := DecodeBlockEvents(data)
		assert.True(t, errors.Is(err, ErrTruncated))
	})
	t.Run("Should reject trailing bytes", func(t *testing.T) {
		encoded, err := EncodeBlockEvents(testBlock())
		assert.Nil(t, err)

		_, err = DecodeBlockEvents(append(encoded, 0x00))
		assert.True(t, errors.Is(err, ErrTrailingBytes))
	})
	t.Run("Should read back a framed stream", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewStreamWriter(buf)
		first := testBlock()
		second := &types.BlockEvents{BlockNumber: 43}
		assert.Nil(t, w.Write(first))
		assert.Nil(t, w.Write(second))

		r := NewStreamReader(buf)
		b, err := r.Next()
		assert.Nil(t, err)
		assert.Equal(t, first, b)

		b, err = r.Next()
		assert.Nil(t, err)
		assert.Equal(t, uint32(43), b.BlockNumber)

		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	})
}
