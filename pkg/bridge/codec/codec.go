// Package codec implements the binary encoding of BlockEvents.
//
// Layout, all integers little-endian:
//
//	block number  u32
//	command count u32
//	commands      count * (tag u8 | sender [20]byte | amount [32]byte)
package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	pkgErrors "github.com/pkg/errors"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

const (
	headerSize  = 8
	commandSize = 1 + types.AddressLength + 32

	// MaxRecordSize bounds a single framed record when reading a stream.
	MaxRecordSize = 64 * 1024 * 1024
)

var (
	ErrUnknownCommandTag = errors.New("unknown command tag")
	ErrTruncated         = errors.New("truncated input")
	ErrTrailingBytes     = errors.New("trailing bytes after block")
)

func EncodeBlockEvents(block *types.BlockEvents) ([]byte, error) {
	buf := make([]byte, 0, headerSize+commandSize*len(block.Methods))
	buf = binary.LittleEndian.AppendUint32(buf, block.BlockNumber)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(block.Methods)))

	for i, m := range block.Methods {
		if !m.Kind.Valid() {
			return nil, fmt.Errorf("command %d: %w: %d", i, ErrUnknownCommandTag, uint8(m.Kind))
		}
		buf = append(buf, byte(m.Kind))
		buf = append(buf, m.Sender.Bytes()...)
		amount := m.Amount.BytesLE()
		buf = append(buf, amount[:]...)
	}
	return buf, nil
}

func DecodeBlockEvents(data []byte) (*types.BlockEvents, error) {
	if len(data) < headerSize {
		return nil, pkgErrors.Wrap(ErrTruncated, "block header")
	}
	blockNumber := binary.LittleEndian.Uint32(data[0:4])
	count := binary.LittleEndian.Uint32(data[4:8])

	body := data[headerSize:]
	if uint64(count)*commandSize > uint64(len(body)) {
		return nil, pkgErrors.Wrapf(ErrTruncated, "expected %d commands, have %d bytes", count, len(body))
	}

	block := &types.BlockEvents{
		BlockNumber: blockNumber,
		Methods:     make([]*types.ContractMethod, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		chunk := body[int(i)*commandSize : int(i+1)*commandSize]

		kind := types.MethodKind(chunk[0])
		if !kind.Valid() {
			return nil, fmt.Errorf("command %d: %w: %d", i, ErrUnknownCommandTag, chunk[0])
		}
		var sender types.Address
		copy(sender[:], chunk[1:1+types.AddressLength])

		amount, err := numbers.NewUint256FromBytesLE(chunk[1+types.AddressLength:])
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "command %d amount", i)
		}
		block.Methods = append(block.Methods, types.NewContractMethod(kind, sender, amount))
	}

	if rest := len(body) - int(count)*commandSize; rest != 0 {
		return nil, pkgErrors.Wrapf(ErrTrailingBytes, "%d bytes", rest)
	}
	return block, nil
}

// StreamWriter frames encoded blocks with a u32 length prefix.
type StreamWriter struct {
	w io.Writer
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

func (sw *StreamWriter) Write(block *types.BlockEvents) error {
	encoded, err := EncodeBlockEvents(block)
	if err != nil {
		return err
	}
	frame := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(encoded)), uint32(len(encoded)))
	frame = append(frame, encoded...)
	_, err = sw.w.Write(frame)
	return err
}

// StreamReader reads blocks framed by StreamWriter.
type StreamReader struct {
	r *bufio.Reader
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r)}
}

// Next returns io.EOF once the stream is exhausted on a frame boundary.
func (sr *StreamReader) Next() (*types.BlockEvents, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, pkgErrors.Wrap(ErrTruncated, "frame length")
	}
	size := binary.LittleEndian.Uint32(lenBuf[:])
	if size > MaxRecordSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(sr.r, data); err != nil {
		return nil, pkgErrors.Wrap(ErrTruncated, "frame body")
	}
	return DecodeBlockEvents(data)
}
