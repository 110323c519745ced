package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const AddressLength = common.AddressLength

// Address is the 20-byte account identifier of the external ledger.
type Address = common.Address

func CompareAddresses(a, b Address) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// ParseAddress accepts a hex address with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("invalid address '%s'", s)
	}
	return common.HexToAddress(s), nil
}

// FormatAddress is the lower case form used as a storage key.
func FormatAddress(a Address) string {
	return strings.ToLower(a.Hex())
}
