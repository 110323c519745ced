package types

import (
	"fmt"

	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

// MethodKind is the command tag. The numeric values are part of the wire format.
type MethodKind uint8

const (
	MethodKind_DepositToken    MethodKind = 0
	MethodKind_DepositETH      MethodKind = 1
	MethodKind_WithdrawToken   MethodKind = 2
	MethodKind_WithdrawETH     MethodKind = 3
	MethodKind_SwapToToken     MethodKind = 4
	MethodKind_SwapToETH       MethodKind = 5
	MethodKind_AddLiquidity    MethodKind = 6
	MethodKind_RemoveLiquidity MethodKind = 7
)

var methodKindNames = map[MethodKind]string{
	MethodKind_DepositToken:    "DepositToken",
	MethodKind_DepositETH:      "DepositETH",
	MethodKind_WithdrawToken:   "WithdrawToken",
	MethodKind_WithdrawETH:     "WithdrawETH",
	MethodKind_SwapToToken:     "SwapToToken",
	MethodKind_SwapToETH:       "SwapToETH",
	MethodKind_AddLiquidity:    "AddLiquidity",
	MethodKind_RemoveLiquidity: "RemoveLiquidity",
}

func (k MethodKind) Valid() bool {
	_, ok := methodKindNames[k]
	return ok
}

func (k MethodKind) String() string {
	if name, ok := methodKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

func ParseMethodKind(name string) (MethodKind, error) {
	for k, n := range methodKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown method '%s'", name)
}

type SenderAmount struct {
	Sender Address
	Amount numbers.Uint256
}

// ContractMethod is one classified command observed on the external ledger.
type ContractMethod struct {
	Kind MethodKind
	SenderAmount
}

func NewContractMethod(kind MethodKind, sender Address, amount numbers.Uint256) *ContractMethod {
	return &ContractMethod{
		Kind: kind,
		SenderAmount: SenderAmount{
			Sender: sender,
			Amount: amount,
		},
	}
}

func (m *ContractMethod) String() string {
	return fmt.Sprintf("%s{sender: %s, amount: %s}", m.Kind, FormatAddress(m.Sender), m.Amount)
}

// BlockEvents is the ordered list of commands found in one external block.
type BlockEvents struct {
	BlockNumber uint32
	Methods     []*ContractMethod
}
