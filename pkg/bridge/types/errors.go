package types

import (
	"errors"
	"fmt"
)

var ErrAlreadySynced = errors.New("block already synced")

// AlreadySyncedError is returned when a block is not the direct successor of the last synced block.
type AlreadySyncedError struct {
	LastSyncedBlock uint32
	BlockNumber     uint32
}

func (e *AlreadySyncedError) Error() string {
	return fmt.Sprintf("%s: received block %d, last synced block is %d", ErrAlreadySynced, e.BlockNumber, e.LastSyncedBlock)
}

func (e *AlreadySyncedError) Is(target error) bool {
	return target == ErrAlreadySynced
}

type ContractErrorKind string

const (
	ContractError_UserNotFound                ContractErrorKind = "UserNotFound"
	ContractError_NothingToWithdraw           ContractErrorKind = "NothingToWithdraw"
	ContractError_NotEnoughTokenLiquidity     ContractErrorKind = "NotEnoughTokenLiquidity"
	ContractError_NotEnoughEthLiquidity       ContractErrorKind = "NotEnoughEthLiquidity"
	ContractError_NotEnoughEthOnUserAccount   ContractErrorKind = "NotEnoughEthOnUserAccount"
	ContractError_NotEnoughTokenOnUserAccount ContractErrorKind = "NotEnoughTokenOnUserAccount"
	ContractError_NotEnoughLiquidity          ContractErrorKind = "NotEnoughLiquidity"
	ContractError_NotEnoughLiquidityInPool    ContractErrorKind = "NotEnoughLiquidityInPool"
	ContractError_Arithmetic                  ContractErrorKind = "Arithmetic"
)

// Swaps to ether report NotEnoughTokenOnUserAccount: the user pays in tokens, so the
// message names the token balance that was short.
var contractErrorMessages = map[ContractErrorKind]string{
	ContractError_UserNotFound:                "User not found",
	ContractError_NothingToWithdraw:           "Nothing to withdraw",
	ContractError_NotEnoughTokenLiquidity:     "Not enough token liquidity",
	ContractError_NotEnoughEthLiquidity:       "Not enough eth liquidity",
	ContractError_NotEnoughEthOnUserAccount:   "Not enough eth on user account",
	ContractError_NotEnoughTokenOnUserAccount: "Not enough token on user account",
	ContractError_NotEnoughLiquidity:          "Not enough liquidity",
	ContractError_NotEnoughLiquidityInPool:    "Not enough liquidity in pool",
}

// ContractError rejects a single command. The ledger is unchanged and the
// rest of the block keeps processing.
type ContractError struct {
	Kind    ContractErrorKind
	Message string
	Err     error
}

func NewContractError(kind ContractErrorKind) *ContractError {
	return &ContractError{
		Kind:    kind,
		Message: contractErrorMessages[kind],
	}
}

// NewArithmeticError wraps an overflow, underflow or divide by zero raised while applying a command.
func NewArithmeticError(err error) *ContractError {
	return &ContractError{
		Kind:    ContractError_Arithmetic,
		Message: err.Error(),
		Err:     err,
	}
}

func (e *ContractError) Error() string {
	return e.Message
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func IsContractError(err error) (*ContractError, bool) {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
