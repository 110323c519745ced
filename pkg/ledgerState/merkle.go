package ledgerState

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/utils"
	"github.com/wealdtech/go-merkletree/v2"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	MerkleLeafPrefix_Block       = []byte("ledger_block")
	MerkleLeafPrefix_Pool        = []byte("ledger_pool")
	MerkleLeafPrefix_SlotChanged = []byte("ledger_slot")
)

type MerkleTreeInput struct {
	SlotID string
	Value  []byte
}

// The block number is always the first leaf so every block yields a distinct root,
// even when nothing changed.
func initializeLeavesWithBlock(blockNumber uint32) [][]byte {
	leaf := make([]byte, 0, len(MerkleLeafPrefix_Block)+8)
	leaf = append(leaf, MerkleLeafPrefix_Block...)
	leaf = binary.BigEndian.AppendUint64(leaf, uint64(blockNumber))
	return [][]byte{leaf}
}

func encodePoolLeaf(pool ledgerStore.PoolState) []byte {
	token := pool.TokenReserve.BytesBE()
	eth := pool.EthReserve.BytesBE()
	liquidity := pool.TotalLiquidity.BytesBE()

	leaf := make([]byte, 0, len(MerkleLeafPrefix_Pool)+96)
	leaf = append(leaf, MerkleLeafPrefix_Pool...)
	leaf = append(leaf, token[:]...)
	leaf = append(leaf, eth[:]...)
	leaf = append(leaf, liquidity[:]...)
	return leaf
}

func encodeSlotLeaf(slotID string, value []byte) []byte {
	leaf := make([]byte, 0, len(MerkleLeafPrefix_SlotChanged)+len(slotID)+len(value))
	leaf = append(leaf, MerkleLeafPrefix_SlotChanged...)
	leaf = append(leaf, []byte(slotID)...)
	leaf = append(leaf, value...)
	return leaf
}

// MerkleizeLedger builds the tree for a block. Inputs must be strictly ordered by slot id.
func MerkleizeLedger(blockNumber uint32, pool ledgerStore.PoolState, inputs []*MerkleTreeInput) (*merkletree.MerkleTree, error) {
	om := orderedmap.New[string, []byte]()

	for _, input := range inputs {
		if _, found := om.Get(input.SlotID); found {
			return nil, fmt.Errorf("duplicate slotID %s", input.SlotID)
		}
		om.Set(input.SlotID, input.Value)

		prev := om.GetPair(input.SlotID).Prev()
		if prev != nil && prev.Key > input.SlotID {
			om.Delete(input.SlotID)
			return nil, errors.New("slotIDs are not in order")
		}
	}

	leaves := initializeLeavesWithBlock(blockNumber)
	leaves = append(leaves, encodePoolLeaf(pool))
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		leaves = append(leaves, encodeSlotLeaf(pair.Key, pair.Value))
	}
	return merkletree.NewTree(
		merkletree.WithData(leaves),
		merkletree.WithHashType(keccak256.New()),
	)
}

// GenerateStateRoot hashes the block number, the resulting pool and every balance the block changed.
func GenerateStateRoot(changeset *ledgerStore.Changeset) (string, error) {
	inputs := make([]*MerkleTreeInput, 0, len(changeset.Balances))
	for _, k := range changeset.SortedBalanceKeys() {
		value := changeset.Balances[k].BytesBE()
		inputs = append(inputs, &MerkleTreeInput{
			SlotID: k.SlotID(),
			Value:  value[:],
		})
	}

	tree, err := MerkleizeLedger(changeset.BlockNumber, changeset.Pool, inputs)
	if err != nil {
		return "", err
	}
	return utils.ConvertBytesToString(tree.Root()), nil
}
