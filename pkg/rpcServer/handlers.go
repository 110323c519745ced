package rpcServer

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/polkaswap/bridge-sidecar/pkg/amm"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
	"github.com/polkaswap/bridge-sidecar/pkg/ledgerStore"
	"github.com/polkaswap/bridge-sidecar/pkg/types/numbers"
)

const ratioPlaces = 6

type StatusResponse struct {
	LastSyncedBlock uint32          `json:"lastSyncedBlock"`
	Bookmark        *uint32         `json:"bookmark,omitempty"`
	TokenReserve    numbers.Uint256 `json:"tokenReserve"`
	EthReserve      numbers.Uint256 `json:"ethReserve"`
	TotalLiquidity  numbers.Uint256 `json:"totalLiquidity"`
	// Ratio is the integer ratio used for swaps, RatioDecimal the exact one.
	Ratio        numbers.Uint256 `json:"ratio"`
	RatioDecimal string          `json:"ratioDecimal"`
}

type AccountBalance struct {
	Raw       numbers.Uint256 `json:"raw"`
	Formatted string          `json:"formatted"`
}

type AccountResponse struct {
	Address  string                                     `json:"address"`
	Balances map[ledgerStore.BalanceKind]AccountBalance `json:"balances"`
}

type BlockEventsResponse struct {
	BlockNumber uint32         `json:"blockNumber"`
	Events      []*types.Event `json:"events"`
}

func (rpc *RpcServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}

func (rpc *RpcServer) GetStatus(w http.ResponseWriter, r *http.Request) {
	pool, err := rpc.store.GetPoolState(r.Context())
	if err != nil {
		rpc.writeError(w, http.StatusInternalServerError, err)
		return
	}
	res := &StatusResponse{
		LastSyncedBlock: pool.LastSyncedBlock,
		TokenReserve:    pool.TokenReserve,
		EthReserve:      pool.EthReserve,
		TotalLiquidity:  pool.TotalLiquidity,
		Ratio:           amm.Ratio(*pool),
		RatioDecimal:    numbers.RatioString(pool.TokenReserve, pool.EthReserve, ratioPlaces),
	}
	if rpc.bookmarks != nil {
		bookmark, found, err := rpc.bookmarks.Get()
		if err != nil {
			rpc.writeError(w, http.StatusInternalServerError, err)
			return
		}
		if found {
			res.Bookmark = &bookmark
		}
	}
	rpc.writeJSON(w, http.StatusOK, res)
}

func (rpc *RpcServer) GetAccount(w http.ResponseWriter, r *http.Request) {
	address, err := types.ParseAddress(r.PathValue("address"))
	if err != nil {
		rpc.writeError(w, http.StatusBadRequest, err)
		return
	}

	res := &AccountResponse{
		Address:  types.FormatAddress(address),
		Balances: make(map[ledgerStore.BalanceKind]AccountBalance, len(ledgerStore.BalanceKinds)),
	}
	for _, kind := range ledgerStore.BalanceKinds {
		balance, _, err := rpc.store.GetBalance(r.Context(), kind, address)
		if err != nil {
			rpc.writeError(w, http.StatusInternalServerError, err)
			return
		}
		res.Balances[kind] = AccountBalance{
			Raw:       balance,
			Formatted: numbers.FormatEther(balance),
		}
	}
	rpc.writeJSON(w, http.StatusOK, res)
}

func parseBlockNumber(r *http.Request) (uint32, error) {
	raw := r.PathValue("blockNumber")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid block number '%s'", raw)
	}
	return uint32(n), nil
}

func (rpc *RpcServer) ListBlockEvents(w http.ResponseWriter, r *http.Request) {
	blockNumber, err := parseBlockNumber(r)
	if err != nil {
		rpc.writeError(w, http.StatusBadRequest, err)
		return
	}
	events, err := rpc.store.ListEventsForBlock(r.Context(), blockNumber)
	if err != nil {
		rpc.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, &BlockEventsResponse{
		BlockNumber: blockNumber,
		Events:      events,
	})
}

func (rpc *RpcServer) GetStateRoot(w http.ResponseWriter, r *http.Request) {
	blockNumber, err := parseBlockNumber(r)
	if err != nil {
		rpc.writeError(w, http.StatusBadRequest, err)
		return
	}
	root, err := rpc.store.GetStateRootForBlock(r.Context(), blockNumber)
	if errors.Is(err, ledgerStore.ErrNotFound) {
		rpc.writeError(w, http.StatusNotFound, fmt.Errorf("no state root for block %d", blockNumber))
		return
	}
	if err != nil {
		rpc.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, root)
}
