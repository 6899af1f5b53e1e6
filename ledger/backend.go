// Copyright 2025 The go-aigent Authors
// This file is part of the go-aigent library.
//
// The go-aigent library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-aigent library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-aigent library. If not, see <http://www.gnu.org/licenses/>.

// Package ledger implements the client-side call surface of the agent ledger
// contract: typed views over agent state and balances, calldata construction
// for settlement transactions, and mint-event recovery.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

// ErrWrongNetwork is returned when the RPC endpoint serves a chain other
// than the one the contract is deployed on.
var ErrWrongNetwork = errors.New("endpoint serves a different network")

// Backend is the subset of the RPC client the ledger and settlement layers
// consume. *ethclient.Client satisfies it; tests substitute an in-memory
// implementation.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Dial connects to the given endpoint and verifies it serves chainID. If the
// chain does not match and a fallback endpoint is configured, one switch to
// the fallback is attempted before giving up with ErrWrongNetwork.
func Dial(ctx context.Context, endpoint string, chainID *big.Int, fallback string) (*ethclient.Client, error) {
	client, err := dialChecked(ctx, endpoint, chainID)
	if err == nil {
		return client, nil
	}
	if errors.Is(err, ErrWrongNetwork) && fallback != "" {
		log.Warn("Endpoint on wrong network, switching to fallback", "endpoint", endpoint, "fallback", fallback)
		return dialChecked(ctx, fallback, chainID)
	}
	return nil, err
}

func dialChecked(ctx context.Context, endpoint string, chainID *big.Int) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	have, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if chainID != nil && have.Cmp(chainID) != 0 {
		client.Close()
		return nil, fmt.Errorf("%w: have %v, want %v", ErrWrongNetwork, have, chainID)
	}
	return client, nil
}
