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

package settle

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/aigentchain/go-aigent/ledger"
	"github.com/aigentchain/go-aigent/params"
)

// Strategy identifies one rung of the fee escalation ladder.
type Strategy int

const (
	// StrategyLegacyEstimated: legacy gas price at the network-suggested
	// level, gas limit from simulation plus a 20% buffer.
	StrategyLegacyEstimated Strategy = iota

	// StrategyDynamicFee: EIP-1559 pricing with the suggested tip (floored)
	// and a fee cap of tip plus twice the current base fee.
	StrategyDynamicFee

	// StrategyLegacyFloor: fixed conservative legacy price and limit.
	StrategyLegacyFloor
)

func (s Strategy) String() string {
	switch s {
	case StrategyLegacyEstimated:
		return "legacy-gas-estimated"
	case StrategyDynamicFee:
		return "eip1559-estimated"
	case StrategyLegacyFloor:
		return "legacy-minimal-fallback"
	}
	return "unknown"
}

// ladder is the strict attempt order. Rung 1 is never skipped and rung 3 is
// reached only after both earlier rungs fail with a non-fatal class.
var ladder = []Strategy{StrategyLegacyEstimated, StrategyDynamicFee, StrategyLegacyFloor}

// Sender submits a prepared settlement call and waits for its confirmation.
// Implemented by *Submitter; tests substitute fakes.
type Sender interface {
	Submit(ctx context.Context, spec ledger.CallSpec) (*types.Receipt, error)
	From() common.Address
}

// Submitter signs and submits settlement transactions against a congested or
// fee-volatile network using the escalation ladder. Each rung is independent:
// no fee state carries over from a failed attempt. The nonce is fetched once
// per settlement and reused across rungs so that an ambiguous failure (a
// timeout after the pool may have accepted the transaction) cannot lead to
// two confirmations. The only exception is a nonce the ledger reports as
// already consumed: that nonce can never confirm again, so it is refetched
// before the next rung.
type Submitter struct {
	backend ledger.Backend
	chainID *big.Int

	mu   sync.Mutex // guards key, from and unlock
	key  *ecdsa.PrivateKey
	from common.Address

	// unlock, when set, is invoked once on a NoAccountAccess failure to
	// give the composing layer a chance to provide a signing key.
	unlock func() (*ecdsa.PrivateKey, error)
}

// NewSubmitter creates a submitter signing with key on chainID.
func NewSubmitter(backend ledger.Backend, chainID *big.Int, key *ecdsa.PrivateKey) *Submitter {
	s := &Submitter{backend: backend, chainID: chainID, key: key}
	if key != nil {
		s.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return s
}

// SetUnlocker registers a one-shot key provider used when no signing key is
// available at submission time.
func (s *Submitter) SetUnlocker(unlock func() (*ecdsa.PrivateKey, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlock = unlock
}

// From returns the signing address.
func (s *Submitter) From() common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.from
}

// Submit walks the escalation ladder until one rung's transaction is accepted,
// then waits for confirmation. A confirmed-but-reverted transaction is
// reported as a contract revert and never retried: the revert is
// deterministic and a retry would fail identically. Fatal classifications
// (signer rejection, insufficient funds) abort without trying further rungs.
func (s *Submitter) Submit(ctx context.Context, spec ledger.CallSpec) (*types.Receipt, error) {
	key, from, err := s.signingKey()
	if err != nil {
		return nil, err
	}
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, classify(err)
	}
	gasLimit := s.estimateGas(ctx, spec, from)

	var lastErr *Error
	for _, strategy := range ladder {
		tx, err := s.buildTx(ctx, spec, strategy, nonce, gasLimit)
		if err != nil {
			return nil, classify(err)
		}
		signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), key)
		if err != nil {
			return nil, classify(err)
		}
		if err := s.backend.SendTransaction(ctx, signed); err != nil {
			cerr := classify(err)
			if cerr.Fatal() {
				log.Debug("Settlement submission failed fatally",
					"method", spec.Method, "strategy", strategy, "err", err)
				return nil, cerr
			}
			log.Warn("Settlement submission failed, escalating",
				"method", spec.Method, "strategy", strategy, "err", err)
			lastErr = cerr
			if cerr.Kind == KindStaleNonce {
				// The old nonce has been consumed on chain; reusing it
				// would fail every remaining rung identically.
				if fresh, nerr := s.backend.PendingNonceAt(ctx, from); nerr == nil {
					nonce = fresh
				}
			}
			continue
		}
		log.Info("Settlement submitted", "method", spec.Method,
			"strategy", strategy, "tx", signed.Hash(), "nonce", nonce)
		return s.waitConfirmed(ctx, signed.Hash())
	}
	return nil, lastErr
}

// signingKey returns the key and address used for this settlement, invoking
// the registered unlocker at most once process-wide. Concurrent settlements
// serialize here so a second caller observes the first one's unlock instead
// of triggering its own.
func (s *Submitter) signingKey() (*ecdsa.PrivateKey, common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, s.from, nil
	}
	if s.unlock == nil {
		return nil, common.Address{}, &Error{Kind: KindNoAccountAccess}
	}
	unlock := s.unlock
	s.unlock = nil // one shot
	key, err := unlock()
	if err != nil || key == nil {
		return nil, common.Address{}, &Error{Kind: KindNoAccountAccess, cause: err}
	}
	s.key = key
	s.from = crypto.PubkeyToAddress(key.PublicKey)
	return s.key, s.from, nil
}

// estimateGas simulates the call and buffers the result by 20%. Estimation
// failure is non-fatal: the fixed fallback limit is used instead.
func (s *Submitter) estimateGas(ctx context.Context, spec ledger.CallSpec, from common.Address) uint64 {
	msg := ethereum.CallMsg{
		From:  from,
		To:    &spec.To,
		Value: spec.Value,
		Data:  spec.Data,
	}
	est, err := s.backend.EstimateGas(ctx, msg)
	if err != nil {
		log.Warn("Gas estimation failed, using fallback limit",
			"method", spec.Method, "fallback", params.FallbackGasLimit, "err", err)
		return params.FallbackGasLimit
	}
	return est * params.GasEstimateNumerator / params.GasEstimateDenominator
}

func (s *Submitter) buildTx(ctx context.Context, spec ledger.CallSpec, strategy Strategy, nonce, gasLimit uint64) (*types.Transaction, error) {
	value := spec.Value
	if value == nil {
		value = new(big.Int)
	}
	switch strategy {
	case StrategyLegacyEstimated:
		price, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gasLimit,
			To:       &spec.To,
			Value:    value,
			Data:     spec.Data,
		}), nil

	case StrategyDynamicFee:
		tip, err := s.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, err
		}
		if tip.Cmp(big.NewInt(params.MinGasTipCap)) < 0 {
			tip = big.NewInt(params.MinGasTipCap)
		}
		head, err := s.backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, err
		}
		feeCap := new(big.Int).Set(tip)
		if head.BaseFee != nil {
			feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &spec.To,
			Value:     value,
			Data:      spec.Data,
		}), nil

	case StrategyLegacyFloor:
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: big.NewInt(params.FloorGasPrice),
			Gas:      params.FloorGasLimit,
			To:       &spec.To,
			Value:    value,
			Data:     spec.Data,
		}), nil
	}
	return nil, &Error{Kind: KindUnknown}
}

// waitConfirmed polls for the receipt. Once submitted, a settlement cannot be
// cancelled; the wait ends only with a receipt or context cancellation.
func (s *Submitter) waitConfirmed(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				log.Warn("Settlement reverted on ledger", "tx", hash)
				return receipt, &Error{Kind: KindContractRevert}
			}
			log.Debug("Settlement confirmed", "tx", hash, "block", receipt.BlockNumber)
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, classify(ctx.Err())
		case <-time.After(params.ReceiptPollInterval):
		}
	}
}
