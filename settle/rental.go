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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/aigentchain/go-aigent/agent"
)

// RentMode selects between the two historical rental prepayment variants.
type RentMode int

const (
	// RentalOnly prepays rental rights; each later use still settles its
	// own inference cost through the consumption call.
	RentalOnly RentMode = iota

	// RentalPlusInference bundles the inference prepayment, crediting a
	// prepaid inference balance so later invocations skip per-use payment
	// entirely.
	RentalPlusInference
)

func (m RentMode) String() string {
	if m == RentalPlusInference {
		return "rental+inference"
	}
	return "rental-only"
}

// RentQuote is the cost breakdown of a rental prepayment, computed before
// any funds move.
type RentQuote struct {
	Uses          uint64
	Mode          RentMode
	RentalCost    *big.Int
	InferenceCost *big.Int
	TotalCost     *big.Int
}

// QuoteRent computes the prepayment for uses future uses of ag.
func QuoteRent(ag *agent.Agent, uses uint64, mode RentMode) *RentQuote {
	q := &RentQuote{
		Uses:          uses,
		Mode:          mode,
		RentalCost:    ag.RentalCost(uses),
		InferenceCost: new(big.Int),
	}
	if mode == RentalPlusInference {
		q.InferenceCost = ag.InferenceCost(uses)
	}
	q.TotalCost = new(big.Int).Add(q.RentalCost, q.InferenceCost)
	return q
}

// Rent validates and submits a bulk rental prepayment for tokenID. The agent
// must be listed for rent. expectedTotal, when non-nil, is the figure the
// caller quoted (and typically displayed) before committing: it is checked
// against a quote recomputed from the freshly loaded agent, so a price change
// between quoting and spending aborts before any transaction is built. On
// confirmation the mirror is re-read from the ledger and a settlement event
// is published.
func (e *Engine) Rent(ctx context.Context, tokenID uint64, uses uint64, mode RentMode, expectedTotal *big.Int) (*types.Receipt, error) {
	ag, err := e.ledger.LoadAgent(ctx, tokenID)
	if err != nil {
		return nil, classify(err)
	}
	if !ag.Metadata.IsForRent {
		return nil, ErrNotForRent
	}
	quote := QuoteRent(ag, uses, mode)
	if expectedTotal != nil && expectedTotal.Cmp(quote.TotalCost) != 0 {
		return nil, &Error{
			Kind:  KindCostMismatch,
			cause: fmt.Errorf("caller quoted %s wei, current ledger pricing totals %s wei", expectedTotal, quote.TotalCost),
		}
	}

	spec, err := e.rentSpec(tokenID, uses, mode, quote.TotalCost)
	if err != nil {
		return nil, classify(err)
	}
	receipt, err := e.sender.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	log.Info("Rental settlement confirmed", "token", tokenID, "uses", uses,
		"mode", mode, "total", quote.TotalCost, "tx", receipt.TxHash)

	if err := e.mirror.Refresh(ctx, e.ledger, []uint64{tokenID}); err != nil {
		log.Warn("Post-rental mirror refresh failed", "token", tokenID, "err", err)
	}
	e.feed.Send(SettlementEvent{Kind: SettlementRent, TokenID: tokenID, User: e.sender.From(), TxHash: receipt.TxHash})
	return receipt, nil
}
