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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/singleflight"

	"github.com/aigentchain/go-aigent/agent"
	"github.com/aigentchain/go-aigent/executor"
	"github.com/aigentchain/go-aigent/ledger"
)

// Contract is the full ledger surface the engine consumes: the read views
// plus calldata construction and mint recovery. *ledger.Client satisfies it.
type Contract interface {
	Ledger
	RentAgentCall(tokenID, uses uint64, value *big.Int) (ledger.CallSpec, error)
	RentAgentWithInferenceCall(tokenID, uses uint64, value *big.Int) (ledger.CallSpec, error)
	UseAgentCall(tokenID uint64, value *big.Int) (ledger.CallSpec, error)
	UseAgentPrepaidCall(tokenID uint64) (ledger.CallSpec, error)
	ListAgentForSaleCall(tokenID uint64, price *big.Int) (ledger.CallSpec, error)
	DelistAgentFromSaleCall(tokenID uint64) (ledger.CallSpec, error)
	BuyAgentCall(tokenID uint64, price *big.Int) (ledger.CallSpec, error)
	MintAgentCall(to common.Address, meta *agent.Metadata, tools *agent.ToolConfig) (ledger.CallSpec, error)
	MintedTokenID(ctx context.Context, receipt *types.Receipt) (uint64, error)
}

// Engine is the usage-rights settlement engine. It is an explicit object
// constructed once with its collaborators and passed by reference; it holds
// no process-wide state and performs no lazy initialization.
type Engine struct {
	ledger   Contract
	sender   Sender
	mirror   *Mirror
	resolver *Resolver
	exec     executor.Executor

	feed   event.Feed
	flight singleflight.Group
}

// NewEngine wires the settlement engine. exec may be nil for settlement-only
// deployments (no execution after payment).
func NewEngine(contract Contract, sender Sender, mirror *Mirror, exec executor.Executor) *Engine {
	return &Engine{
		ledger:   contract,
		sender:   sender,
		mirror:   mirror,
		resolver: NewResolver(contract),
		exec:     exec,
	}
}

// From returns the engine's signing address.
func (e *Engine) From() common.Address { return e.sender.From() }

// Mirror exposes the advisory balance mirror for UI reads.
func (e *Engine) Mirror() *Mirror { return e.mirror }

// Resolver exposes pathway resolution without settlement.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// UseResult reports one completed invocation.
type UseResult struct {
	Right    *UsageRight
	Receipt  *types.Receipt // nil for the free owner pathway
	Response *executor.Response
}

// Use performs the full invocation sequence for tokenID: resolve the usage
// pathway, settle any required payment or consumption on the ledger, run the
// executor, then reconcile the mirror from the ledger. Concurrent calls for
// the same (agent, user) pair are collapsed into one flight: the second call
// waits for the first's outcome instead of racing it to the ledger. A joined
// caller shares the originating call's context, so cancelling the first call
// fails every caller of that flight; this is deliberate, as a half-settled
// invocation cannot be handed to a second context.
func (e *Engine) Use(ctx context.Context, tokenID uint64, input string, history []executor.Message) (*UseResult, error) {
	key := fmt.Sprintf("%d/%s", tokenID, e.sender.From())
	v, err, shared := e.flight.Do(key, func() (interface{}, error) {
		return e.use(ctx, tokenID, input, history)
	})
	if shared {
		log.Debug("Concurrent invocation collapsed", "token", tokenID, "user", e.sender.From())
	}
	if err != nil {
		return nil, err
	}
	return v.(*UseResult), nil
}

func (e *Engine) use(ctx context.Context, tokenID uint64, input string, history []executor.Message) (*UseResult, error) {
	ag, err := e.ledger.LoadAgent(ctx, tokenID)
	if err != nil {
		return nil, classify(err)
	}
	user := e.sender.From()
	right, err := e.resolver.Resolve(ctx, ag, user)
	if err != nil {
		return nil, err
	}
	log.Debug("Usage pathway resolved", "token", tokenID, "user", user, "pathway", right.Pathway)

	var receipt *types.Receipt
	switch right.Pathway {
	case PathwayOwner:
		// Free for the owner, still bounded by the ledger's daily cap.
		ok, err := e.ledger.CanUseAgent(ctx, tokenID, user)
		if err != nil {
			return nil, classify(err)
		}
		if !ok {
			return nil, ErrNoUsageRights
		}

	case PathwayPrepaid:
		spec, err := e.ledger.UseAgentPrepaidCall(tokenID)
		if err != nil {
			return nil, classify(err)
		}
		if receipt, err = e.sender.Submit(ctx, spec); err != nil {
			return nil, err
		}

	case PathwayRental:
		spec, err := e.ledger.UseAgentCall(tokenID, nil)
		if err != nil {
			return nil, classify(err)
		}
		if receipt, err = e.sender.Submit(ctx, spec); err != nil {
			return nil, err
		}

	case PathwayPayPerUse:
		spec, err := e.ledger.UseAgentCall(tokenID, right.Cost)
		if err != nil {
			return nil, classify(err)
		}
		if receipt, err = e.sender.Submit(ctx, spec); err != nil {
			return nil, err
		}
	}

	if receipt != nil {
		e.mirror.DecrementOptimistic(tokenID)
		e.feed.Send(SettlementEvent{Kind: SettlementUse, TokenID: tokenID, User: user, TxHash: receipt.TxHash})
	}

	result := &UseResult{Right: right, Receipt: receipt}
	if e.exec != nil {
		resp, err := e.exec.Execute(ctx, executor.NewRequest(ag, input, history))
		if err != nil {
			// The settlement already happened; surface the execution
			// failure but leave balances to reconciliation.
			log.Error("Agent execution failed after settlement", "token", tokenID, "err", err)
			return nil, err
		}
		result.Response = resp
	}

	if receipt != nil {
		if err := e.mirror.Refresh(ctx, e.ledger, []uint64{tokenID}); err != nil {
			log.Warn("Post-use mirror refresh failed", "token", tokenID, "err", err)
		}
	}
	return result, nil
}

// Buy purchases a listed agent at its current sale price.
func (e *Engine) Buy(ctx context.Context, tokenID uint64) (*types.Receipt, error) {
	forSale, price, err := e.ledger.SaleInfo(ctx, tokenID)
	if err != nil {
		return nil, classify(err)
	}
	if !forSale {
		return nil, &Error{Kind: KindNoUsageRights, cause: fmt.Errorf("token %d is not for sale", tokenID)}
	}
	spec, err := e.ledger.BuyAgentCall(tokenID, price)
	if err != nil {
		return nil, classify(err)
	}
	receipt, err := e.sender.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	e.feed.Send(SettlementEvent{Kind: SettlementBuy, TokenID: tokenID, User: e.sender.From(), TxHash: receipt.TxHash})
	return receipt, nil
}

// List puts an owned agent up for sale at price wei. Ownership is checked
// before any transaction is built.
func (e *Engine) List(ctx context.Context, tokenID uint64, price *big.Int) (*types.Receipt, error) {
	owner, err := e.ledger.OwnerOf(ctx, tokenID)
	if err != nil {
		return nil, classify(err)
	}
	if owner != e.sender.From() {
		return nil, ErrNotOwner
	}
	spec, err := e.ledger.ListAgentForSaleCall(tokenID, price)
	if err != nil {
		return nil, classify(err)
	}
	receipt, err := e.sender.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	e.feed.Send(SettlementEvent{Kind: SettlementList, TokenID: tokenID, User: owner, TxHash: receipt.TxHash})
	return receipt, nil
}

// Delist removes an owned agent from sale.
func (e *Engine) Delist(ctx context.Context, tokenID uint64) (*types.Receipt, error) {
	owner, err := e.ledger.OwnerOf(ctx, tokenID)
	if err != nil {
		return nil, classify(err)
	}
	if owner != e.sender.From() {
		return nil, ErrNotOwner
	}
	spec, err := e.ledger.DelistAgentFromSaleCall(tokenID)
	if err != nil {
		return nil, classify(err)
	}
	receipt, err := e.sender.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	e.feed.Send(SettlementEvent{Kind: SettlementDelist, TokenID: tokenID, User: owner, TxHash: receipt.TxHash})
	return receipt, nil
}

// Mint creates a new tokenized agent owned by to and returns its assigned
// id, recovered from the mint event or, failing that, the count heuristic.
func (e *Engine) Mint(ctx context.Context, to common.Address, meta *agent.Metadata, tools *agent.ToolConfig) (uint64, *types.Receipt, error) {
	spec, err := e.ledger.MintAgentCall(to, meta, tools)
	if err != nil {
		return 0, nil, classify(err)
	}
	receipt, err := e.sender.Submit(ctx, spec)
	if err != nil {
		return 0, nil, err
	}
	id, err := e.ledger.MintedTokenID(ctx, receipt)
	if err != nil {
		return 0, receipt, classify(err)
	}
	e.feed.Send(SettlementEvent{Kind: SettlementMint, TokenID: id, User: to, TxHash: receipt.TxHash})
	return id, receipt, nil
}

func (e *Engine) rentSpec(tokenID, uses uint64, mode RentMode, total *big.Int) (ledger.CallSpec, error) {
	if mode == RentalPlusInference {
		return e.ledger.RentAgentWithInferenceCall(tokenID, uses, total)
	}
	return e.ledger.RentAgentCall(tokenID, uses, total)
}
