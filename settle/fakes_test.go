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
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aigentchain/go-aigent/agent"
	"github.com/aigentchain/go-aigent/ledger"
	"github.com/aigentchain/go-aigent/params"
)

var (
	alice = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	bob   = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

func testAgent(tokenID uint64, usageCost, rentPrice int64, forRent bool) *agent.Agent {
	return &agent.Agent{
		TokenID: tokenID,
		Metadata: agent.Metadata{
			Name:            "test agent",
			Model:           "gpt-4o",
			UsageCost:       big.NewInt(usageCost),
			RentPricePerUse: big.NewInt(rentPrice),
			IsForRent:       forRent,
		},
	}
}

// fakeLedger is an in-memory Contract implementation.
type fakeLedger struct {
	owner   common.Address
	agents  map[uint64]*agent.Agent
	prepaid map[common.Address]*big.Int
	rental  map[common.Address]*big.Int
	canUse  bool
	forSale bool
	price   *big.Int
	total   uint64
	minted  uint64
}

func newFakeLedger(ag *agent.Agent, owner common.Address) *fakeLedger {
	return &fakeLedger{
		owner:   owner,
		agents:  map[uint64]*agent.Agent{ag.TokenID: ag},
		prepaid: make(map[common.Address]*big.Int),
		rental:  make(map[common.Address]*big.Int),
		canUse:  true,
	}
}

func (f *fakeLedger) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	return f.owner, nil
}

func (f *fakeLedger) CanUseAgent(ctx context.Context, tokenID uint64, user common.Address) (bool, error) {
	return f.canUse, nil
}

func (f *fakeLedger) RentalBalance(ctx context.Context, tokenID uint64, user common.Address) (*big.Int, error) {
	if b := f.rental[user]; b != nil {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeLedger) PrepaidInferenceBalance(ctx context.Context, tokenID uint64, user common.Address) (*big.Int, error) {
	if b := f.prepaid[user]; b != nil {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeLedger) LoadAgent(ctx context.Context, tokenID uint64) (*agent.Agent, error) {
	return f.agents[tokenID], nil
}

func (f *fakeLedger) SaleInfo(ctx context.Context, tokenID uint64) (bool, *big.Int, error) {
	return f.forSale, f.price, nil
}

func (f *fakeLedger) TotalAgents(ctx context.Context) (uint64, error) {
	return f.total, nil
}

func spec(method string, value *big.Int) ledger.CallSpec {
	return ledger.CallSpec{Method: method, Value: value}
}

func (f *fakeLedger) RentAgentCall(tokenID, uses uint64, value *big.Int) (ledger.CallSpec, error) {
	return spec("rentAgent", value), nil
}

func (f *fakeLedger) RentAgentWithInferenceCall(tokenID, uses uint64, value *big.Int) (ledger.CallSpec, error) {
	return spec("rentAgentWithInference", value), nil
}

func (f *fakeLedger) UseAgentCall(tokenID uint64, value *big.Int) (ledger.CallSpec, error) {
	return spec("useAgent", value), nil
}

func (f *fakeLedger) UseAgentPrepaidCall(tokenID uint64) (ledger.CallSpec, error) {
	return spec("useAgentPrepaid", nil), nil
}

func (f *fakeLedger) ListAgentForSaleCall(tokenID uint64, price *big.Int) (ledger.CallSpec, error) {
	return spec("listAgentForSale", nil), nil
}

func (f *fakeLedger) DelistAgentFromSaleCall(tokenID uint64) (ledger.CallSpec, error) {
	return spec("delistAgentFromSale", nil), nil
}

func (f *fakeLedger) BuyAgentCall(tokenID uint64, price *big.Int) (ledger.CallSpec, error) {
	return spec("buyAgent", price), nil
}

func (f *fakeLedger) MintAgentCall(to common.Address, meta *agent.Metadata, tools *agent.ToolConfig) (ledger.CallSpec, error) {
	return spec("mintAgent", nil), nil
}

func (f *fakeLedger) MintedTokenID(ctx context.Context, receipt *types.Receipt) (uint64, error) {
	return f.minted, nil
}

// fakeSender records submitted specs and returns scripted results.
type fakeSender struct {
	from     common.Address
	calls    []ledger.CallSpec
	err      error
	onSubmit func()
}

func (s *fakeSender) Submit(ctx context.Context, cs ledger.CallSpec) (*types.Receipt, error) {
	s.calls = append(s.calls, cs)
	if s.onSubmit != nil {
		s.onSubmit()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.HexToHash("0x01")}, nil
}

func (s *fakeSender) From() common.Address { return s.from }

// fakeBackend scripts the RPC surface for submitter tests.
type fakeBackend struct {
	mu          sync.Mutex
	nonce       uint64
	nonces      []uint64 // scripted per-call nonces, then nonce
	nonceCalls  int
	estimate    uint64
	estimateErr error
	gasPrice    *big.Int
	tip         *big.Int
	baseFee     *big.Int

	sendErrs []error // one per SendTransaction call, nil = accepted
	sent     []*types.Transaction

	receiptStatus uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		estimate:      100_000,
		gasPrice:      big.NewInt(2_000_000_000),
		tip:           big.NewInt(1_500_000_000),
		baseFee:       big.NewInt(1_000_000_000),
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: b.baseFee, Number: big.NewInt(1)}, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return b.gasPrice, nil }

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) { return b.tip, nil }

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return b.estimate, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nonceCalls < len(b.nonces) {
		n := b.nonces[b.nonceCalls]
		b.nonceCalls++
		return n, nil
	}
	b.nonceCalls++
	return b.nonce, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := len(b.sent)
	b.sent = append(b.sent, tx)
	if i < len(b.sendErrs) {
		return b.sendErrs[i]
	}
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: b.receiptStatus, TxHash: txHash, BlockNumber: big.NewInt(2)}, nil
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(params.Ether), nil
}
