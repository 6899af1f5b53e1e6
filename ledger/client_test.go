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

package ledger

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aigentchain/go-aigent/agent"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000CC")
	testUser     = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
)

// viewBackend answers CallContract with pre-encoded outputs per method
// selector and stubs the rest of the Backend surface.
type viewBackend struct {
	returns map[[4]byte][]byte
}

func newViewBackend() *viewBackend {
	return &viewBackend{returns: make(map[[4]byte][]byte)}
}

func (b *viewBackend) setReturn(t *testing.T, method string, values ...interface{}) {
	t.Helper()
	out, err := ledgerABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	var sel [4]byte
	copy(sel[:], ledgerABI.Methods[method].ID)
	b.returns[sel] = out
}

func (b *viewBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var sel [4]byte
	copy(sel[:], call.Data[:4])
	return b.returns[sel], nil
}

func (b *viewBackend) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (b *viewBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}
func (b *viewBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (b *viewBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (b *viewBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}
func (b *viewBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}
func (b *viewBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error { return nil }
func (b *viewBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}
func (b *viewBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func newTestClient(backend Backend) *Client {
	return NewClient(backend, testContract, big.NewInt(1))
}

func TestMetadataDecode(t *testing.T) {
	backend := newViewBackend()
	backend.setReturn(t, "getAgentMetadata",
		"research assistant", "summarizes papers", "gpt-4o",
		big.NewInt(1000), uint64(20), true, big.NewInt(500),
		"ipfs://QmConfig", uint64(1700000000), testUser)

	meta, err := newTestClient(backend).Metadata(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Name != "research assistant" {
		t.Fatalf("unexpected name %q", meta.Name)
	}
	if meta.UsageCost.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected usage cost %s", meta.UsageCost)
	}
	if !meta.IsForRent || meta.RentPricePerUse.Cmp(big.NewInt(500)) != 0 {
		t.Fatal("rent fields decoded wrong")
	}
	if meta.Creator != testUser {
		t.Fatalf("unexpected creator %s", meta.Creator.Hex())
	}
}

func TestToolConfigDecodeScaled(t *testing.T) {
	backend := newViewBackend()
	backend.setReturn(t, "getToolConfig",
		int64(700), int64(4096), int64(950), int64(-500), int64(0),
		true, false, false, true, "json")

	cfg, err := newTestClient(backend).ToolConfig(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ScaledTemperature != 700 {
		t.Fatalf("unexpected scaled temperature %d", cfg.ScaledTemperature)
	}
	if cfg.Temperature() != 0.7 {
		t.Fatalf("unexpected temperature %f", cfg.Temperature())
	}
	if cfg.FrequencyPenalty() != -0.5 {
		t.Fatalf("unexpected frequency penalty %f", cfg.FrequencyPenalty())
	}
	if !cfg.WebSearch || cfg.CodeExecution {
		t.Fatal("capability flags decoded wrong")
	}
}

func TestCallSpecSelectors(t *testing.T) {
	client := newTestClient(newViewBackend())

	tests := []struct {
		method string
		build  func() (CallSpec, error)
	}{
		{"rentAgent", func() (CallSpec, error) { return client.RentAgentCall(1, 5, big.NewInt(25)) }},
		{"rentAgentWithInference", func() (CallSpec, error) { return client.RentAgentWithInferenceCall(1, 5, big.NewInt(75)) }},
		{"useAgent", func() (CallSpec, error) { return client.UseAgentCall(1, big.NewInt(10)) }},
		{"useAgentPrepaid", func() (CallSpec, error) { return client.UseAgentPrepaidCall(1) }},
		{"listAgentForSale", func() (CallSpec, error) { return client.ListAgentForSaleCall(1, big.NewInt(1000)) }},
		{"delistAgentFromSale", func() (CallSpec, error) { return client.DelistAgentFromSaleCall(1) }},
		{"buyAgent", func() (CallSpec, error) { return client.BuyAgentCall(1, big.NewInt(1000)) }},
	}
	for _, tt := range tests {
		cs, err := tt.build()
		if err != nil {
			t.Fatalf("%s: %v", tt.method, err)
		}
		if cs.Method != tt.method {
			t.Fatalf("expected method %s, got %s", tt.method, cs.Method)
		}
		if !bytes.Equal(cs.Data[:4], ledgerABI.Methods[tt.method].ID) {
			t.Fatalf("%s: selector mismatch", tt.method)
		}
		if cs.To != testContract {
			t.Fatalf("%s: wrong destination", tt.method)
		}
	}
}

func TestMintAgentCallPacksTuples(t *testing.T) {
	client := newTestClient(newViewBackend())
	meta := &agent.Metadata{
		Name:            "coder",
		Model:           "claude-3",
		UsageCost:       big.NewInt(100),
		RentPricePerUse: big.NewInt(50),
		MaxUsagesPerDay: 10,
		IsForRent:       true,
		ContentURI:      "ipfs://QmX",
	}
	tools := &agent.ToolConfig{ScaledTemperature: 500, MaxTokens: 2048, ScaledTopP: 1000, ResponseFormat: "text"}

	cs, err := client.MintAgentCall(testUser, meta, tools)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cs.Data[:4], ledgerABI.Methods["mintAgent"].ID) {
		t.Fatal("selector mismatch")
	}
}

func TestMintedTokenIDFromEvent(t *testing.T) {
	client := newTestClient(newViewBackend())
	receipt := &types.Receipt{
		TxHash: common.HexToHash("0x01"),
		Logs: []*types.Log{{
			Address: testContract,
			Topics: []common.Hash{
				ledgerABI.Events["AgentMinted"].ID,
				common.BigToHash(big.NewInt(42)),
				common.BytesToHash(testUser.Bytes()),
			},
		}},
	}
	id, err := client.MintedTokenID(context.Background(), receipt)
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
}

func TestMintedTokenIDCountFallback(t *testing.T) {
	backend := newViewBackend()
	backend.setReturn(t, "totalAgents", big.NewInt(7))
	client := newTestClient(backend)

	// Receipt without the mint event: the post-mint count is assumed.
	receipt := &types.Receipt{TxHash: common.HexToHash("0x02")}
	id, err := client.MintedTokenID(context.Background(), receipt)
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Fatalf("expected fallback id 7, got %d", id)
	}
}

func TestMintedTokenIDIgnoresForeignLogs(t *testing.T) {
	backend := newViewBackend()
	backend.setReturn(t, "totalAgents", big.NewInt(9))
	client := newTestClient(backend)

	receipt := &types.Receipt{
		TxHash: common.HexToHash("0x03"),
		Logs: []*types.Log{{
			// Same topic shape, wrong emitting contract.
			Address: testUser,
			Topics: []common.Hash{
				ledgerABI.Events["AgentMinted"].ID,
				common.BigToHash(big.NewInt(5)),
				common.BytesToHash(testUser.Bytes()),
			},
		}},
	}
	id, err := client.MintedTokenID(context.Background(), receipt)
	if err != nil {
		t.Fatal(err)
	}
	if id != 9 {
		t.Fatalf("expected fallback id 9, got %d", id)
	}
}
