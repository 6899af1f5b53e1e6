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
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/aigentchain/go-aigent/agent"
)

// ErrEventNotFound is returned (wrapped) when an expected contract event is
// absent from a confirmed receipt.
var ErrEventNotFound = errors.New("expected event not found in receipt")

// CallSpec is a prepared ledger-mutating call: ABI-encoded calldata plus the
// value to attach. Specs are pure data; submission is the settlement layer's
// concern.
type CallSpec struct {
	Method string // for logs and error context
	To     common.Address
	Data   []byte
	Value  *big.Int
}

// Client is the typed call surface of one deployed agent ledger contract.
// It is constructed once with its connection parameters and passed by
// reference; there is no lazily initialized shared instance.
type Client struct {
	backend  Backend
	contract common.Address
	chainID  *big.Int
}

// NewClient creates a contract client bound to the given backend.
func NewClient(backend Backend, contract common.Address, chainID *big.Int) *Client {
	return &Client{backend: backend, contract: contract, chainID: chainID}
}

// Contract returns the bound contract address.
func (c *Client) Contract() common.Address { return c.contract }

// ChainID returns the chain the contract lives on.
func (c *Client) ChainID() *big.Int { return c.chainID }

// Backend returns the underlying RPC backend.
func (c *Client) Backend() Backend { return c.backend }

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := ledgerABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	ret, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := ledgerABI.Unpack(method, ret)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// OwnerOf returns the current owner of the token.
func (c *Client) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	out, err := c.call(ctx, "ownerOf", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// TotalAgents returns the number of minted agents.
func (c *Client) TotalAgents(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "totalAgents")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// CanUseAgent mirrors the contract's admission gate (daily cap and access
// rules). The ledger re-checks on every settlement call; this view only
// avoids building transactions that would revert.
func (c *Client) CanUseAgent(ctx context.Context, tokenID uint64, user common.Address) (bool, error) {
	out, err := c.call(ctx, "canUseAgent", new(big.Int).SetUint64(tokenID), user)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// RentalBalance returns the remaining prepaid rental uses of user.
func (c *Client) RentalBalance(ctx context.Context, tokenID uint64, user common.Address) (*big.Int, error) {
	out, err := c.call(ctx, "getRentalBalance", new(big.Int).SetUint64(tokenID), user)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// PrepaidInferenceBalance returns the remaining prepaid inference uses of user.
func (c *Client) PrepaidInferenceBalance(ctx context.Context, tokenID uint64, user common.Address) (*big.Int, error) {
	out, err := c.call(ctx, "getPrepaidInferenceBalance", new(big.Int).SetUint64(tokenID), user)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// SaleInfo returns whether the token is listed for sale and at what price.
func (c *Client) SaleInfo(ctx context.Context, tokenID uint64) (bool, *big.Int, error) {
	out, err := c.call(ctx, "getSaleInfo", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return false, nil, err
	}
	return out[0].(bool), out[1].(*big.Int), nil
}

// Metadata reads the agent's ledger metadata record.
func (c *Client) Metadata(ctx context.Context, tokenID uint64) (*agent.Metadata, error) {
	out, err := c.call(ctx, "getAgentMetadata", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return nil, err
	}
	return &agent.Metadata{
		Name:            out[0].(string),
		Description:     out[1].(string),
		Model:           out[2].(string),
		UsageCost:       out[3].(*big.Int),
		MaxUsagesPerDay: out[4].(uint64),
		IsForRent:       out[5].(bool),
		RentPricePerUse: out[6].(*big.Int),
		ContentURI:      out[7].(string),
		CreatedAt:       out[8].(uint64),
		Creator:         out[9].(common.Address),
	}, nil
}

// ToolConfig reads the agent's execution parameter record. Scaled fields are
// returned as the raw ledger integers.
func (c *Client) ToolConfig(ctx context.Context, tokenID uint64) (*agent.ToolConfig, error) {
	out, err := c.call(ctx, "getToolConfig", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return nil, err
	}
	return &agent.ToolConfig{
		ScaledTemperature:      out[0].(int64),
		MaxTokens:              out[1].(int64),
		ScaledTopP:             out[2].(int64),
		ScaledFrequencyPenalty: out[3].(int64),
		ScaledPresencePenalty:  out[4].(int64),
		WebSearch:              out[5].(bool),
		CodeExecution:          out[6].(bool),
		BrowserAutomation:      out[7].(bool),
		Streaming:              out[8].(bool),
		ResponseFormat:         out[9].(string),
	}, nil
}

// LoadAgent reads both records of a token into one snapshot.
func (c *Client) LoadAgent(ctx context.Context, tokenID uint64) (*agent.Agent, error) {
	meta, err := c.Metadata(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	tools, err := c.ToolConfig(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &agent.Agent{TokenID: tokenID, Metadata: *meta, Tools: *tools}, nil
}

func (c *Client) spec(method string, value *big.Int, args ...interface{}) (CallSpec, error) {
	data, err := ledgerABI.Pack(method, args...)
	if err != nil {
		return CallSpec{}, fmt.Errorf("pack %s: %w", method, err)
	}
	return CallSpec{Method: method, To: c.contract, Data: data, Value: value}, nil
}

// RentAgentCall prepares a rental-only prepayment for uses future uses.
func (c *Client) RentAgentCall(tokenID, uses uint64, value *big.Int) (CallSpec, error) {
	return c.spec("rentAgent", value, new(big.Int).SetUint64(tokenID), new(big.Int).SetUint64(uses))
}

// RentAgentWithInferenceCall prepares a bundled rental+inference prepayment.
func (c *Client) RentAgentWithInferenceCall(tokenID, uses uint64, value *big.Int) (CallSpec, error) {
	return c.spec("rentAgentWithInference", value, new(big.Int).SetUint64(tokenID), new(big.Int).SetUint64(uses))
}

// UseAgentCall prepares a single consumption. value is the pay-per-use price,
// or zero when a rental balance covers the use.
func (c *Client) UseAgentCall(tokenID uint64, value *big.Int) (CallSpec, error) {
	return c.spec("useAgent", value, new(big.Int).SetUint64(tokenID))
}

// UseAgentPrepaidCall prepares a consumption against a prepaid inference
// balance. No value is attached.
func (c *Client) UseAgentPrepaidCall(tokenID uint64) (CallSpec, error) {
	return c.spec("useAgentPrepaid", nil, new(big.Int).SetUint64(tokenID))
}

// ListAgentForSaleCall prepares a sale listing at price wei.
func (c *Client) ListAgentForSaleCall(tokenID uint64, price *big.Int) (CallSpec, error) {
	return c.spec("listAgentForSale", nil, new(big.Int).SetUint64(tokenID), price)
}

// DelistAgentFromSaleCall prepares a sale delisting.
func (c *Client) DelistAgentFromSaleCall(tokenID uint64) (CallSpec, error) {
	return c.spec("delistAgentFromSale", nil, new(big.Int).SetUint64(tokenID))
}

// BuyAgentCall prepares a purchase at the listed price.
func (c *Client) BuyAgentCall(tokenID uint64, price *big.Int) (CallSpec, error) {
	return c.spec("buyAgent", price, new(big.Int).SetUint64(tokenID))
}

// mintInput mirrors the metadata tuple of mintAgent.
type mintInput struct {
	Name            string
	Description     string
	Model           string
	UsageCost       *big.Int
	MaxUsagesPerDay uint64
	IsForRent       bool
	RentPricePerUse *big.Int
}

// toolInput mirrors the toolConfig tuple of mintAgent.
type toolInput struct {
	Temperature       int64
	MaxTokens         int64
	TopP              int64
	FrequencyPenalty  int64
	PresencePenalty   int64
	WebSearch         bool
	CodeExecution     bool
	BrowserAutomation bool
	Streaming         bool
	ResponseFormat    string
}

// MintAgentCall prepares the mint of a new tokenized agent owned by to.
func (c *Client) MintAgentCall(to common.Address, meta *agent.Metadata, tools *agent.ToolConfig) (CallSpec, error) {
	return c.spec("mintAgent", nil, to,
		mintInput{
			Name:            meta.Name,
			Description:     meta.Description,
			Model:           meta.Model,
			UsageCost:       meta.UsageCost,
			MaxUsagesPerDay: meta.MaxUsagesPerDay,
			IsForRent:       meta.IsForRent,
			RentPricePerUse: meta.RentPricePerUse,
		},
		toolInput{
			Temperature:       tools.ScaledTemperature,
			MaxTokens:         tools.MaxTokens,
			TopP:              tools.ScaledTopP,
			FrequencyPenalty:  tools.ScaledFrequencyPenalty,
			PresencePenalty:   tools.ScaledPresencePenalty,
			WebSearch:         tools.WebSearch,
			CodeExecution:     tools.CodeExecution,
			BrowserAutomation: tools.BrowserAutomation,
			Streaming:         tools.Streaming,
			ResponseFormat:    tools.ResponseFormat,
		},
		meta.ContentURI)
}

// MintedTokenID recovers the token id assigned by a confirmed mint. The
// AgentMinted event in the receipt is authoritative. If the event cannot be
// located, the post-mint total-agent count is used as the assumed id; this
// heuristic is only correct absent concurrent mints and is therefore logged
// rather than applied silently.
func (c *Client) MintedTokenID(ctx context.Context, receipt *types.Receipt) (uint64, error) {
	topic := ledgerABI.Events["AgentMinted"].ID
	for _, l := range receipt.Logs {
		if l.Address != c.contract || len(l.Topics) < 2 || l.Topics[0] != topic {
			continue
		}
		return new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64(), nil
	}
	log.Warn("Mint event missing from receipt, falling back to agent count",
		"tx", receipt.TxHash, "err", ErrEventNotFound)
	total, err := c.TotalAgents(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count fallback failed: %v", ErrEventNotFound, err)
	}
	return total, nil
}
