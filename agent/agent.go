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

// Package agent defines the client-side representation of tokenized AI
// agents: the immutable token identity plus the two ledger-owned records,
// agent metadata and tool configuration.
//
// Real-valued tool parameters are stored on the ledger as integers scaled by
// params.ParamScale. The scaled integers are authoritative; the float
// accessors exist for consumers that feed an LLM runtime.
package agent

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aigentchain/go-aigent/params"
)

// Metadata is the ledger-owned descriptive and pricing record of an agent.
// It is mutable only through explicit settlement calls on the ledger.
type Metadata struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Model           string         `json:"model"`           // model identifier, e.g. "gpt-4o"
	UsageCost       *big.Int       `json:"usageCost"`       // price per use in wei
	MaxUsagesPerDay uint64         `json:"maxUsagesPerDay"` // 0 = unlimited
	IsForRent       bool           `json:"isForRent"`
	RentPricePerUse *big.Int       `json:"rentPricePerUse"` // wei
	ContentURI      string         `json:"contentURI"`      // off-chain config pointer
	CreatedAt       uint64         `json:"createdAt"`       // unix seconds
	Creator         common.Address `json:"creator"`
}

// ToolConfig holds the execution parameters and capability flags of an agent.
// Scaled fields carry ledger fixed-point integers (×params.ParamScale).
type ToolConfig struct {
	ScaledTemperature      int64 `json:"temperature"`
	MaxTokens              int64 `json:"maxTokens"`
	ScaledTopP             int64 `json:"topP"`
	ScaledFrequencyPenalty int64 `json:"frequencyPenalty"`
	ScaledPresencePenalty  int64 `json:"presencePenalty"`

	WebSearch         bool   `json:"webSearch"`
	CodeExecution     bool   `json:"codeExecution"`
	BrowserAutomation bool   `json:"browserAutomation"`
	Streaming         bool   `json:"streaming"`
	ResponseFormat    string `json:"responseFormat"`
}

// Temperature returns the sampling temperature as a real value.
func (c *ToolConfig) Temperature() float64 {
	return float64(c.ScaledTemperature) / params.ParamScale
}

// TopP returns the nucleus sampling parameter as a real value.
func (c *ToolConfig) TopP() float64 {
	return float64(c.ScaledTopP) / params.ParamScale
}

// FrequencyPenalty returns the frequency penalty as a real value.
func (c *ToolConfig) FrequencyPenalty() float64 {
	return float64(c.ScaledFrequencyPenalty) / params.ParamScale
}

// PresencePenalty returns the presence penalty as a real value.
func (c *ToolConfig) PresencePenalty() float64 {
	return float64(c.ScaledPresencePenalty) / params.ParamScale
}

// Agent is a fully loaded tokenized agent: immutable token identity plus the
// current ledger state of its two records. Ownership transfers on the ledger
// invalidate any usage right previously resolved against the old owner, so
// an Agent snapshot must not outlive the invocation it was loaded for.
type Agent struct {
	TokenID  uint64     `json:"tokenId"`
	Metadata Metadata   `json:"metadata"`
	Tools    ToolConfig `json:"toolConfig"`
}

// RentalCost returns the rental-only prepayment for n uses.
func (a *Agent) RentalCost(n uint64) *big.Int {
	return new(big.Int).Mul(a.Metadata.RentPricePerUse, new(big.Int).SetUint64(n))
}

// InferenceCost returns the inference prepayment for n uses.
func (a *Agent) InferenceCost(n uint64) *big.Int {
	return new(big.Int).Mul(a.Metadata.UsageCost, new(big.Int).SetUint64(n))
}
