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
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// contractABI is the agent ledger contract interface. View methods return
// flat value lists; mintAgent takes the two record structs as tuples.
const contractABI = `[
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"totalAgents","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getAgentMetadata","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
    {"name":"name","type":"string"},
    {"name":"description","type":"string"},
    {"name":"model","type":"string"},
    {"name":"usageCost","type":"uint256"},
    {"name":"maxUsagesPerDay","type":"uint64"},
    {"name":"isForRent","type":"bool"},
    {"name":"rentPricePerUse","type":"uint256"},
    {"name":"contentURI","type":"string"},
    {"name":"createdAt","type":"uint64"},
    {"name":"creator","type":"address"}]},
  {"type":"function","name":"getToolConfig","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
    {"name":"temperature","type":"int64"},
    {"name":"maxTokens","type":"int64"},
    {"name":"topP","type":"int64"},
    {"name":"frequencyPenalty","type":"int64"},
    {"name":"presencePenalty","type":"int64"},
    {"name":"webSearch","type":"bool"},
    {"name":"codeExecution","type":"bool"},
    {"name":"browserAutomation","type":"bool"},
    {"name":"streaming","type":"bool"},
    {"name":"responseFormat","type":"string"}]},
  {"type":"function","name":"canUseAgent","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getRentalBalance","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getPrepaidInferenceBalance","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getSaleInfo","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"isForSale","type":"bool"},{"name":"price","type":"uint256"}]},
  {"type":"function","name":"rentAgent","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"uses","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"rentAgentWithInference","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"uses","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"useAgent","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"useAgentPrepaid","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"listAgentForSale","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"price","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"delistAgentFromSale","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"buyAgent","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"mintAgent","stateMutability":"nonpayable","inputs":[
    {"name":"to","type":"address"},
    {"name":"metadata","type":"tuple","components":[
      {"name":"name","type":"string"},
      {"name":"description","type":"string"},
      {"name":"model","type":"string"},
      {"name":"usageCost","type":"uint256"},
      {"name":"maxUsagesPerDay","type":"uint64"},
      {"name":"isForRent","type":"bool"},
      {"name":"rentPricePerUse","type":"uint256"}]},
    {"name":"toolConfig","type":"tuple","components":[
      {"name":"temperature","type":"int64"},
      {"name":"maxTokens","type":"int64"},
      {"name":"topP","type":"int64"},
      {"name":"frequencyPenalty","type":"int64"},
      {"name":"presencePenalty","type":"int64"},
      {"name":"webSearch","type":"bool"},
      {"name":"codeExecution","type":"bool"},
      {"name":"browserAutomation","type":"bool"},
      {"name":"streaming","type":"bool"},
      {"name":"responseFormat","type":"string"}]},
    {"name":"contentURI","type":"string"}],
   "outputs":[{"name":"tokenId","type":"uint256"}]},
  {"type":"event","name":"AgentMinted","inputs":[
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"creator","type":"address","indexed":true}]}
]`

var ledgerABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		panic("ledger: invalid contract ABI: " + err.Error())
	}
	return parsed
}()
