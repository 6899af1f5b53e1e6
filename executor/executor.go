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

// Package executor defines the narrow interface to the LLM runtime. The
// runtime is an external collaborator: it is invoked only after a usage
// right has been granted and any required payment has confirmed.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aigentchain/go-aigent/agent"
)

// Message is one turn of prior conversation context.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant" | "system"
	Content string `json:"content"`
}

// Request is a single execution of an agent against user input.
type Request struct {
	ID      string       `json:"id"`
	Agent   *agent.Agent `json:"agent"`
	Input   string       `json:"input"`
	Context []Message    `json:"context,omitempty"`
}

// NewRequest builds a request with a fresh id.
func NewRequest(ag *agent.Agent, input string, history []Message) *Request {
	return &Request{ID: uuid.NewString(), Agent: ag, Input: input, Context: history}
}

// TokenUsage reports the token accounting of one execution.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is the result of one execution.
type Response struct {
	Content       string        `json:"content"`
	Usage         TokenUsage    `json:"tokenUsage"`
	FinishReason  string        `json:"finishReason"`
	ToolsUsed     []string      `json:"toolsUsed,omitempty"`
	ExecutionTime time.Duration `json:"executionTimeMs"`
	Cost          float64       `json:"cost"` // provider-side cost, informational
}

// Executor runs an agent. Implementations wrap whatever LLM runtime serves
// the agent's model; blocking behavior and timeouts are theirs.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}
