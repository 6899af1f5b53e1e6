// Copyright 2025 The go-aigent Authors
// This file is part of go-aigent.
//
// go-aigent is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-aigent is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-aigent. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/aigentchain/go-aigent/agent"
	"github.com/aigentchain/go-aigent/market"
	"github.com/aigentchain/go-aigent/settle"
)

var (
	listCommand = cli.Command{
		Action:    runList,
		Name:      "list",
		Usage:     "List marketplace agents",
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "forrent", Usage: "only agents listed for rent"},
			cli.BoolFlag{Name: "forsale", Usage: "only agents listed for sale"},
			cli.StringFlag{Name: "model", Usage: "filter by model identifier substring"},
		},
	}
	showCommand = cli.Command{
		Action:    runShow,
		Name:      "show",
		Usage:     "Show one agent's ledger records",
		ArgsUsage: "<tokenId>",
	}
	balancesCommand = cli.Command{
		Action:    runBalances,
		Name:      "balances",
		Usage:     "Show the local balance mirror, reconciled from the ledger",
		ArgsUsage: "[tokenId...]",
	}
	mintCommand = cli.Command{
		Action:    runMint,
		Name:      "mint",
		Usage:     "Mint a new tokenized agent from a JSON definition",
		ArgsUsage: "<definition.json>",
	}
	rentCommand = cli.Command{
		Action:    runRent,
		Name:      "rent",
		Usage:     "Prepay rental uses of an agent",
		ArgsUsage: "<tokenId> <uses>",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "inference", Usage: "bundle the inference prepayment"},
		},
	}
	useCommand = cli.Command{
		Action:    runUse,
		Name:      "use",
		Usage:     "Settle and run one invocation of an agent",
		ArgsUsage: "<tokenId> <input...>",
	}
	buyCommand = cli.Command{
		Action:    runBuy,
		Name:      "buy",
		Usage:     "Buy a listed agent at its sale price",
		ArgsUsage: "<tokenId>",
	}
	sellCommand = cli.Command{
		Action:    runSell,
		Name:      "sell",
		Usage:     "List an owned agent for sale",
		ArgsUsage: "<tokenId> <price-wei>",
	}
	delistCommand = cli.Command{
		Action:    runDelist,
		Name:      "delist",
		Usage:     "Remove an owned agent from sale",
		ArgsUsage: "<tokenId>",
	}
)

func tokenArg(ctx *cli.Context, i int) (uint64, error) {
	if len(ctx.Args()) <= i {
		return 0, errors.New("missing tokenId argument")
	}
	return strconv.ParseUint(ctx.Args()[i], 10, 64)
}

func runList(ctx *cli.Context) error {
	_, client, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	view := market.NewView(client)
	listings, err := view.All(context.Background(), market.Filter{
		ForRent: ctx.Bool("forrent"),
		ForSale: ctx.Bool("forsale"),
		Model:   ctx.String("model"),
	})
	if err != nil {
		return err
	}
	for _, l := range listings {
		sale := "-"
		if l.ForSale {
			sale = l.SalePrice.String()
		}
		fmt.Printf("#%-6d %-24s model=%-16s owner=%s rent=%v sale=%s\n",
			l.TokenID, l.Metadata.Name, l.Metadata.Model, l.Owner.Hex(), l.Metadata.IsForRent, sale)
	}
	return nil
}

func runShow(ctx *cli.Context) error {
	_, client, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := tokenArg(ctx, 0)
	if err != nil {
		return err
	}
	ag, err := client.LoadAgent(context.Background(), id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(ag, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runBalances(ctx *cli.Context) error {
	engine, client, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var ids []uint64
	for i := range ctx.Args() {
		id, err := tokenArg(ctx, i)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		// The full agent set: reconcile so tokens that left the set are
		// dropped from the persisted snapshot.
		total, err := client.TotalAgents(context.Background())
		if err != nil {
			return err
		}
		for id := uint64(1); id <= total; id++ {
			ids = append(ids, id)
		}
		if err := engine.Mirror().Reconcile(context.Background(), client, ids); err != nil {
			return err
		}
	} else if err := engine.Mirror().Refresh(context.Background(), client, ids); err != nil {
		return err
	}
	for _, id := range ids {
		if uses := engine.Mirror().Get(id); uses > 0 {
			fmt.Printf("#%-6d %d uses remaining\n", id, uses)
		}
	}
	return nil
}

// mintDefinition is the JSON shape accepted by the mint command.
type mintDefinition struct {
	Metadata agent.Metadata   `json:"metadata"`
	Tools    agent.ToolConfig `json:"toolConfig"`
}

func runMint(ctx *cli.Context) error {
	engine, _, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(ctx.Args()) < 1 {
		return errors.New("missing definition file argument")
	}
	raw, err := os.ReadFile(ctx.Args()[0])
	if err != nil {
		return err
	}
	var def mintDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return err
	}
	if def.Metadata.UsageCost == nil {
		def.Metadata.UsageCost = new(big.Int)
	}
	if def.Metadata.RentPricePerUse == nil {
		def.Metadata.RentPricePerUse = new(big.Int)
	}
	id, receipt, err := engine.Mint(context.Background(), engine.From(), &def.Metadata, &def.Tools)
	if err != nil {
		return err
	}
	fmt.Printf("minted agent #%d (tx %s)\n", id, receipt.TxHash.Hex())
	return nil
}

func runRent(ctx *cli.Context) error {
	engine, client, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := tokenArg(ctx, 0)
	if err != nil {
		return err
	}
	if len(ctx.Args()) < 2 {
		return errors.New("missing uses argument")
	}
	uses, err := strconv.ParseUint(ctx.Args()[1], 10, 64)
	if err != nil {
		return err
	}
	mode := settle.RentalOnly
	if ctx.Bool("inference") {
		mode = settle.RentalPlusInference
	}
	ag, err := client.LoadAgent(context.Background(), id)
	if err != nil {
		return err
	}
	quote := settle.QuoteRent(ag, uses, mode)
	fmt.Printf("renting %d uses of agent #%d for %s wei (%s)\n", uses, id, quote.TotalCost, mode)
	// The quoted total travels with the settlement: a price change between
	// the line above and the submission aborts with a cost mismatch.
	receipt, err := engine.Rent(context.Background(), id, uses, mode, quote.TotalCost)
	if err != nil {
		return err
	}
	fmt.Printf("rented %d uses of agent #%d (tx %s)\n", uses, id, receipt.TxHash.Hex())
	return nil
}

func runUse(ctx *cli.Context) error {
	engine, _, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := tokenArg(ctx, 0)
	if err != nil {
		return err
	}
	input := ""
	if len(ctx.Args()) > 1 {
		input = ctx.Args()[1]
	}
	result, err := engine.Use(context.Background(), id, input, nil)
	if err != nil {
		return err
	}
	fmt.Printf("pathway: %s\n", result.Right.Pathway)
	if result.Receipt != nil {
		fmt.Printf("settlement tx: %s\n", result.Receipt.TxHash.Hex())
	}
	if result.Response != nil {
		fmt.Println(result.Response.Content)
	}
	return nil
}

func runBuy(ctx *cli.Context) error {
	engine, _, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := tokenArg(ctx, 0)
	if err != nil {
		return err
	}
	receipt, err := engine.Buy(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("bought agent #%d (tx %s)\n", id, receipt.TxHash.Hex())
	return nil
}

func runSell(ctx *cli.Context) error {
	engine, _, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := tokenArg(ctx, 0)
	if err != nil {
		return err
	}
	if len(ctx.Args()) < 2 {
		return errors.New("missing price argument")
	}
	price, ok := new(big.Int).SetString(ctx.Args()[1], 10)
	if !ok {
		return fmt.Errorf("invalid price %q", ctx.Args()[1])
	}
	receipt, err := engine.List(context.Background(), id, price)
	if err != nil {
		return err
	}
	fmt.Printf("listed agent #%d for %s wei (tx %s)\n", id, price, receipt.TxHash.Hex())
	return nil
}

func runDelist(ctx *cli.Context) error {
	engine, _, cleanup, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := tokenArg(ctx, 0)
	if err != nil {
		return err
	}
	receipt, err := engine.Delist(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Printf("delisted agent #%d (tx %s)\n", id, receipt.TxHash.Hex())
	return nil
}
