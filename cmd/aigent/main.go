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

// aigent is the command line client for the tokenized AI-agent ledger:
// it lists marketplace agents, mints and trades them, prepays rentals and
// runs settled invocations.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/aigentchain/go-aigent/ledger"
	"github.com/aigentchain/go-aigent/settle"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	endpointFlag = cli.StringFlag{
		Name:  "endpoint",
		Usage: "Ledger RPC endpoint",
	}
	fallbackEndpointFlag = cli.StringFlag{
		Name:  "endpoint.fallback",
		Usage: "Fallback RPC endpoint tried once on a chain mismatch",
	}
	chainIDFlag = cli.Int64Flag{
		Name:  "chainid",
		Usage: "Chain ID of the ledger network",
	}
	contractFlag = cli.StringFlag{
		Name:  "contract",
		Usage: "Agent ledger contract address",
	}
	keyFileFlag = cli.StringFlag{
		Name:  "key",
		Usage: "File containing the hex-encoded signing key",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Directory for the persisted balance mirror",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "aigent"
	app.Usage = "client for the tokenized AI-agent ledger"
	app.Flags = []cli.Flag{
		configFileFlag, endpointFlag, fallbackEndpointFlag, chainIDFlag,
		contractFlag, keyFileFlag, dataDirFlag, verbosityFlag,
	}
	app.Commands = []cli.Command{
		listCommand, showCommand, balancesCommand,
		mintCommand, rentCommand, useCommand,
		buyCommand, sellCommand, delistCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		usecolor := isatty.IsTerminal(os.Stderr.Fd())
		output := log.StreamHandler(os.Stderr, log.TerminalFormat(usecolor))
		log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(ctx.GlobalInt(verbosityFlag.Name)), output))
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// makeEngine builds the full client stack from flags and config.
func makeEngine(ctx *cli.Context) (*settle.Engine, *ledger.Client, func(), error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	chainID := big.NewInt(cfg.ChainID)
	backend, err := ledger.Dial(context.Background(), cfg.Endpoint, chainID, cfg.FallbackEndpoint)
	if err != nil {
		return nil, nil, nil, err
	}
	client := ledger.NewClient(backend, common.HexToAddress(cfg.Contract), chainID)

	submitter := settle.NewSubmitter(backend, chainID, nil)
	if cfg.KeyFile != "" {
		key, err := crypto.LoadECDSA(cfg.KeyFile)
		if err != nil {
			backend.Close()
			return nil, nil, nil, fmt.Errorf("load key: %w", err)
		}
		submitter = settle.NewSubmitter(backend, chainID, key)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		backend.Close()
		return nil, nil, nil, err
	}
	mirror, err := settle.OpenMirror(filepath.Join(cfg.DataDir, "mirror.db"), submitter.From())
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	engine := settle.NewEngine(client, submitter, mirror, nil)
	cleanup := func() {
		mirror.Close()
		backend.Close()
	}
	return engine, client, cleanup, nil
}
