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
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

type aigentConfig struct {
	// Endpoint is the ledger RPC endpoint.
	Endpoint string
	// FallbackEndpoint is tried once when Endpoint serves the wrong chain.
	FallbackEndpoint string `toml:",omitempty"`
	// ChainID of the network the contract is deployed on.
	ChainID int64
	// Contract is the agent ledger contract address.
	Contract string
	// KeyFile holds the hex-encoded signing key.
	KeyFile string `toml:",omitempty"`
	// DataDir holds the persisted balance mirror.
	DataDir string `toml:",omitempty"`
}

func defaultConfig() aigentConfig {
	home, _ := os.UserHomeDir()
	return aigentConfig{
		Endpoint: "http://127.0.0.1:8545",
		ChainID:  1,
		DataDir:  filepath.Join(home, ".aigent"),
	}
}

func loadConfig(file string, cfg *aigentConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the TOML file if given, then applies flag overrides.
func makeConfig(ctx *cli.Context) (aigentConfig, error) {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.GlobalIsSet(endpointFlag.Name) {
		cfg.Endpoint = ctx.GlobalString(endpointFlag.Name)
	}
	if ctx.GlobalIsSet(fallbackEndpointFlag.Name) {
		cfg.FallbackEndpoint = ctx.GlobalString(fallbackEndpointFlag.Name)
	}
	if ctx.GlobalIsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.GlobalInt64(chainIDFlag.Name)
	}
	if ctx.GlobalIsSet(contractFlag.Name) {
		cfg.Contract = ctx.GlobalString(contractFlag.Name)
	}
	if ctx.GlobalIsSet(keyFileFlag.Name) {
		cfg.KeyFile = ctx.GlobalString(keyFileFlag.Name)
	}
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if cfg.Contract == "" {
		return cfg, errors.New("no contract address configured (--contract or config file)")
	}
	return cfg, nil
}
