// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/changeless/coinselect"
)

// jsonCoin is the JSON representation of a spendable coin, as found in the
// coins file.
type jsonCoin struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        int64  `json:"amount"`
	PkScript      string `json:"pkscript"`
	Confirmations int64  `json:"confirmations"`
	Label         string `json:"label,omitempty"`
}

// loadCoins reads the pool from the coins file.
func loadCoins(path string) (*coinselect.Pool, error) {
	// #nosec G304 -- the path is provided by the user.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open coins file: %w", err)
	}
	defer f.Close()

	return readCoins(f)
}

// readCoins decodes a JSON list of coins into a pool.
func readCoins(r io.Reader) (*coinselect.Pool, error) {
	var entries []jsonCoin
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("unable to decode coins: %w", err)
	}

	coins := make([]coinselect.Coin, 0, len(entries))
	for i, entry := range entries {
		hash, err := chainhash.NewHashFromStr(entry.TxID)
		if err != nil {
			return nil, fmt.Errorf("coin %d: invalid txid: %w", i, err)
		}

		pkScript, err := hex.DecodeString(entry.PkScript)
		if err != nil {
			return nil, fmt.Errorf("coin %d: invalid pkscript: %w", i,
				err)
		}

		coins = append(coins, coinselect.Coin{
			TxOut: wire.TxOut{
				Value:    entry.Amount,
				PkScript: pkScript,
			},
			OutPoint: wire.OutPoint{
				Hash:  *hash,
				Index: entry.Vout,
			},
			Confirmations: entry.Confirmations,
			Label:         entry.Label,
		})
	}

	return coinselect.NewPool(coins...)
}
