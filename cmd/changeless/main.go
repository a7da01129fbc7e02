// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/btcsuite/btcwallet/wallet/txauthor"
	"github.com/btcsuite/changeless/coinselect"
	"github.com/btcsuite/changeless/suggestion"
	"github.com/jessevdk/go-flags"
)

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed.
	if err := changelessMain(os.Args[1:], os.Stdout); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// changelessMain searches the coins for changeless payments and prints the
// resulting transactions to out.
func changelessMain(args []string, out io.Writer) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := initLogRotator(cfg.logFilePath); err != nil {
		return err
	}
	defer logRotator.Close()

	setLogLevels(cfg.DebugLevel)

	pool, err := loadCoins(cfg.CoinsFile)
	if err != nil {
		return err
	}

	eligible := pool.Filter(cfg.MinConfs)
	log.Infof("Loaded %d coins worth %v, %d with at least %d "+
		"confirmations", pool.Len(), pool.TotalValue(), eligible.Len(),
		cfg.MinConfs)

	selectorCfg, err := cfg.selectorConfig(eligible)
	if err != nil {
		return err
	}

	selector, err := coinselect.New(selectorCfg)
	if err != nil {
		return err
	}

	// Interrupting the search, or running out of time, ends it without
	// an error.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	materializer := &coinselect.AuthorMaterializer{}
	req := cfg.request()

	var count int
	if cfg.fiatRate.IsPositive() {
		count, err = printSuggestions(ctx, cfg, selector, materializer,
			eligible, req, out)
	} else {
		count, err = printSelections(ctx, cfg, selector, materializer,
			eligible, req, out)
	}
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Fprintln(out, "No changeless payment found")
	}

	return nil
}

// printSuggestions prints the fiat priced suggestions of a run.
func printSuggestions(ctx context.Context, cfg *config,
	selector *coinselect.Selector, materializer coinselect.TxMaterializer,
	pool *coinselect.Pool, req *coinselect.Request,
	out io.Writer) (int, error) {

	generator := &suggestion.Generator{
		Selector:     selector,
		Materializer: materializer,
		Rates:        &suggestion.StaticRate{Rate: cfg.fiatRate},
		Currency:     cfg.Currency,
	}

	suggestions, err := generator.Suggestions(ctx, pool, req)
	if err != nil {
		return 0, err
	}

	var count int
	for s := range suggestions {
		count++
		fmt.Fprintf(out, "Suggestion %d: pay %s (%s, %s)\n", count,
			s.AmountText, s.AmountFiatText, s.DifferenceText)

		if err := printTx(out, &s.Candidate, s.Tx); err != nil {
			return count, err
		}

		if cfg.Limit > 0 && count >= cfg.Limit {
			break
		}
	}

	return count, nil
}

// printSelections prints the transactions of a run without fiat pricing.
func printSelections(ctx context.Context, cfg *config,
	selector *coinselect.Selector, materializer coinselect.TxMaterializer,
	pool *coinselect.Pool, req *coinselect.Request,
	out io.Writer) (int, error) {

	stream, err := selector.Search(ctx, pool, req)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	var count int
	for candidate := range stream.All() {
		tx, err := materializer.Materialize(
			&candidate, req.Destination, req.FeeRate,
		)
		if err != nil {
			log.Warnf("Skipping selection %v: %v", &candidate, err)
			continue
		}

		count++
		fmt.Fprintf(out, "Selection %d: pay %v\n", count,
			candidate.DestinationAmount())

		if err := printTx(out, &candidate, tx); err != nil {
			return count, err
		}

		if cfg.Limit > 0 && count >= cfg.Limit {
			break
		}
	}

	for _, fault := range stream.Faults() {
		log.Warnf("Search fault: %v", fault)
	}

	return count, nil
}

// printTx prints the inputs, the fee and the raw unsigned transaction.
func printTx(out io.Writer, c *coinselect.Candidate,
	tx *txauthor.AuthoredTx) error {

	for _, coin := range c.Coins {
		fmt.Fprintf(out, "  input  %v\n", &coin)
	}
	fmt.Fprintf(out, "  fee    %v (slack %v, found by %s)\n", c.Fee,
		c.Slack, c.Strategy)

	var buf bytes.Buffer
	if err := tx.Tx.Serialize(&buf); err != nil {
		return fmt.Errorf("unable to serialize tx: %w", err)
	}
	fmt.Fprintf(out, "  txid   %v\n  rawtx  %s\n", tx.Tx.TxHash(),
		hex.EncodeToString(buf.Bytes()))

	return nil
}
