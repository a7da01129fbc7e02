package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/changeless/coinselect"
	"github.com/stretchr/testify/require"
)

// testAmounts returns 16 coin amounts of which three can pay 100,000 sat at
// 10 sat/vb without change.
func testAmounts() []int64 {
	amounts := make([]int64, 0, 16)
	for i := int64(0); i < 16; i++ {
		amounts = append(amounts, 100_500+100*i)
	}

	return amounts
}

// testRun returns the config, selector and pool of a run over the test
// amounts.
func testRun(t *testing.T, args ...string) (*config, *coinselect.Selector,
	*coinselect.Pool) {

	t.Helper()

	cfg, err := loadConfig(baseArgs(t, args...))
	require.NoError(t, err)

	pool, err := readCoins(bytes.NewReader(coinsJSON(t, testAmounts()...)))
	require.NoError(t, err)

	selectorCfg, err := cfg.selectorConfig(pool)
	require.NoError(t, err)

	selector, err := coinselect.New(selectorCfg)
	require.NoError(t, err)

	return cfg, selector, pool
}

// TestPrintSelections checks that the selections are materialized and
// printed up to the limit.
func TestPrintSelections(t *testing.T) {
	t.Parallel()

	cfg, selector, pool := testRun(t, "--attempts", "0", "--limit", "2")

	var out bytes.Buffer
	count, err := printSelections(
		t.Context(), cfg, selector, &coinselect.AuthorMaterializer{},
		pool, cfg.request(), &out,
	)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	printed := out.String()
	require.Contains(t, printed, "Selection 1: pay")
	require.Contains(t, printed, "Selection 2: pay")
	require.NotContains(t, printed, "Selection 3")
	require.Equal(t, 2, strings.Count(printed, "rawtx"))
	require.Contains(t, printed, "found by exhaustive")
}

// TestPrintSuggestions checks that the suggestions are priced in fiat.
func TestPrintSuggestions(t *testing.T) {
	t.Parallel()

	cfg, selector, pool := testRun(
		t, "--attempts", "0", "--limit", "1", "--fiatrate", "50000",
		"--currency", "EUR",
	)

	var out bytes.Buffer
	count, err := printSuggestions(
		t.Context(), cfg, selector, &coinselect.AuthorMaterializer{},
		pool, cfg.request(), &out,
	)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	printed := out.String()
	require.Contains(t, printed, "Suggestion 1: pay")
	require.Contains(t, printed, "EUR More")
	require.Equal(t, 1, strings.Count(printed, "rawtx"))
}

// TestChangelessMain runs the whole command against a coins file. It isn't
// run in parallel since it sets up the log rotator.
func TestChangelessMain(t *testing.T) {
	t.Cleanup(func() {
		logRotator = nil
	})

	dir := t.TempDir()
	coinsFile := filepath.Join(dir, "coins.json")
	require.NoError(t, os.WriteFile(
		coinsFile, coinsJSON(t, testAmounts()...), 0600,
	))

	args := []string{
		"-C", filepath.Join(dir, "missing.conf"),
		"--logdir", filepath.Join(dir, "logs"),
		"--debuglevel", "warn",
		"--coins", coinsFile,
		"--feerate", "10",
		"--dest", mainnetAddr,
		"--attempts", "0",
		"--limit", "1",
	}

	var out bytes.Buffer
	err := changelessMain(append(args, "--amount", "100000"), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "Selection 1: pay")
	require.FileExists(t, filepath.Join(dir, "logs", defaultLogFilename))

	// Nothing in the pool can pay a larger amount without change.
	out.Reset()
	err = changelessMain(append(args, "--amount", "150000"), &out)
	require.NoError(t, err)
	require.Equal(t, "No changeless payment found\n", out.String())

	out.Reset()
	err = changelessMain(append(args, "--amount", "0"), &out)
	require.Error(t, err)
	require.Empty(t, out.String())
}
