// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btclog"
	"github.com/btcsuite/changeless/coinselect"
	"github.com/btcsuite/changeless/pkg/btcunit"
	"github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultConfigFilename = "changeless.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "changeless.log"
	defaultLogLevel       = "info"
	defaultNetwork        = "mainnet"
	defaultFiatRate       = "0"
	defaultInputType      = "auto"
)

var (
	defaultAppDataDir = btcutil.AppDataDir("changeless", false)
	defaultConfigFile = filepath.Join(
		defaultAppDataDir, defaultConfigFilename,
	)
	defaultLogDir = filepath.Join(defaultAppDataDir, defaultLogDirname)

	// errMixedInputTypes is returned when the input type is derived from
	// coins of different script types.
	errMixedInputTypes = errors.New("coins of different script types, " +
		"set --inputtype")
)

// config defines the configuration options for changeless.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	Network string `long:"network" description:"Network of the destination address" choice:"mainnet" choice:"testnet3" choice:"regtest" choice:"signet" choice:"simnet"`

	CoinsFile   string `long:"coins" description:"JSON file listing the spendable coins"`
	Amount      int64  `long:"amount" description:"Amount to pay in satoshis"`
	FeeRate     int64  `long:"feerate" description:"Fee rate in sat/vb"`
	Destination string `long:"dest" description:"Address of the recipient"`
	MinConfs    int64  `long:"minconfs" description:"Minimum number of confirmations of the coins to spend"`
	InputType   string `long:"inputtype" description:"Script type used to size the inputs, derived from the coins when auto" choice:"auto" choice:"p2wkh" choice:"p2tr" choice:"np2wkh" choice:"p2pkh"`

	Dust        int64  `long:"dust" description:"Dust threshold in satoshis, derived from the destination when 0"`
	MaxInputs   int    `long:"maxinputs" description:"Largest selection explored by the exhaustive search"`
	MaxAttempts int    `long:"maxattempts" description:"Number of subsets the exhaustive search may visit, 0 for no limit"`
	RandomMax   int    `long:"randominputs" description:"Largest selection proposed by the random search"`
	Attempts    int    `long:"attempts" description:"Number of shuffles of the random search, 0 to skip it"`
	Seed        string `long:"seed" description:"Seed of the random search, random when empty"`
	Parallel    bool   `long:"parallel" description:"Run the searches concurrently"`

	Limit    int           `long:"limit" description:"Stop after this many suggestions, 0 for no limit"`
	Timeout  time.Duration `long:"timeout" description:"Give up searching after this long, 0 for no limit"`
	FiatRate string        `long:"fiatrate" description:"Price of one bitcoin in fiat, 0 to skip fiat pricing"`
	Currency string        `long:"currency" description:"Fiat currency of the price"`

	// The fields below are derived from the options above.
	params      *chaincfg.Params
	destScript  []byte
	feeRate     btcunit.SatPerKVByte
	seed        fn.Option[int64]
	fiatRate    decimal.Decimal
	inputType   fn.Option[coinselect.InputType]
	logFilePath string
}

// defaultConfig returns a config with sane defaults.
func defaultConfig() config {
	return config{
		ConfigFile:  defaultConfigFile,
		LogDir:      defaultLogDir,
		DebugLevel:  defaultLogLevel,
		Network:     defaultNetwork,
		InputType:   defaultInputType,
		MinConfs:    1,
		MaxInputs:   coinselect.DefaultExhaustiveMaxInputs,
		MaxAttempts: coinselect.DefaultExhaustiveMaxAttempts,
		RandomMax:   coinselect.DefaultRandomMaxInputs,
		Attempts:    coinselect.DefaultRandomAttempts,
		FiatRate:    defaultFiatRate,
		Currency:    "USD",
	}
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig(args []string) (*config, error) {
	// Pre-parse the command line options to pick up an alternative config
	// file.
	preCfg := defaultConfig()
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, err
	}

	// Next, load any additional configuration options from the file. A
	// missing default config file is fine.
	cfg := preCfg
	parser := flags.NewParser(&cfg, flags.HelpFlag)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) || !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to parse config file: %w",
				err)
		}
	}

	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks the options and fills in the derived fields.
func (c *config) validate() error {
	switch {
	case c.CoinsFile == "":
		return errors.New("--coins is required")

	case c.Amount <= 0:
		return fmt.Errorf("--amount must be positive, got %d", c.Amount)

	case c.FeeRate <= 0:
		return fmt.Errorf("--feerate must be positive, got %d",
			c.FeeRate)

	case c.Destination == "":
		return errors.New("--dest is required")

	case c.Dust < 0:
		return fmt.Errorf("--dust must not be negative, got %d", c.Dust)

	case c.Limit < 0:
		return fmt.Errorf("--limit must not be negative, got %d",
			c.Limit)

	case c.Timeout < 0:
		return fmt.Errorf("--timeout must not be negative, got %v",
			c.Timeout)
	}

	if _, ok := btclog.LevelFromString(c.DebugLevel); !ok {
		return fmt.Errorf("invalid debug level %q", c.DebugLevel)
	}

	c.CoinsFile = cleanAndExpandPath(c.CoinsFile)
	c.LogDir = cleanAndExpandPath(c.LogDir)
	c.logFilePath = filepath.Join(c.LogDir, defaultLogFilename)

	var err error
	c.params, err = networkParams(c.Network)
	if err != nil {
		return err
	}

	addr, err := btcutil.DecodeAddress(c.Destination, c.params)
	if err != nil {
		return fmt.Errorf("invalid destination address: %w", err)
	}
	if !addr.IsForNet(c.params) {
		return fmt.Errorf("destination %v is not a %s address", addr,
			c.Network)
	}

	c.destScript, err = txscript.PayToAddrScript(addr)
	if err != nil {
		return fmt.Errorf("unable to script destination: %w", err)
	}

	c.feeRate = btcunit.NewSatPerVByte(
		btcutil.Amount(c.FeeRate),
	).ToSatPerKVByte()

	if c.Seed != "" {
		seed, err := strconv.ParseInt(c.Seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
		c.seed = fn.Some(seed)
	}

	c.fiatRate, err = decimal.NewFromString(c.FiatRate)
	if err != nil {
		return fmt.Errorf("invalid fiat rate: %w", err)
	}
	if c.fiatRate.IsNegative() {
		return fmt.Errorf("fiat rate must not be negative, got %v",
			c.fiatRate)
	}

	if c.InputType != defaultInputType {
		inputType, err := parseInputType(c.InputType)
		if err != nil {
			return err
		}
		c.inputType = fn.Some(inputType)
	}

	return nil
}

// selectorConfig returns the selector configuration matching the options.
// The input type is derived from the pool unless it was set explicitly.
func (c *config) selectorConfig(pool *coinselect.Pool) (*coinselect.Config,
	error) {

	inputType := c.inputType.UnwrapOr(coinselect.InputP2WKH)
	if c.inputType.IsNone() {
		var err error
		inputType, err = poolInputType(pool)
		if err != nil {
			return nil, err
		}
	}

	cfg := coinselect.DefaultConfig()
	cfg.FeeEstimator = coinselect.NewVSizeFeeEstimator(
		inputType, c.destScript,
	)
	cfg.Parallel = c.Parallel

	if c.Dust > 0 {
		cfg.DustThreshold = fn.Some(btcutil.Amount(c.Dust))
	}

	cfg.Strategies = []coinselect.Strategy{
		&coinselect.ExhaustiveStrategy{
			MaxInputs:   c.MaxInputs,
			MaxAttempts: c.MaxAttempts,
		},
	}

	if c.Attempts > 0 {
		cfg.Strategies = append(cfg.Strategies,
			&coinselect.RandomStrategy{
				MaxInputs: c.RandomMax,
				Attempts:  c.Attempts,
				Seed:      c.seed,
			},
		)
	}

	return cfg, cfg.Validate()
}

// request returns the selection request matching the options.
func (c *config) request() *coinselect.Request {
	return &coinselect.Request{
		Target:      btcutil.Amount(c.Amount),
		FeeRate:     c.feeRate,
		Destination: c.destScript,
	}
}

// networkParams returns the chain parameters of the named network.
func networkParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil

	case "testnet3":
		return &chaincfg.TestNet3Params, nil

	case "regtest":
		return &chaincfg.RegressionNetParams, nil

	case "signet":
		return &chaincfg.SigNetParams, nil

	case "simnet":
		return &chaincfg.SimNetParams, nil

	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}

// parseInputType parses the name of an input type.
func parseInputType(name string) (coinselect.InputType, error) {
	for _, inputType := range []coinselect.InputType{
		coinselect.InputP2WKH, coinselect.InputP2TR,
		coinselect.InputNestedP2WKH, coinselect.InputP2PKH,
	} {
		if inputType.String() == name {
			return inputType, nil
		}
	}

	return 0, fmt.Errorf("unknown input type %q", name)
}

// poolInputType returns the input type shared by all coins of the pool.
func poolInputType(pool *coinselect.Pool) (coinselect.InputType, error) {
	coins := pool.Coins()
	if len(coins) == 0 {
		return coinselect.InputP2WKH, nil
	}

	inputType := coinselect.InputTypeFromScript(coins[0].PkScript)
	for _, coin := range coins[1:] {
		if coinselect.InputTypeFromScript(coin.PkScript) != inputType {
			return 0, errMixedInputTypes
		}
	}

	return inputType, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
