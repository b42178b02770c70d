package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/chain-verifier/config"
	"github.com/luca-patrignani/chain-verifier/ledger"
	"github.com/luca-patrignani/chain-verifier/network"
	"github.com/luca-patrignani/chain-verifier/verifier"
)

const usage = `usage: %s <command> [flags]

commands:
  serve    run the verifier HTTP server
  demo     mint, tamper and inspect a small chain in process
  append   append a block on a server         (-server URL <data>)
  tamper   edit a block's data on a server    (-server URL <index> <data>)
  inspect  inspect and repair a server's chain (-server URL)
  list     show a server's chain               (-server URL)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	switch command {
	case "serve":
		return serve(args)
	case "demo":
		return demo(args)
	case "append", "tamper", "inspect", "list":
		return remote(command, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// newLogger routes slog through the PTerm logger at the configured level.
func newLogger(level slog.Level) *slog.Logger {
	logger := pterm.DefaultLogger.WithLevel(ptermLevel(level))
	handler := pterm.NewSlogHandler(logger)
	return slog.New(handler)
}

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelDebug
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML configuration")
	certOut := fs.String("cert-out", "chain-verifier.pem", "where to write the self-signed certificate when TLS is enabled")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Log.SlogLevel()
	logger := newLogger(level)
	slog.SetDefault(logger)

	printBanner()

	v, generated, err := cfg.NewVerifier()
	if err != nil {
		return err
	}
	if generated {
		logger.Warn("no secret configured, generated one for this process; chains will not verify after a restart")
	}
	logger.Info("verifier ready", "verifier", v)

	l := ledger.New(v, ledger.WithSnapshotPath(cfg.Ledger.SnapshotPath), ledger.WithLogger(logger))
	if err := l.Load(); err != nil {
		return err
	}

	opts := []network.ServerOption{network.WithServerLogger(logger)}
	if cfg.Server.TLS {
		cert, pem, err := network.GenerateSelfSignedCert(cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("generate certificate: %w", err)
		}
		if err := os.WriteFile(*certOut, pem, 0o644); err != nil {
			return fmt.Errorf("write certificate: %w", err)
		}
		logger.Info("self-signed certificate written", "path", *certOut)
		opts = append(opts, network.WithCertificate(cert))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := network.NewServer(l, opts...)
	serveErr := srv.ListenAndServe(ctx, cfg.Server.ListenAddr)
	if err := l.Save(); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

// demo walks through a three block chain whose middle block is edited.
func demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	tamperIndex := fs.Int("tamper", 1, "index of the block to edit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	data := []string{"a", "b", "c"}
	if fs.NArg() > 0 {
		data = fs.Args()
	}
	if *tamperIndex < 0 || *tamperIndex >= len(data) {
		return fmt.Errorf("tamper index %d outside a chain of %d blocks", *tamperIndex, len(data))
	}

	printBanner()

	secret, err := verifier.GenerateSecret()
	if err != nil {
		return err
	}
	v, err := verifier.New(secret)
	if err != nil {
		return err
	}
	l := ledger.New(v, ledger.WithLogger(newLogger(slog.LevelWarn)))

	spinner, _ := pterm.DefaultSpinner.Start("Minting blocks ...")
	for _, d := range data {
		if _, err := l.Append(d); err != nil {
			spinner.Fail()
			return err
		}
	}
	spinner.Success()
	printEntries("Freshly minted chain", l.Entries())

	edited := data[*tamperIndex] + "*"
	if err := l.Tamper(*tamperIndex, edited); err != nil {
		return err
	}
	pterm.Warning.Printfln("Block %d data changed to %q without re-signing", *tamperIndex, edited)

	entries, err := l.Inspect()
	if err != nil {
		return err
	}
	printEntries("After inspection", entries)

	entries, err = l.Inspect()
	if err != nil {
		return err
	}
	printEntries("Second inspection", entries)
	return nil
}

func remote(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	server := fs.String("server", "http://127.0.0.1:8080", "base URL of the verifier server")
	caPath := fs.String("ca", "", "PEM certificate to trust for https servers")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []network.ClientOption{network.WithClientTimeout(*timeout)}
	if *caPath != "" {
		pem, err := os.ReadFile(*caPath)
		if err != nil {
			return err
		}
		opts = append(opts, network.WithRootCAs(pem))
	}
	client := network.NewClient(*server, opts...)
	ctx := context.Background()

	switch command {
	case "append":
		if fs.NArg() != 1 {
			return errors.New("append expects exactly one data argument")
		}
		b, err := client.Append(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Appended block %d (%s)", b.Index, shortHash(b.Hash))
	case "tamper":
		if fs.NArg() != 2 {
			return errors.New("tamper expects an index and a data argument")
		}
		index, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("invalid index %q", fs.Arg(0))
		}
		if err := client.Tamper(ctx, index, fs.Arg(1)); err != nil {
			return err
		}
		pterm.Warning.Printfln("Block %d data changed without re-signing", index)
	case "inspect":
		entries, err := client.Inspect(ctx)
		if err != nil {
			return err
		}
		printEntries("Inspection result", entries)
	case "list":
		entries, err := client.Entries(ctx)
		if err != nil {
			return err
		}
		printEntries("Chain", entries)
	}
	return nil
}

func printBanner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Chain", pterm.FgCyan.ToStyle()),
		putils.LettersFromStringWithStyle("Verifier", pterm.FgDarkGray.ToStyle()),
	).Render()
}
