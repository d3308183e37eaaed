// Package main provides the highlight CLI.
//
// It reads source lines from the arguments or from stdin, runs them through
// the highlighting network and prints the typed spans it finds:
//
//	highlight -seed 7 'int a = 2;'
//	cat main.c | highlight -config highlight.yaml -parallel
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/born-ml/highlight/internal/bio"
	"github.com/born-ml/highlight/internal/model"
	"github.com/born-ml/highlight/internal/parallel"
	"github.com/born-ml/highlight/internal/tensor"
)

const version = "v0.1.0-dev"

type options struct {
	configPath string
	seed       int64
	parallel   bool
	decoder    string
	truncate   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML hyperparameter file (defaults are used when empty)")
	flag.Int64Var(&opts.seed, "seed", 0, "random weight seed; 0 keeps all-zero weights")
	flag.BoolVar(&opts.parallel, "parallel", false, "evaluate attention heads concurrently")
	flag.StringVar(&opts.decoder, "decoder", model.DecoderViterbi, "label decoder: viterbi or argmax")
	flag.BoolVar(&opts.truncate, "truncate", false, "cut lines that do not fit instead of failing")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()
	if flag.Arg(0) == "version" {
		fmt.Printf("highlight %s\n", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, opts, flag.Args(), os.Stdin, os.Stdout); err != nil {
		logger.Error("highlight failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, o options, args []string, stdin io.Reader, stdout io.Writer) error {
	h := model.DefaultHyperparams()
	if o.configPath != "" {
		loaded, err := model.LoadHyperparams(o.configPath)
		if err != nil {
			return err
		}
		h = loaded
	}

	modelOpts := []model.Option{
		model.WithLogger(logger),
		model.WithDecoder(o.decoder),
		model.WithTruncate(o.truncate),
	}
	if o.parallel {
		modelOpts = append(modelOpts, model.WithParallelHeads(parallel.DefaultConfig()))
	}
	m, err := model.New(h, modelOpts...)
	if err != nil {
		return err
	}

	params := model.NewParams(h)
	if o.seed != 0 {
		params.InitRandom(o.seed)
	}
	m.Bind(params)

	if len(args) > 0 {
		for _, line := range args {
			if err := printSpans(m, line, stdout); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(stdin)
	for n := 1; scanner.Scan(); n++ {
		if err := printSpans(m, scanner.Text(), stdout); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

func printSpans(m *model.Model, line string, w io.Writer) error {
	var spans []bio.Span
	var spanErr error
	if err := tensor.Catch(func() { spans, spanErr = m.Spans(line) }); err != nil {
		return err
	}
	if spanErr != nil {
		return spanErr
	}

	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, s := range spans {
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", s, strconv.Quote(s.Text(line))); err != nil {
			return err
		}
	}
	return nil
}
