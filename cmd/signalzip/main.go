package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/seiflotfy/signalzip"
	"github.com/seiflotfy/signalzip/entropy"
	"github.com/seiflotfy/signalzip/fingerprint"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: signalzip <command> [flags] <files>")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  compress   <file.txt>...  - write file.vin and file.smap")
	fmt.Fprintln(os.Stderr, "  decompress <file.vin>     - write file_restored.txt")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	fingerprintMode := flag.String("fingerprint", "word-shape", "Fingerprint mode: word-shape or char-class (lossy)")
	phrases := flag.Bool("phrases", false, "Substitute frequent codon runs with phrase references")
	window := flag.Int("window", 8, "Longest phrase in codons")
	maxPhrases := flag.Int("max-phrases", 256, "Phrase dictionary capacity")
	entropyMode := flag.String("entropy", "dynamic", "Entropy coder: dynamic or static")
	policy := flag.String("disambiguation", "occurrence", "Codon numbering: occurrence or distinct")
	lenient := flag.Bool("lenient", false, "Replace unknown codons with UNK instead of failing")
	workers := flag.Int("workers", 4, "Parallel documents when compressing several files")
	dbPath := flag.String("db", "", "Store artifacts in a BadgerDB at this path instead of beside the input")
	verbose := flag.Bool("v", false, "Log every pipeline stage")
	flag.Usage = usage

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command := os.Args[1]
	if err := flag.CommandLine.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fm, err := fingerprint.ParseMode(*fingerprintMode)
	if err != nil {
		logger.Fatal(err)
	}
	em, err := entropy.ParseMode(*entropyMode)
	if err != nil {
		logger.Fatal(err)
	}
	pol, err := signalzip.ParsePolicy(*policy)
	if err != nil {
		logger.Fatal(err)
	}

	opts := []signalzip.Option{
		signalzip.WithFingerprintMode(fm),
		signalzip.WithPhraseDictionary(*phrases),
		signalzip.WithMaxWindow(*window),
		signalzip.WithMaxPhrases(*maxPhrases),
		signalzip.WithEntropyMode(em),
		signalzip.WithDisambiguation(pol),
		signalzip.WithFingerprintCache(4096),
		signalzip.WithLogger(logger),
	}
	if *lenient {
		opts = append(opts, signalzip.WithLenient(""))
	}
	codec, err := signalzip.NewCodec(opts...)
	if err != nil {
		logger.Fatal(err)
	}

	var store signalzip.ArtifactStore = signalzip.FileStore{}
	if *dbPath != "" {
		bs, err := signalzip.NewBadgerStore(*dbPath)
		if err != nil {
			logger.Fatal(err)
		}
		store = bs
	}

	switch command {
	case "compress":
		err = runCompress(codec, store, flag.Args(), *workers)
	case "decompress":
		err = runDecompress(codec, store, flag.Arg(0), *dbPath != "")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
	if bs, ok := store.(*signalzip.BadgerStore); ok {
		if cerr := bs.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		logger.Errorw("failed", "command", command, "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func runCompress(codec *signalzip.Codec, store signalzip.ArtifactStore, files []string, workers int) error {
	src := signalzip.FileStore{}
	if len(files) > 1 {
		return codec.CompressAll(context.Background(), src, store, files, workers)
	}

	path := files[0]
	text, err := src.ReadText(path)
	if err != nil {
		return err
	}
	a, err := codec.Compress(text)
	if err != nil {
		return err
	}
	base := signalzip.BaseName(path)
	if err := store.Save(base, a); err != nil {
		return err
	}

	stats, err := signalzip.StatsOf(text, a)
	if err != nil {
		return err
	}
	binPath, _ := signalzip.ArtifactPaths(base)
	fmt.Printf("Compressed to: %s\n", binPath)
	fmt.Printf("  original: %s\n", humanize.Bytes(uint64(stats.OriginalBytes)))
	fmt.Printf("  vin:      %s\n", humanize.Bytes(uint64(stats.BinaryBytes)))
	fmt.Printf("  smap:     %s\n", humanize.Bytes(uint64(stats.MetadataBytes)))
	fmt.Printf("  total:    %s\n", humanize.Bytes(uint64(stats.TotalBytes())))
	fmt.Printf("  ratio:    %.3f\n", stats.Ratio())
	return nil
}

func runDecompress(codec *signalzip.Codec, store signalzip.ArtifactStore, path string, keyed bool) error {
	base := path
	if !keyed {
		var err error
		if base, err = signalzip.ArtifactBase(path); err != nil {
			return err
		}
	}
	a, err := store.Load(base)
	if err != nil {
		return err
	}
	text, err := codec.Decompress(a.Binary, a.Metadata)
	if err != nil {
		return err
	}
	out := base + signalzip.RestoredSuffix
	if err := (signalzip.FileStore{}).WriteText(out, text); err != nil {
		return err
	}
	fmt.Printf("Restored to: %s\n", out)
	return nil
}
