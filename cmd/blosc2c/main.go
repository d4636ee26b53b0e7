// Command blosc2c compresses, decompresses, and inspects blosc
// containers from the command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-blosc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compress":
		err = runCompress(os.Args[2:])
	case "decompress":
		err = runDecompress(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "blosc2c: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: blosc2c <compress|decompress|info> [flags] <file>")
}

func runCompress(args []string) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	codecName := fs.String("codec", "lz4", "inner codec: blosclz, lz4, lz4hc, snappy, zlib, zstd")
	level := fs.Int("level", 5, "compression level, 0-9")
	shuffleName := fs.String("shuffle", "byte", "shuffle mode: none, byte, bit")
	typesize := fs.Int("typesize", 4, "element size in bytes")
	threads := fs.Int("threads", 0, "worker count, 0 for GOMAXPROCS")
	out := fs.String("o", "", "output path, defaults to <input>.blosc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compress requires exactly one input file")
	}

	codec, err := parseCodecName(*codecName)
	if err != nil {
		return err
	}
	shuffle, err := parseShuffleName(*shuffleName)
	if err != nil {
		return err
	}

	input := fs.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	ctx := blosc.NewContext(blosc.Options{
		Codec:      codec,
		Level:      *level,
		Shuffle:    shuffle,
		TypeSize:   *typesize,
		NumThreads: *threads,
	})
	compressed, err := ctx.Compress(data)
	if err != nil {
		return err
	}

	outPath := *out
	if outPath == "" {
		outPath = input + ".blosc"
	}
	return os.WriteFile(outPath, compressed, 0o644)
}

func runDecompress(args []string) error {
	fs := flag.NewFlagSet("decompress", flag.ExitOnError)
	out := fs.String("o", "", "output path, defaults to <input> with .blosc stripped")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decompress requires exactly one input file")
	}

	input := fs.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	decompressed, err := blosc.Decompress(data)
	if err != nil {
		return err
	}

	outPath := *out
	if outPath == "" {
		outPath = trimBloscSuffix(input)
	}
	return os.WriteFile(outPath, decompressed, 0o644)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("info requires exactly one input file")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	h, err := blosc.GetInfo(data)
	if err != nil {
		return err
	}
	name, _ := blosc.ComplibName(data)

	fmt.Printf("version:      %d\n", h.Version)
	fmt.Printf("codec:        %s\n", name)
	fmt.Printf("typesize:     %d\n", h.TypeSize)
	fmt.Printf("nbytes:       %d\n", h.NBytesOrig)
	fmt.Printf("blocksize:    %d\n", h.BlockSize)
	fmt.Printf("cbytes:       %d\n", h.NBytesComp)
	fmt.Printf("shuffle:      %s\n", h.ShuffleMode())
	fmt.Printf("memcpyed:     %t\n", h.IsMemcpy())
	return nil
}

func parseCodecName(name string) (blosc.Codec, error) {
	switch name {
	case "blosclz":
		return blosc.BloscLZ, nil
	case "lz4":
		return blosc.LZ4, nil
	case "lz4hc":
		return blosc.LZ4HC, nil
	case "snappy":
		return blosc.Snappy, nil
	case "zlib":
		return blosc.ZLIB, nil
	case "zstd":
		return blosc.ZSTD, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", name)
	}
}

func parseShuffleName(name string) (blosc.Shuffle, error) {
	switch name {
	case "none":
		return blosc.NoShuffle, nil
	case "byte":
		return blosc.Shuffle1, nil
	case "bit":
		return blosc.BitShuffle, nil
	default:
		return 0, fmt.Errorf("unknown shuffle mode %q", name)
	}
}

func trimBloscSuffix(path string) string {
	const suffix = ".blosc"
	if len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix {
		return path[:len(path)-len(suffix)]
	}
	return path + ".out"
}
