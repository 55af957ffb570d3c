// mixtool inspects and builds MIX archives: listing entries, extracting
// files (optionally LCW-decompressing them), packing a directory into a
// plain archive, and printing filename hashes.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/meigma/mix"
	"github.com/meigma/mix/lcw"
	"github.com/meigma/mix/wwcrc"
)

type cli struct {
	List    listCmd    `cmd:"" help:"List the entries of one or more archives."`
	Extract extractCmd `cmd:"" help:"Extract a file from an archive."`
	Pack    packCmd    `cmd:"" help:"Pack the files of a directory into a plain archive."`
	Hash    hashCmd    `cmd:"" help:"Print the lookup hash of filenames."`

	Verbose bool `short:"v" help:"Log archive diagnostics to stderr."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("mixtool"),
		kong.Description("Inspect and build MIX archives."),
		kong.UsageOnError(),
	)
	logger := slog.New(slog.DiscardHandler)
	if c.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	ctx.FatalIfErrorf(ctx.Run(logger))
}

type listCmd struct {
	Paths []string `arg:"" type:"existingfile" help:"Archives to list."`
	Names string   `help:"File with one known filename per line, used to label entries."`
}

func (l *listCmd) Run(logger *slog.Logger) error {
	m := mix.NewManager(logger)
	if l.Names != "" {
		data, err := os.ReadFile(l.Names)
		if err != nil {
			return err
		}
		for name := range splitLines(data) {
			m.RegisterName(name)
		}
	}

	for _, path := range l.Paths {
		a, err := mix.Open(path, mix.WithLogger(logger))
		if err != nil {
			return err
		}
		h := a.Header()
		fmt.Printf("%s: %d entries, %d payload bytes (extended=%v digest=%v encrypted=%v)\n",
			path, a.Len(), h.DataSize, h.Extended, h.HasDigest, h.Encrypted)
		for e := range a.Entries() {
			label := ""
			if name, ok := m.LookupName(e.Key); ok {
				label = "  " + name
			}
			fmt.Printf("  %08x  offset %10d  size %10d%s\n", uint32(e.Key), e.Offset, e.Size, label)
		}
	}
	return nil
}

type extractCmd struct {
	Archive string `arg:"" type:"existingfile" help:"Archive to read."`
	Name    string `arg:"" help:"Filename to extract (case-insensitive)."`
	Output  string `short:"o" help:"Output path. Defaults to the uppercased name."`
	LCW     bool   `name:"lcw" help:"LCW-decompress the payload after extraction."`
}

func (e *extractCmd) Run(logger *slog.Logger) error {
	a, err := mix.Open(e.Archive, mix.WithLogger(logger))
	if err != nil {
		return err
	}
	data, err := a.Read(e.Name)
	if err != nil {
		return err
	}
	if e.LCW {
		if data, err = lcw.Decode(data, 4*len(data)); err != nil {
			return err
		}
	}
	out := e.Output
	if out == "" {
		out = e.Name
	}
	return os.WriteFile(out, data, 0o644)
}

type packCmd struct {
	Dir      string `arg:"" type:"existingdir" help:"Directory whose files become entries."`
	Output   string `short:"o" required:"" help:"Archive to write."`
	Extended bool   `help:"Write the extended header variant."`
	Digest   bool   `help:"Append a SHA-1 digest (implies --extended)."`
}

func (p *packCmd) Run(logger *slog.Logger) error {
	dirents, err := os.ReadDir(p.Dir)
	if err != nil {
		return err
	}

	var files []mix.WriteFile
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(p.Dir, de.Name()))
		if err != nil {
			return err
		}
		files = append(files, mix.WriteFile{Name: de.Name(), Data: data})
	}

	var opts []mix.CreateOption
	if p.Extended {
		opts = append(opts, mix.CreateExtended())
	}
	if p.Digest {
		opts = append(opts, mix.CreateWithDigest())
	}
	if err := mix.Create(p.Output, files, opts...); err != nil {
		return err
	}
	logger.Info("archive written", "path", p.Output, "files", len(files))
	return nil
}

type hashCmd struct {
	Names []string `arg:"" help:"Filenames to hash."`
}

func (h *hashCmd) Run(*slog.Logger) error {
	for _, name := range h.Names {
		fmt.Printf("%08x  %s\n", wwcrc.SumName(name), name)
	}
	return nil
}

// splitLines yields non-empty lines of data.
func splitLines(data []byte) func(func(string) bool) {
	return func(yield func(string) bool) {
		start := 0
		for i := 0; i <= len(data); i++ {
			if i == len(data) || data[i] == '\n' {
				line := string(data[start:i])
				if line != "" && line != "\r" {
					if len(line) > 0 && line[len(line)-1] == '\r' {
						line = line[:len(line)-1]
					}
					if !yield(line) {
						return
					}
				}
				start = i + 1
			}
		}
	}
}
