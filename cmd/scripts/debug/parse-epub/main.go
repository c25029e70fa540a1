package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/bookmend/pkg/epub"
)

func main() {
	log := logger.New()

	var opts struct {
		DumpPackage bool `short:"p" long:"dump-package" description:"Print the raw package document"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-epub <path/to/file.epub>")
		os.Exit(1)
	}

	metadata, err := epub.Parse(args[0])
	if err != nil {
		log.Err(err).Fatal("epub parse error")
	}
	fmt.Printf("Dialect: %s\nAuthor(s): %v\nGenre: %s\nSeries: %s (%d)\n", metadata.Dialect, metadata.Authors, metadata.Genre, metadata.Series.Name, metadata.Series.Index)

	if opts.DumpPackage {
		zr, err := zip.OpenReader(args[0])
		if err != nil {
			log.Err(err).Fatal("zip open error")
		}
		defer zr.Close()

		rootfile, err := epub.FindRootfile(&zr.Reader)
		if err != nil {
			log.Err(err).Fatal("container error")
		}
		f, err := zr.Open(rootfile)
		if err != nil {
			log.Err(err).Fatal("package open error")
		}
		defer f.Close()
		fmt.Printf("\n--- %s ---\n", rootfile)
		if _, err := io.Copy(os.Stdout, f); err != nil {
			log.Err(err).Fatal("package read error")
		}
	}
}
