package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"kwdetect/internal/detector"
)

const maxLineBytes = 1 << 20

// scanLines calls fn for every line of r until EOF, an error, or ctx ends.
func scanLines(ctx context.Context, r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// forEachInput scans every named file in turn, or stdin when names is empty
// or a name is "-".
func forEachInput(ctx context.Context, stdin io.Reader, names []string, fn func(line string) error) error {
	if len(names) == 0 {
		names = []string{"-"}
	}
	for _, name := range names {
		if name == "-" {
			if err := scanLines(ctx, stdin, fn); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			continue
		}
		file, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		err = scanLines(ctx, file, fn)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
	}
	return nil
}

// parseTaggedLine splits "feature<TAB>text".
func parseTaggedLine(line string) (detector.Feature, string, error) {
	name, text, ok := strings.Cut(line, "\t")
	if !ok {
		return 0, "", fmt.Errorf("missing tab separator in %q", line)
	}
	feature, err := detector.ParseFeature(name)
	if err != nil {
		return 0, "", err
	}
	return feature, text, nil
}
