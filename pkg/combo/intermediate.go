package combo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteLabels writes one "<node> <community>" line per node followed by a
// "# modularity" trailer.
func WriteLabels(w io.Writer, labels []int, q float64) error {
	bw := bufio.NewWriter(w)
	for u, c := range labels {
		fmt.Fprintf(bw, "%d %d\n", u, c)
	}
	fmt.Fprintf(bw, "# modularity %.10f\n", q)
	return bw.Flush()
}

// WriteIntermediate replaces the file at path with the given labels. The
// file is written next to path and renamed, so readers never see a partial
// result.
func WriteIntermediate(path string, labels []int, q float64) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("intermediate results: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteLabels(tmp, labels, q); err != nil {
		tmp.Close()
		return fmt.Errorf("intermediate results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("intermediate results: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("intermediate results: %w", err)
	}
	return nil
}
