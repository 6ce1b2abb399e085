package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// csvSeparator keeps exports readable by spreadsheet programs that use a
// decimal comma.
const csvSeparator = ';'

func writeCSV(w io.Writer, t table) error {
	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator

	if err := cw.Write(t.header); err != nil {
		return err
	}

	record := make([]string, len(t.header))

	for _, row := range t.rows {
		for i, v := range row {
			record[i] = text(v)
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// CSV writes one file per table into dir and returns their paths.
func CSV(dir string, b *Bundle) ([]string, error) {
	paths := make([]string, 0, 3)

	for _, t := range b.tables() {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", b.Document.ID, t.name))

		err := writeFile(path, func(w io.Writer) error {
			return writeCSV(w, t)
		})
		if err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return write(f)
}
