package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1256 Encoding = "windows-1256"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one record of a delimited table, keyed by header column.
type Row = map[string]string

// LoadTable reads a delimited text file with the declared encoding. Arabic
// source tables commonly arrive as windows-1256; they are transcoded to
// UTF-8 on the way in.
func LoadTable(path string, encoding Encoding) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch encoding {
	case EncodingUTF8, "":
	case EncodingWindows1256:
		r = transform.NewReader(f, charmap.Windows1256.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported table encoding %q", encoding)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
