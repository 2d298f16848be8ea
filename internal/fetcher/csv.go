package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	HasHeader  bool // if true, the first row is returned separately
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSVFile opens path and reads it fully. Returns the header (nil when
// HasHeader is false) and the data rows.
func ReadCSVFile(path string, opts CSVOptions) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(f, opts)
}

// ReadCSV reads all rows from r. KOSTAT distributes some files as CP949;
// the stream is transparently re-decoded when it is not valid UTF-8.
func ReadCSV(r io.Reader, opts CSVOptions) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: read input")
	}

	if !utf8.Valid(data) {
		decoded, _, derr := transform.Bytes(korean.EUCKR.NewDecoder(), data)
		if derr != nil {
			return nil, nil, eris.Wrap(derr, "csv: decode EUC-KR")
		}
		data = decoded
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	var header []string
	var rows [][]string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if first && opts.HasHeader {
			first = false
			header = record
			continue
		}
		first = false
		rows = append(rows, record)
	}

	return header, rows, nil
}

// DecodeKorean converts a CP949/EUC-KR string to UTF-8. Strings that are
// already valid UTF-8 pass through unchanged.
func DecodeKorean(s string) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	decoded, _, err := transform.String(korean.EUCKR.NewDecoder(), s)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: decode EUC-KR")
	}
	return decoded, nil
}
