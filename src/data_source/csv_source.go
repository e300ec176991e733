package datasource

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"netsim-results/src/helpers"
	"netsim-results/src/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sniffSize = 3072

// ErrInputTooLarge is returned when a decoded stream exceeds its size cap.
var ErrInputTooLarge = errors.New("input exceeds size limit")

// -----------------------------------------------------------------------------
// FileSource
// -----------------------------------------------------------------------------

// FileSource reads a results CSV from disk. Plain, gzip and zstd files are
// accepted; the format is detected from content, not from the extension.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Load() (*models.MResultTable, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, helpers.NewInputError(s.Path, helpers.CheckFileExists, "input file not found", err)
		}
		return nil, helpers.NewInputError(s.Path, helpers.CheckReadable, "cannot open input file", err)
	}
	defer f.Close()

	return DecodeResultTable(f, s.Path)
}

// -----------------------------------------------------------------------------
// ReaderSource
// -----------------------------------------------------------------------------

// ReaderSource wraps an already open stream such as an HTTP request body.
// MaxBytes, when positive, caps the decompressed size.
type ReaderSource struct {
	Label    string
	Reader   io.Reader
	MaxBytes int64
}

func NewReaderSource(label string, r io.Reader) *ReaderSource {
	return &ReaderSource{Label: label, Reader: r}
}

func (s *ReaderSource) Name() string { return s.Label }

func (s *ReaderSource) Load() (*models.MResultTable, error) {
	return decodeResultTable(s.Reader, s.Label, s.MaxBytes)
}

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

// DecodeResultTable parses a results CSV (optionally compressed). Header
// names are trimmed and a UTF-8 BOM is dropped; data cells are kept as
// written. Rows may be ragged.
func DecodeResultTable(r io.Reader, source string) (*models.MResultTable, error) {
	return decodeResultTable(r, source, 0)
}

func decodeResultTable(r io.Reader, source string, maxBytes int64) (*models.MResultTable, error) {
	plain, closeFn, err := decompress(r)
	if err != nil {
		return nil, readError(source, "cannot decode input stream", err)
	}
	defer closeFn()

	if maxBytes > 0 {
		plain = &capReader{r: plain, remaining: maxBytes}
	}
	reader := csv.NewReader(plain)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, readError(source, "malformed CSV", err)
	}
	if len(records) == 0 {
		return nil, helpers.NewInputError(source, helpers.CheckNotEmpty, "input CSV is empty", nil)
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}

	table := &models.MResultTable{
		Source: source,
		Header: header,
		Rows:   records[1:],
	}
	if len(table.Rows) == 0 {
		return nil, helpers.NewInputError(source, helpers.CheckNotEmpty, "input CSV has a header but no data rows", nil)
	}
	return table, nil
}

// decompress sniffs the first bytes of r and unwraps gzip or zstd.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReaderSize(r, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, nil, err
	}

	mime := mimetype.Detect(head)
	switch {
	case mime.Is("application/gzip"):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	case mime.Is("application/zstd"):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, nil
	default:
		return br, func() {}, nil
	}
}

// readError reports size cap violations (ours or http.MaxBytesReader's)
// under their own check.
func readError(source, message string, err error) error {
	var maxErr *http.MaxBytesError
	if errors.Is(err, ErrInputTooLarge) || errors.As(err, &maxErr) {
		return helpers.NewInputError(source, helpers.CheckSizeLimit, "input too large", err)
	}
	return helpers.NewInputError(source, helpers.CheckReadable, message, err)
}

// capReader fails with ErrInputTooLarge once more than remaining bytes
// have been read.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrInputTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrInputTooLarge
	}
	return n, err
}
