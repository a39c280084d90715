// Package fetcher downloads remote resources and streams delimited text.
package fetcher

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MaxLineBytes bounds a single line, terminator included. Longer lines are
// skipped.
const MaxLineBytes = 1 << 20

// CSVOptions configures StreamCSV.
type CSVOptions struct {
	Delimiter rune // default ','
	HasHeader bool // if true, the first non-blank line is skipped
}

// StreamCSV splits each line of r on the delimiter and sends the fields to a
// channel. Quotes are not interpreted, blank lines are skipped and a trailing
// carriage return is dropped. Caller must consume the returned row channel.
// Errors are sent on the error channel. Both channels are closed when
// processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	go func() {
		defer close(rowCh)
		defer close(errCh)

		next := lineSplitter(r, opts.Delimiter)
		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := next()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if first && opts.HasHeader {
				first = false
				continue
			}
			first = false

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// lineSplitter returns a row iterator over the non-blank lines of r.
func lineSplitter(r io.Reader, delim rune) func() ([]string, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	sep := string(delim)
	var buf []byte

	return func() ([]string, error) {
		for {
			line, tooLong, err := readLine(br, buf[:0])
			buf = line
			if err != nil {
				return nil, err
			}
			if tooLong {
				zap.L().Warn("csv: skipping over-long line", zap.Int("max_bytes", MaxLineBytes))
				continue
			}
			s := strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r")
			if strings.TrimSpace(s) == "" {
				continue
			}
			return strings.Split(s, sep), nil
		}
	}
}

// readLine appends the next line of br to buf. A line over MaxLineBytes is
// consumed to its end and reported as tooLong with an empty buf. io.EOF is
// returned only when nothing was left to read.
func readLine(br *bufio.Reader, buf []byte) (line []byte, tooLong bool, err error) {
	n := 0
	for {
		chunk, err := br.ReadSlice('\n')
		n += len(chunk)
		if !tooLong && len(buf)+len(chunk) > MaxLineBytes {
			tooLong, buf = true, buf[:0]
		}
		if !tooLong {
			buf = append(buf, chunk...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && n > 0 {
			err = nil
		}
		return buf, tooLong, err
	}
}
