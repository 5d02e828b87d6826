package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits.
const (
	// MaxArrayLen limits the number of elements in a command array.
	MaxArrayLen = 64

	// MaxBulkLen limits a single argument. Ledger arguments are ids and
	// decimal amounts.
	MaxBulkLen = 4 * 1024

	// MaxInlineLen limits an inline command line.
	MaxInlineLen = 4 * 1024

	// maxHeaderLen bounds "*<n>" and "$<n>" header lines.
	maxHeaderLen = 32
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReadCommand reads one command, either a RESP array of bulk strings or an
// inline line ("PING\r\n"). An empty command yields nil args.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '*' {
		return readArray(r)
	}

	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	args := make([][]byte, len(fields))
	for i, f := range fields {
		args[i] = []byte(f)
	}
	return args, nil
}

func readArray(r *bufio.Reader) ([][]byte, error) {
	n, err := readHeader(r, '*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: %d arguments, max %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	args := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulk(r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func readBulk(r *bufio.Reader) ([]byte, error) {
	n, err := readHeader(r, '$')
	if err != nil {
		return nil, err
	}
	switch {
	case n == -1:
		return nil, nil
	case n < 0:
		return nil, fmt.Errorf("%w: negative bulk length", ErrProtocol)
	case n > MaxBulkLen:
		return nil, fmt.Errorf("%w: bulk of %d bytes, max %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk not terminated by CRLF", ErrProtocol)
	}
	return buf[:n], nil
}

// readHeader reads a "<prefix><int>\r\n" line.
func readHeader(r *bufio.Reader, prefix byte) (int, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c' header", ErrProtocol, prefix)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: bad length %q", ErrProtocol, line[1:])
	}
	return n, nil
}

// readLine reads up to CRLF, refusing lines longer than maxLen.
func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > maxLen+2 {
			return "", fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, maxLen)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: line not terminated by CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// Writer encodes RESP2 replies. Errors are sticky: after the first failed
// write the rest are skipped and Flush reports it.
type Writer struct {
	bw  *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) write(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = w.bw.WriteString(p)
	}
}

// Simple writes "+s".
func (w *Writer) Simple(s string) { w.write("+", s, "\r\n") }

// Error writes "-s". Line breaks in s are replaced with spaces.
func (w *Writer) Error(s string) {
	w.write("-", strings.NewReplacer("\r", " ", "\n", " ").Replace(s), "\r\n")
}

// Int writes ":n".
func (w *Writer) Int(n int64) { w.write(":", strconv.FormatInt(n, 10), "\r\n") }

// Bulk writes a bulk string.
func (w *Writer) Bulk(s string) {
	w.write("$", strconv.Itoa(len(s)), "\r\n", s, "\r\n")
}

// Null writes the null bulk string.
func (w *Writer) Null() { w.write("$-1\r\n") }

// Array writes an array header; the caller writes n elements.
func (w *Writer) Array(n int) { w.write("*", strconv.Itoa(n), "\r\n") }

// Flush sends buffered replies.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.bw.Flush()
}

// commandName upper-cases an ASCII command name.
func commandName(b []byte) string {
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
