package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedRecord is wrapped by every ParseError.
var ErrMalformedRecord = errors.New("malformed trace record")

// A ParseError reports a trace line that cannot be read.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformedRecord) hold.
func (e *ParseError) Unwrap() error {
	return ErrMalformedRecord
}

// A Reader reads records in the valgrind lackey format:
//
//	I 0400d7d4,8
//	 L 7ff0005b8,8
//	 S 7ff0005c8,8
//	 M 0421c7f0,4
//
// Addresses are hexadecimal and sizes are decimal. Blank lines and valgrind
// banner lines starting with '=' are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record. It returns io.EOF when the trace is
// exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimRight(r.scanner.Text(), " \t\r")
		trimmed := strings.TrimLeft(text, " \t")

		if trimmed == "" || strings.HasPrefix(trimmed, "=") {
			continue
		}

		return r.parse(text, trimmed)
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("reading trace: %w", err)
	}

	return Record{}, io.EOF
}

func (r *Reader) parse(text, trimmed string) (Record, error) {
	rec := Record{Line: r.line}

	switch trimmed[0] {
	case 'I':
		rec.Kind = Instruction
	case 'L':
		rec.Kind = Load
	case 'S':
		rec.Kind = Store
	case 'M':
		rec.Kind = Modify
	default:
		return rec, r.errorf(text, "unknown operation %q", trimmed[0])
	}

	if len(trimmed) < 2 || (trimmed[1] != ' ' && trimmed[1] != '\t') {
		return rec, r.errorf(text, "missing space after operation")
	}

	operand := strings.TrimSpace(trimmed[1:])

	addrText, sizeText, found := strings.Cut(operand, ",")
	if !found {
		return rec, r.errorf(text, "missing size")
	}

	addr, err := strconv.ParseUint(strings.TrimSpace(addrText), 16, 64)
	if err != nil {
		return rec, r.errorf(text, "bad address %q", addrText)
	}

	size, err := strconv.Atoi(strings.TrimSpace(sizeText))
	if err != nil || size < 0 {
		return rec, r.errorf(text, "bad size %q", sizeText)
	}

	rec.Address = addr
	rec.Size = size

	return rec, nil
}

func (r *Reader) errorf(text, format string, args ...any) error {
	return &ParseError{
		Line:   r.line,
		Text:   text,
		Reason: fmt.Sprintf(format, args...),
	}
}
