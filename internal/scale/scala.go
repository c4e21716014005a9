package scale

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNoteCount is returned when a Scala file lists a different number of
// pitches than its header declares.
var ErrNoteCount = errors.New("pitch count does not match header")

// SyntaxError reports a malformed line in a Scala file.
type SyntaxError struct {
	Line int
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scala line %d %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("scala line %d %q: malformed", e.Line, e.Text)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Importer turns scale file text into a Scale.
type Importer func(text string) (*Scale, error)

// Parse reads a scale in the Scala .scl format.
//
// Lines starting with '!' are comments. The first remaining line is the
// description, the second the number of pitches, and each following line one
// pitch: a value containing '.' is in cents, anything else is a ratio "a/b"
// or a whole number. Text after the first blank is ignored.
func Parse(text string, opts ...Option) (*Scale, error) {
	var (
		label    string
		count    = -1
		seenDesc bool
		cents    []float64
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(raw, "!") {
			continue
		}

		if !seenDesc {
			label = strings.TrimSpace(raw)
			seenDesc = true
			continue
		}

		field := firstField(raw)
		if field == "" {
			// Blank lines between pitches are tolerated
			continue
		}

		if count < 0 {
			n, err := strconv.Atoi(field)
			if err != nil || n < 0 {
				return nil, &SyntaxError{Line: line, Text: raw, Err: err}
			}
			count = n
			continue
		}

		c, err := parsePitch(field)
		if err != nil {
			return nil, &SyntaxError{Line: line, Text: raw, Err: err}
		}
		cents = append(cents, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read scala text: %w", err)
	}

	if count < 0 {
		return nil, ErrEmpty
	}
	if len(cents) != count {
		return nil, fmt.Errorf("%w: header %d, found %d", ErrNoteCount, count, len(cents))
	}

	return New(label, cents, opts...)
}

// Load reads and parses a Scala file from disk.
func Load(path string, opts ...Option) (*Scale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scale file: %w", err)
	}

	s, err := Parse(string(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// NewImporter returns an Importer that parses with the given options.
func NewImporter(opts ...Option) Importer {
	return func(text string) (*Scale, error) {
		return Parse(text, opts...)
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// parsePitch converts one pitch token to cents.
func parsePitch(tok string) (float64, error) {
	if strings.Contains(tok, ".") {
		return strconv.ParseFloat(tok, 64)
	}

	num, den := tok, "1"
	if i := strings.IndexByte(tok, '/'); i >= 0 {
		num, den = tok[:i], tok[i+1:]
	}

	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseUint(den, 10, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 || d == 0 {
		return 0, fmt.Errorf("ratio %s must be positive", tok)
	}

	return 1200 * math.Log2(float64(n)/float64(d)), nil
}
