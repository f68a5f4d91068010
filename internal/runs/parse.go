package runs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

type column int

const (
	colInstance column = iota
	colAlgorithm
	colRepeat
	colStatus
	colRuntime
	numColumns
)

var columnNames = [numColumns]string{"instance_id", "algorithm", "repeat_index", "status", "runtime"}

var columnAliases = map[string]column{
	"instance_id":     colInstance,
	"instance":        colInstance,
	"algorithm":       colAlgorithm,
	"solver":          colAlgorithm,
	"repetition":      colRepeat,
	"repeat":          colRepeat,
	"repeat_index":    colRepeat,
	"runstatus":       colStatus,
	"status":          colStatus,
	"runtime":         colRuntime,
	"runtime_seconds": colRuntime,
	"time":            colRuntime,
}

// layout maps each logical column to its field index, -1 when absent.
type layout [numColumns]int

func defaultLayout() layout {
	return layout{0, 1, 2, 3, 4}
}

// layoutFromNames builds a layout from header or @attribute names. It
// returns false when the names do not identify the required columns.
func layoutFromNames(names []string) (layout, bool) {
	l := layout{-1, -1, -1, -1, -1}
	for i, n := range names {
		c, ok := columnAliases[strings.ToLower(unquote(n))]
		if ok && l[c] < 0 {
			l[c] = i
		}
	}
	if l[colInstance] < 0 || l[colAlgorithm] < 0 || l[colRuntime] < 0 {
		return l, false
	}
	return l, true
}

func (l layout) width() int {
	w := 0
	for _, idx := range l {
		if idx+1 > w {
			w = idx + 1
		}
	}
	return w
}

// ReadLog opens and parses a run log file.
func ReadLog(path string) ([]RawRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run log %s: %w", path, err)
	}
	defer f.Close()
	runs, err := ParseLog(f)
	if err != nil {
		return nil, fmt.Errorf("parsing run log %s: %w", path, err)
	}
	return runs, nil
}

// ParseLog reads CSV or ARFF run records. ARFF @attribute directives or a
// CSV header row decide the column order; without either the columns are
// instance_id, algorithm, repeat_index, status, runtime.
func ParseLog(r io.Reader) ([]RawRun, error) {
	cr := csv.NewReader(r)
	cr.Comment = '%'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var (
		runs       []RawRun
		attributes []string
		cols       = defaultLayout()
		sawHeader  bool
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		first := strings.TrimSpace(rec[0])
		if first == "" && len(rec) == 1 {
			continue
		}
		if strings.HasPrefix(first, "@") {
			fields := strings.Fields(first)
			switch strings.ToLower(fields[0]) {
			case "@attribute":
				if len(fields) < 2 {
					return nil, &ParseError{Line: line, Err: errors.New("attribute without a name")}
				}
				attributes = append(attributes, fields[1])
			case "@data":
				if len(attributes) > 0 {
					l, ok := layoutFromNames(attributes)
					if !ok {
						return nil, &ParseError{Line: line, Err: fmt.Errorf("attributes %v do not name instance, algorithm and runtime columns", attributes)}
					}
					cols = l
					sawHeader = true
				}
			}
			continue
		}
		if !sawHeader {
			sawHeader = true
			if l, ok := layoutFromNames(rec); ok {
				cols = l
				continue
			}
		}
		run, err := parseRecord(rec, cols, line)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func parseRecord(rec []string, cols layout, line int) (RawRun, error) {
	if len(rec) < cols.width() {
		return RawRun{}, &ParseError{Line: line, Err: fmt.Errorf("expected %d fields, got %d", cols.width(), len(rec))}
	}
	field := func(c column) string {
		if cols[c] < 0 {
			return ""
		}
		return unquote(strings.TrimSpace(rec[cols[c]]))
	}

	run := RawRun{
		InstanceID: field(colInstance),
		Algorithm:  field(colAlgorithm),
		Status:     field(colStatus),
		Line:       line,
	}
	if run.InstanceID == "" {
		return RawRun{}, &ParseError{Line: line, Field: columnNames[colInstance], Err: errors.New("empty value")}
	}
	if run.Algorithm == "" {
		return RawRun{}, &ParseError{Line: line, Field: columnNames[colAlgorithm], Err: errors.New("empty value")}
	}
	if s := field(colRepeat); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return RawRun{}, &ParseError{Line: line, Field: columnNames[colRepeat], Err: fmt.Errorf("not an integer: %q", s)}
		}
		run.Repeat = int(f)
	}
	rt, err := strconv.ParseFloat(field(colRuntime), 64)
	if err != nil {
		return RawRun{}, &ParseError{Line: line, Field: columnNames[colRuntime], Err: err}
	}
	if math.IsNaN(rt) || math.IsInf(rt, 0) || rt < 0 {
		return RawRun{}, &ParseError{Line: line, Field: columnNames[colRuntime], Err: fmt.Errorf("invalid runtime %v", rt)}
	}
	run.Runtime = rt
	return run, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' && s[len(s)-1] == '\'' || s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
