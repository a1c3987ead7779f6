package trace

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when the document as a whole cannot be decoded.
// Individual bad records never produce it; they are reported as Issues.
var ErrMalformed = errors.New("malformed trace")

// Issue describes a record that was dropped or only partially decoded.
type Issue struct {
	Index   int    // array index, or 1-based line number for JSON lines
	Reason  string // what was wrong
	Dropped bool   // the record was skipped entirely
}

func (i Issue) String() string {
	if i.Dropped {
		return fmt.Sprintf("record %d skipped: %s", i.Index, i.Reason)
	}
	return fmt.Sprintf("record %d: %s", i.Index, i.Reason)
}

// Parse decodes a trace document. Two layouts are accepted: a single JSON
// array of records, or JSON lines with one record per line. Malformed
// records are dropped and reported; an empty document yields an empty
// stream.
func Parse(data []byte) (Stream, []Issue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}
	if trimmed[0] == '[' {
		return parseArray(trimmed)
	}
	return parseLines(trimmed)
}

func parseArray(data []byte) (Stream, []Issue, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: invalid JSON array", ErrMalformed)
	}

	var (
		stream Stream
		issues []Issue
		idx    int
	)
	gjson.ParseBytes(data).ForEach(func(_, value gjson.Result) bool {
		in, recIssues, ok := decode(idx, value)
		issues = append(issues, recIssues...)
		if ok {
			stream = append(stream, in)
		}
		idx++
		return true
	})
	return stream, issues, nil
}

func parseLines(data []byte) (Stream, []Issue, error) {
	var (
		stream Stream
		issues []Issue
		valid  int
	)
	for n, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		in, recIssues, ok := ParseRecord(n+1, line)
		if !invalidJSON(recIssues) {
			valid++
		}
		issues = append(issues, recIssues...)
		if ok {
			stream = append(stream, in)
		}
	}
	if valid == 0 {
		return nil, nil, fmt.Errorf("%w: neither a JSON array nor JSON lines", ErrMalformed)
	}
	return stream, issues, nil
}

const reasonInvalidJSON = "invalid JSON"

func invalidJSON(issues []Issue) bool {
	return len(issues) == 1 && issues[0].Reason == reasonInvalidJSON
}

// ParseRecord decodes one JSON-encoded record. index is only used to label
// issues.
func ParseRecord(index int, raw []byte) (Instr, []Issue, bool) {
	if !gjson.ValidBytes(raw) {
		return Instr{}, []Issue{{Index: index, Reason: reasonInvalidJSON, Dropped: true}}, false
	}
	return decode(index, gjson.ParseBytes(raw))
}

func decode(index int, v gjson.Result) (Instr, []Issue, bool) {
	drop := func(reason string) (Instr, []Issue, bool) {
		return Instr{}, []Issue{{Index: index, Reason: reason, Dropped: true}}, false
	}
	if !v.IsObject() {
		return drop("not an object")
	}

	addr, err := parseAddr(v.Get(keyAddress))
	if err != nil {
		return drop(fmt.Sprintf("%s: %v", keyAddress, err))
	}
	hex := v.Get(keyHexDump)
	if hex.Type != gjson.String {
		return drop("missing " + keyHexDump)
	}
	text := v.Get(keyText)
	if text.Type != gjson.String {
		return drop("missing " + keyText)
	}

	in := Instr{VA: addr, Hex: hex.Str, Text: text.Str}
	var issues []Issue

	switch br := v.Get(keyIsBranch); br.Type {
	case gjson.True:
		in.Branch = true
	case gjson.False, gjson.Null:
	default:
		issues = append(issues, Issue{Index: index, Reason: keyIsBranch + " is not a boolean, assuming false"})
	}

	if v.Get(keyIsForeign).Type == gjson.True {
		target, err := parseAddr(v.Get(keyForeignTarget))
		if err != nil {
			issues = append(issues, Issue{Index: index, Reason: fmt.Sprintf("foreign branch ignored: %s: %v", keyForeignTarget, err)})
			return in, issues, true
		}
		name := v.Get(keyForeignName)
		if name.Type != gjson.String {
			issues = append(issues, Issue{Index: index, Reason: "foreign branch without " + keyForeignName})
		}
		in.Foreign = &Foreign{Target: target, Name: name.Str}
	}
	return in, issues, true
}

// parseAddr accepts unsigned JSON integers and strings holding a decimal,
// 0x-hex, 0o-octal or 0b-binary literal.
func parseAddr(r gjson.Result) (uint64, error) {
	switch r.Type {
	case gjson.Number:
		if strings.ContainsAny(r.Raw, ".eE-+") {
			return 0, fmt.Errorf("not an unsigned integer: %s", r.Raw)
		}
		return strconv.ParseUint(r.Raw, 10, 64)
	case gjson.String:
		return strconv.ParseUint(strings.TrimSpace(r.Str), 0, 64)
	case gjson.Null:
		if !r.Exists() {
			return 0, errors.New("missing")
		}
		return 0, errors.New("null")
	default:
		return 0, fmt.Errorf("unsupported value %s", r.Raw)
	}
}
