package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArray(t *testing.T) {
	doc := `[
		{"address": 4096, "hexDump": "90", "text": "nop"},
		{"address": "0x1001", "hexDump": "c3", "text": "ret", "isBranch": true},
		{"address": 4098, "hexDump": "e8", "text": "call puts", "isBranch": true,
		 "isForeignBranch": true, "foreignTargetAddress": "0x7f0000001000", "foreignTargetName": "puts"}
	]`
	stream, issues, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, stream, 3)

	assert.Equal(t, uint64(0x1000), stream[0].VA)
	assert.False(t, stream[0].Branch)
	assert.Equal(t, uint64(0x1001), stream[1].VA)
	assert.True(t, stream[1].Branch)
	require.NotNil(t, stream[2].Foreign)
	assert.Equal(t, uint64(0x7f0000001000), stream[2].Foreign.Target)
	assert.Equal(t, "puts", stream[2].Foreign.Name)
}

func TestParseSkipsMalformedRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
		reason string
	}{
		{"not an object", `42`, "not an object"},
		{"missing address", `{"hexDump": "90", "text": "nop"}`, "address: missing"},
		{"negative address", `{"address": -1, "hexDump": "90", "text": "nop"}`, "address: not an unsigned integer: -1"},
		{"float address", `{"address": 1.5, "hexDump": "90", "text": "nop"}`, "address: not an unsigned integer: 1.5"},
		{"missing hexDump", `{"address": 1, "text": "nop"}`, "missing hexDump"},
		{"missing text", `{"address": 1, "hexDump": "90"}`, "missing text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `[{"address": 0, "hexDump": "90", "text": "nop"}, ` + tt.record + `]`
			stream, issues, err := Parse([]byte(doc))
			require.NoError(t, err)
			require.Len(t, stream, 1)
			require.Len(t, issues, 1)
			assert.Equal(t, 1, issues[0].Index)
			assert.True(t, issues[0].Dropped)
			assert.Equal(t, tt.reason, issues[0].Reason)
		})
	}
}

func TestParseDegradedRecords(t *testing.T) {
	doc := `[
		{"address": 1, "hexDump": "", "text": "jmp", "isBranch": "yes"},
		{"address": 2, "hexDump": "", "text": "call", "isBranch": true, "isForeignBranch": true},
		{"address": 3, "hexDump": "", "text": "call", "isBranch": true, "isForeignBranch": true, "foreignTargetAddress": 99}
	]`
	stream, issues, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, stream, 3)
	require.Len(t, issues, 3)

	assert.False(t, stream[0].Branch)
	assert.Nil(t, stream[1].Foreign, "foreign branch without target is dropped")
	require.NotNil(t, stream[2].Foreign)
	assert.Equal(t, uint64(99), stream[2].Foreign.Target)
	assert.Empty(t, stream[2].Foreign.Name)
	for _, is := range issues {
		assert.False(t, is.Dropped)
	}
}

func TestParseForeignFlagFalse(t *testing.T) {
	doc := `[{"address": 1, "hexDump": "", "text": "call", "isForeignBranch": false, "foreignTargetAddress": 5, "foreignTargetName": "x"}]`
	stream, issues, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, stream, 1)
	assert.Nil(t, stream[0].Foreign)
}

func TestParseLines(t *testing.T) {
	doc := "{\"address\": 16, \"hexDump\": \"\", \"text\": \"a\"}\n" +
		"\n" +
		"{broken\n" +
		"{\"address\": 17, \"hexDump\": \"\", \"text\": \"b\", \"isBranch\": true}\n"
	stream, issues, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, stream, 2)
	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Index)
	assert.Equal(t, uint64(17), stream[1].VA)
	assert.True(t, stream[1].Branch)
}

func TestParseEmptyAndGarbage(t *testing.T) {
	stream, issues, err := Parse([]byte("  \n\t"))
	require.NoError(t, err)
	assert.Empty(t, stream)
	assert.Empty(t, issues)

	_, _, err = Parse([]byte("[1, 2"))
	assert.True(t, errors.Is(err, ErrMalformed))

	_, _, err = Parse([]byte("hello\nworld"))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseLargeAddress(t *testing.T) {
	doc := `[{"address": 18446744073709551615, "hexDump": "", "text": "x"}]`
	stream, _, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, stream, 1)
	assert.Equal(t, ^uint64(0), stream[0].VA)
}
