package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"name", "size"}, [][]string{
		{"a.txt", "12"},
		{"b.txt", "3400"},
	})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "3400")
}

func TestKeyValue(t *testing.T) {
	var buf bytes.Buffer
	KeyValue(&buf, [][2]string{
		{"Size", "12B"},
		{"Modified", "2024-01-01"},
	})

	out := buf.String()
	assert.Contains(t, out, "Size")
	assert.Contains(t, out, "12B")
	assert.Contains(t, out, "Modified")
}
