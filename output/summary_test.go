package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryFormatter_NoFailures(t *testing.T) {
	out := NewSummaryFormatter(20, false).Format(Summary{Passed: 3, Elapsed: "2s"})

	assert.NotContains(t, out, "FAILURES")
	assert.NotContains(t, out, "ERRORS")
	assert.Contains(t, out, "Total tests:    3\n")
	assert.Contains(t, out, "Passed:         3 ✓ (100.0%)\n")
	assert.Contains(t, out, "Failed:         0 ✗ (0.0%)\n")
	assert.Contains(t, out, "Total time:     2s\n")
	assert.Contains(t, out, strings.Repeat("-", 20))
}

func TestSummaryFormatter_Empty(t *testing.T) {
	out := NewSummaryFormatter(0, false).Format(Summary{})
	assert.Contains(t, out, "Total tests:    0\n")
	assert.Contains(t, out, "(0.0%)")
	assert.NotContains(t, out, "Total time")
	assert.Contains(t, out, strings.Repeat("-", 80))
}
