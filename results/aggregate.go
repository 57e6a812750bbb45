package results

import "github.com/ansel1/testdash/output/format"

// Partitioned holds one batch of case results split into display buckets.
type Partitioned struct {
	Passing []string
	Failing []string
	Errors  []ErrorEntry
}

// Partition splits case results into passing titles, failing titles and one
// error entry per failure message. Input order is preserved in every
// bucket and duplicate titles are kept.
func Partition(cases []TestCaseResult) Partitioned {
	var p Partitioned
	for _, c := range cases {
		title := format.Title(c.Title, c.NearestAncestor(), true)
		if !c.Failed() {
			p.Passing = append(p.Passing, title)
			continue
		}
		p.Failing = append(p.Failing, title)
		for _, msg := range c.FailureMessages {
			p.Errors = append(p.Errors, ErrorEntry{Title: title, Message: msg})
		}
	}
	return p
}
