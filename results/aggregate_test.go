package results

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		cases []TestCaseResult
		want  Partitioned
	}{
		{
			name:  "empty",
			cases: nil,
			want:  Partitioned{},
		},
		{
			name: "mixed keeps input order",
			cases: []TestCaseResult{
				{Title: "adds", AncestorTitles: []string{"Calc"}},
				{Title: "divides", AncestorTitles: []string{"Suite", "Calc"}, FailureMessages: []string{"m1", "m2"}},
				{Title: "top level"},
			},
			want: Partitioned{
				Passing: []string{"• Calc adds", "• top level"},
				Failing: []string{"• Calc divides"},
				Errors: []ErrorEntry{
					{Title: "• Calc divides", Message: "m1"},
					{Title: "• Calc divides", Message: "m2"},
				},
			},
		},
		{
			name: "duplicates are kept",
			cases: []TestCaseResult{
				{Title: "same"},
				{Title: "same"},
			},
			want: Partitioned{Passing: []string{"• same", "• same"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.cases)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Partition() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartition_ErrorCountLaw(t *testing.T) {
	cases := []TestCaseResult{
		{Title: "a", FailureMessages: []string{"1"}},
		{Title: "b"},
		{Title: "c", FailureMessages: []string{"1", "2", "3"}},
	}
	p := Partition(cases)

	want := 0
	for _, c := range cases {
		want += len(c.FailureMessages)
	}
	if len(p.Errors) != want {
		t.Errorf("got %d error entries, want %d", len(p.Errors), want)
	}
	if len(p.Passing)+len(p.Failing) != len(cases) {
		t.Errorf("partition lost cases: %d + %d != %d", len(p.Passing), len(p.Failing), len(cases))
	}
}
