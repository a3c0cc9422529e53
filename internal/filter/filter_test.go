package filter

import (
	"slices"
	"testing"
	"time"

	"github.com/sadopc/birdseye/internal/model"
)

const mb = 1024 * 1024

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func names(seq func(func(model.File) bool)) []string {
	var out []string
	for f := range seq {
		out = append(out, f.Path)
	}
	return out
}

func sizedFiles() []model.File {
	// size-descending, as FilesBySize produces
	return []model.File{
		{Path: "50mb", Size: 50 * mb},
		{Path: "10mb", Size: 10 * mb},
		{Path: "1mb", Size: 1 * mb},
	}
}

func TestEvaluate(t *testing.T) {
	aged := []model.File{
		{Path: "fresh", Modified: now.Add(-2 * time.Hour), ModifiedKnown: true},
		{Path: "week", Modified: now.Add(-7 * 24 * time.Hour), ModifiedKnown: true},
		{Path: "ancient", Modified: now.Add(-400 * 24 * time.Hour), ModifiedKnown: true},
		{Path: "unknown"},
	}

	tests := []struct {
		name  string
		files []model.File
		chain Chain
		want  []string
	}{
		{"min size", sizedFiles(), Chain{MinSize{MB: 5}}, []string{"50mb", "10mb"}},
		{"exact threshold passes", []model.File{{Path: "5mb", Size: 5 * mb}}, Chain{MinSize{MB: 5}}, []string{"5mb"}},
		{"max results one", sizedFiles(), Chain{MaxResults{N: 1}}, []string{"50mb"}},
		{"max results zero", sizedFiles(), Chain{MaxResults{N: 0}}, nil},
		{"smallest cap wins", sizedFiles(), Chain{MaxResults{N: 2}, MaxResults{N: 1}}, []string{"50mb"}},
		{"cap counts accepted only", sizedFiles(), Chain{MaxResults{N: 1}, MinSize{MB: 20}}, []string{"50mb"}},
		{"cap after predicate", sizedFiles(), Chain{MinSize{MB: 5}, MaxResults{N: 5}}, []string{"50mb", "10mb"}},
		{"min age", aged, Chain{MinAge{Days: 30}}, []string{"ancient", "unknown"}},
		{"max age", aged, Chain{MaxAge{Days: 30}}, []string{"fresh", "week", "unknown"}},
		{"age window", aged, Chain{MinAge{Days: 1}, MaxAge{Days: 30}}, []string{"week", "unknown"}},
		{"empty chain", sizedFiles(), nil, []string{"50mb", "10mb", "1mb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(tt.chain.Evaluate(tt.files, now))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_UnknownAgeAlwaysPassesMinAge(t *testing.T) {
	files := []model.File{{Path: "u", Size: 2}}
	got := names(Chain{MinAge{Days: 30}, MaxAge{Days: 0}}.Evaluate(files, now))
	if !slices.Equal(got, []string{"u"}) {
		t.Errorf("Evaluate() = %v, want [u]", got)
	}
}

func TestEvaluate_Restartable(t *testing.T) {
	seq := Chain{MinSize{MB: 5}}.Evaluate(sizedFiles(), now)
	first := names(seq)
	second := names(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second iteration = %v, want %v", second, first)
	}
}

func TestEvaluate_EarlyBreak(t *testing.T) {
	n := 0
	for range (Chain{}).Evaluate(sizedFiles(), now) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		want    Filter
		wantErr bool
	}{
		{"min-size=5", MinSize{MB: 5}, false},
		{"min-age=1", MinAge{Days: 1}, false},
		{" MAX-AGE = 30 ", MaxAge{Days: 30}, false},
		{"max-results=50", MaxResults{N: 50}, false},
		{"min-size", nil, true},
		{"min-size=abc", nil, true},
		{"min-size=-1", nil, true},
		{"biggest=3", nil, true},
		{"min-age=106751", MinAge{Days: MaxDays}, false},
		{"min-age=106752", nil, true},
		{"max-age=200000", nil, true},
		{"min-size=8796093022207", MinSize{MB: MaxMB}, false},
		{"min-size=17592186044416", nil, true},
		{"max-results=2147483647", MaxResults{N: MaxResultN}, false},
		{"max-results=4294967296", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseChain_RoundTrip(t *testing.T) {
	c, err := ParseChain([]string{"min-size=5", "max-results=10"})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Strings(); !slices.Equal(got, []string{"min-size=5", "max-results=10"}) {
		t.Errorf("Strings() = %v", got)
	}
	if _, err := ParseChain([]string{"min-size=5", "bad"}); err == nil {
		t.Error("ParseChain accepted an invalid spec")
	}
}

func TestStep(t *testing.T) {
	if got := Step(MinSize{MB: 5}, 1); got != (MinSize{MB: 6}) {
		t.Errorf("Step(+1) = %v", got)
	}
	if got := Step(MaxResults{N: 0}, -1); got != (MaxResults{N: 0}) {
		t.Errorf("Step below zero = %v", got)
	}
	if got := Step(MinAge{Days: 3}, -1); got != (MinAge{Days: 2}) {
		t.Errorf("Step(-1) = %v", got)
	}
	if got := Step(MinSize{MB: MaxMB}, 1); got != (MinSize{MB: MaxMB}) {
		t.Errorf("Step past the size bound = %v", got)
	}
	if got := Step(MaxAge{Days: MaxDays - 1}, 10); got != (MaxAge{Days: MaxDays}) {
		t.Errorf("Step past the age bound = %v", got)
	}
}

func TestEvaluate_ThresholdBounds(t *testing.T) {
	twoDays := []model.File{{Path: "small", Size: 1, Modified: now.Add(-2 * day), ModifiedKnown: true}}

	tests := []struct {
		name  string
		chain Chain
		want  []string
	}{
		{"min age at bound", Chain{MinAge{Days: MaxDays}}, nil},
		{"min age past bound", Chain{MinAge{Days: 200000}}, nil},
		{"max age at bound", Chain{MaxAge{Days: MaxDays}}, []string{"small"}},
		{"max age past bound", Chain{MaxAge{Days: 200000}}, []string{"small"}},
		{"min size at bound", Chain{MinSize{MB: MaxMB}}, nil},
		{"min size past bound", Chain{MinSize{MB: 1 << 44}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(tt.chain.Evaluate(twoDays, now)); !slices.Equal(got, tt.want) {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
