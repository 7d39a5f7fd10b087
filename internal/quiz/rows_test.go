package quiz

import (
	"errors"
	"testing"

	"github.com/sansudrill/drill-backend/internal/sheet"
)

func questionRow(qid, domain, choices, correct, tags string) []string {
	return []string{qid, "3", domain, "skill", "stem?", choices, correct, "ra", "rb", "rc", "rd", "", "2", tags}
}

func questionRows(rows ...[]string) [][]string {
	out := [][]string{append([]string(nil), sheet.QuestionColumns...)}
	return append(out, rows...)
}

func TestParseGroupStep(t *testing.T) {
	cases := []struct {
		tags  string
		group string
		step  int // -1 means nil
	}{
		{"", "", -1},
		{"group:g1|step:2", "g1", 2},
		{"step:3|group:g2", "g2", 3},
		{"easy|group:g1", "g1", -1},
		{"group:g1", "g1", -1},
		{"step:7", "", 7},
		{"regroup:x", "", -1},    // group: must start a segment
		{"foo|step:abc", "", -1}, // non-numeric step ignored
	}
	for _, c := range cases {
		group, step := parseGroupStep(c.tags)
		if group != c.group {
			t.Errorf("tags %q: group = %q, want %q", c.tags, group, c.group)
		}
		if c.step == -1 {
			if step != nil {
				t.Errorf("tags %q: step = %d, want nil", c.tags, *step)
			}
		} else if step == nil || *step != c.step {
			t.Errorf("tags %q: step = %v, want %d", c.tags, step, c.step)
		}
	}
}

func TestDecodeQuestion(t *testing.T) {
	idx, err := sheet.HeaderIndex(sheet.QuestionColumns, sheet.QuestionColumns...)
	if err != nil {
		t.Fatal(err)
	}
	row := questionRow("12", "calc", " 1 | 2 | 3 | 4 | 5 ", "b", "group:g1|step:2")
	q := decodeQuestion(row, idx)

	if q.QID != "12" || q.Domain != "calc" {
		t.Fatalf("basic fields wrong: %+v", q)
	}
	if len(q.Choices) != 4 || q.Choices[0] != "1" || q.Choices[3] != "4" {
		t.Fatalf("choices should trim and keep the first 4: %v", q.Choices)
	}
	if q.Correct != "B" {
		t.Fatalf("correct should be upper-cased, got %q", q.Correct)
	}
	if q.Group != "g1" || q.Step == nil || *q.Step != 2 {
		t.Fatalf("group/step not derived: %+v", q)
	}
	if q.Reasons.A != "ra" || q.Reasons.D != "rd" {
		t.Fatalf("reasons not mapped: %+v", q.Reasons)
	}
}

func TestDecodeQuestionDifficultyDefault(t *testing.T) {
	idx, _ := sheet.HeaderIndex(sheet.QuestionColumns, sheet.QuestionColumns...)
	row := questionRow("1", "d", "1|2|3|4", "A", "")
	row[12] = ""
	if q := decodeQuestion(row, idx); q.Difficulty != 2 {
		t.Fatalf("empty difficulty should default to 2, got %d", q.Difficulty)
	}
	row[12] = "not-a-number"
	if q := decodeQuestion(row, idx); q.Difficulty != 2 {
		t.Fatalf("bad difficulty should default to 2, got %d", q.Difficulty)
	}
}

func TestEligibilityFilter(t *testing.T) {
	rows := questionRows(
		questionRow("1", "calc", "1|2|3|4", "A", ""),       // eligible
		questionRow("2", "calc", "1|2|3", "A", ""),         // only 3 choices
		questionRow("3", "calc", "1|2||4", "A", ""),        // empty choice
		questionRow("4", "calc", "1|2|3|4", "E", ""),       // bad correct letter
		questionRow("", "calc", "1|2|3|4", "A", ""),        // empty qid
		questionRow("6", "calc", "1|2|3|4|5|6", "d", ""),   // extra choices trimmed, lower-case correct
	)
	pool, err := buildPool(rows, "")
	if err != nil {
		t.Fatalf("buildPool: %v", err)
	}
	got := qids(pool)
	if len(got) != 2 || got[0] != "1" || got[1] != "6" {
		t.Fatalf("eligibility filter wrong, got %v", got)
	}
}

func TestBuildPoolDomainFilter(t *testing.T) {
	rows := questionRows(
		questionRow("1", "calc", "1|2|3|4", "A", ""),
		questionRow("2", " calc ", "1|2|3|4", "A", ""), // cell is trimmed
		questionRow("3", "geo", "1|2|3|4", "A", ""),
	)
	pool, err := buildPool(rows, "calc")
	if err != nil {
		t.Fatal(err)
	}
	if len(pool) != 2 {
		t.Fatalf("domain filter: got %v", qids(pool))
	}

	all, err := buildPool(rows, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("empty domain should pass everything, got %v", qids(all))
	}
}

func TestBuildPoolMissingColumn(t *testing.T) {
	rows := [][]string{{"qid", "domain"}, {"1", "calc"}}
	_, err := buildPool(rows, "")
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}
