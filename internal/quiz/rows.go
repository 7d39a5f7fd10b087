package quiz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sansudrill/drill-backend/internal/sheet"
)

var (
	groupRe = regexp.MustCompile(`(?:^|\|)group:([^|]+)`)
	stepRe  = regexp.MustCompile(`(?:^|\|)step:(\d+)`)
)

// parseGroupStep extracts the optional group token and step number from
// a |-delimited tags cell.
func parseGroupStep(tags string) (string, *int) {
	var group string
	if m := groupRe.FindStringSubmatch(tags); m != nil {
		group = m[1]
	}
	var step *int
	if m := stepRe.FindStringSubmatch(tags); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			step = &n
		}
	}
	return group, step
}

// decodeQuestion maps one data row through the header-index map. It
// never fails; malformed rows are weeded out by eligible().
func decodeQuestion(row []string, idx map[string]int) Question {
	cell := func(name string) string { return sheet.Cell(row, idx[name]) }

	choices := strings.Split(cell("choices"), "|")
	for i := range choices {
		choices[i] = strings.TrimSpace(choices[i])
	}
	if len(choices) > 4 {
		choices = choices[:4]
	}

	difficulty := 2
	if d := strings.TrimSpace(cell("difficulty")); d != "" {
		if n, err := strconv.Atoi(d); err == nil {
			difficulty = n
		}
	}

	tags := cell("tags")
	group, step := parseGroupStep(tags)

	return Question{
		QID:     cell("qid"),
		Grade:   cell("grade"),
		Domain:  cell("domain"),
		Skill:   cell("skill"),
		Stem:    cell("stem"),
		Choices: choices,
		Correct: strings.ToUpper(cell("correct")),
		Reasons: Reasons{
			A: cell("distractor_reason_A"),
			B: cell("distractor_reason_B"),
			C: cell("distractor_reason_C"),
			D: cell("distractor_reason_D"),
		},
		Assets:     cell("assets"),
		Difficulty: difficulty,
		Tags:       tags,
		Group:      group,
		Step:       step,
	}
}

// eligible is the delivery invariant: exactly 4 non-empty choices, a
// correct letter in A-D, and a non-empty qid. Rows failing it are
// silently excluded so one bad content row cannot break a request.
func eligible(q Question) bool {
	if len(q.Choices) != 4 {
		return false
	}
	for _, c := range q.Choices {
		if c == "" {
			return false
		}
	}
	switch q.Correct {
	case "A", "B", "C", "D":
	default:
		return false
	}
	return q.QID != ""
}

// buildPool filters the question table down to eligible rows in the
// requested domain. An empty domain passes everything.
func buildPool(rows [][]string, domain string) ([]Question, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: Questions table has no header", ErrSchema)
	}
	idx, err := sheet.HeaderIndex(rows[0], sheet.QuestionColumns...)
	if err != nil {
		return nil, fmt.Errorf("%w: Questions %v", ErrSchema, err)
	}

	var pool []Question
	for _, row := range rows[1:] {
		if domain != "" && strings.TrimSpace(sheet.Cell(row, idx["domain"])) != domain {
			continue
		}
		q := decodeQuestion(row, idx)
		if eligible(q) {
			pool = append(pool, q)
		}
	}
	return pool, nil
}
