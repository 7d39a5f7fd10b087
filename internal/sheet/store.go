package sheet

import (
	"context"
	"fmt"
)

const (
	TableQuestions = "Questions"
	TableResponses = "Responses"
)

// ResponsesHeader is the fixed column order of the event log. Existing
// data rows are never migrated; only the header row is self-healed.
var ResponsesHeader = []string{"timestamp", "user_id", "qid", "chosen", "correct", "elapsed_ms", "device"}

// QuestionColumns are the columns the ordering engine requires in the
// Questions table.
var QuestionColumns = []string{
	"qid", "grade", "domain", "skill", "stem", "choices", "correct",
	"distractor_reason_A", "distractor_reason_B", "distractor_reason_C", "distractor_reason_D",
	"assets", "difficulty", "tags",
}

// Store is a tabular store of string cells keyed by table name. Row 0
// of ReadAll is the header row when one exists. Tail returns data rows
// only, newest first.
type Store interface {
	ReadAll(ctx context.Context, table string) ([][]string, error)
	Append(ctx context.Context, table string, row []string) error
	Tail(ctx context.Context, table string, n int) ([][]string, error)
	Header(ctx context.Context, table string) ([]string, error)
	WriteHeader(ctx context.Context, table string, header []string) error
	// Reset drops all data rows and the header. Used by content import,
	// never by the serving path.
	Reset(ctx context.Context, table string) error
}

// HeaderIndex maps column names to indexes, failing on any missing name.
func HeaderIndex(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for _, n := range names {
		found := -1
		for i, h := range header {
			if h == n {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, fmt.Errorf("header missing column %q", n)
		}
		idx[n] = found
	}
	return idx, nil
}

// EnsureHeader rewrites the header row if it is absent or any cell
// mismatches the wanted schema.
func EnsureHeader(ctx context.Context, s Store, table string, want []string) error {
	got, err := s.Header(ctx, table)
	if err != nil {
		return err
	}
	if headerMatches(got, want) {
		return nil
	}
	return s.WriteHeader(ctx, table, want)
}

func headerMatches(got, want []string) bool {
	if len(got) < len(want) {
		return false
	}
	for i, w := range want {
		if got[i] != w {
			return false
		}
	}
	return true
}

// Cell returns row[i] or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
