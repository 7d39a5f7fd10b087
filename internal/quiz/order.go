package quiz

import (
	"sort"
	"strconv"
	"strings"
)

// qidKey compares question ids numerically when the id parses as a
// number and lexically otherwise.
type qidKey struct {
	isNum bool
	num   float64
	str   string
}

func qidSortKey(qid string) qidKey {
	if n, err := strconv.ParseFloat(strings.TrimSpace(qid), 64); err == nil {
		return qidKey{isNum: true, num: n, str: qid}
	}
	return qidKey{str: qid}
}

// String renders the canonical form used inside the composite primary
// key, so "05" and "5" collapse to the same key.
func (k qidKey) String() string {
	if k.isNum {
		return strconv.FormatFloat(k.num, 'f', -1, 64)
	}
	return k.str
}

// compare orders two keys: numeric against numeric, string against
// string. A numeric/string mix has no defined order and reports equal,
// leaving the stable sort to keep the incoming order.
func (k qidKey) compare(o qidKey) int {
	switch {
	case k.isNum && o.isNum:
		switch {
		case k.num < o.num:
			return -1
		case k.num > o.num:
			return 1
		}
		return 0
	case !k.isNum && !o.isNum:
		return strings.Compare(k.str, o.str)
	}
	return 0
}

// primaryOrderKey builds the composite key that clusters grouped
// questions: "G:"+group for group members, "Q:"+qid otherwise. The two
// prefixes share one string key space on purpose; group keys interleave
// with question keys by plain string comparison, and downstream content
// relies on that exact ordering.
func primaryOrderKey(q Question) string {
	if q.Group != "" {
		return "G:" + q.Group
	}
	return "Q:" + qidSortKey(q.QID).String()
}

func stepOrZero(q Question) int {
	if q.Step == nil {
		return 0
	}
	return *q.Step
}

// sortSequential orders the pool by (primary key, step, qid) for a
// deterministic, reproducible delivery sequence.
func sortSequential(pool []Question) {
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		ka, kb := primaryOrderKey(a), primaryOrderKey(b)
		if ka != kb {
			return ka < kb
		}
		if sa, sb := stepOrZero(a), stepOrZero(b); sa != sb {
			return sa < sb
		}
		return qidSortKey(a.QID).compare(qidSortKey(b.QID)) < 0
	})
}

// shufflePool is a uniform Fisher-Yates shuffle. intn is injected so
// tests can drive it; callers pass rand.Intn.
func shufflePool(pool []Question, intn func(int) int) {
	for i := len(pool) - 1; i > 0; i-- {
		j := intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
}
