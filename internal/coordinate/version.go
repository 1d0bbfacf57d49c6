package coordinate

import (
	"strconv"
	"strings"
	"unicode"
)

// Qualifier ranks, lowest first. Unknown qualifiers sort after sp, lexically.
var qualifierRank = map[string]int{
	"alpha":     0,
	"a":         0,
	"beta":      1,
	"b":         1,
	"milestone": 2,
	"m":         2,
	"rc":        3,
	"cr":        3,
	"snapshot":  4,
	"":          5,
	"ga":        5,
	"final":     5,
	"release":   5,
	"sp":        6,
}

const unknownRank = 7

type item struct {
	numeric bool
	num     uint64
	text    string
}

// CompareVersions applies Maven-style ordering: numbers compare numerically,
// qualifiers by rank, and missing trailing items count as zero or release.
func CompareVersions(a, b string) int {
	ia, ib := parseVersion(a), parseVersion(b)
	n := len(ia)
	if len(ib) > n {
		n = len(ib)
	}
	for i := 0; i < n; i++ {
		if c := compareItem(at(ia, i), at(ib, i)); c != 0 {
			return c
		}
	}
	return 0
}

func at(items []*item, i int) *item {
	if i < len(items) {
		return items[i]
	}
	return nil
}

func parseVersion(v string) []*item {
	var (
		items []*item
		buf   strings.Builder
		digit bool
	)
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		items = append(items, newItem(buf.String()))
		buf.Reset()
	}
	for _, r := range strings.ToLower(strings.TrimSpace(v)) {
		switch {
		case r == '.' || r == '-' || r == '_':
			flush()
		case unicode.IsDigit(r):
			if !digit {
				flush()
			}
			digit = true
			buf.WriteRune(r)
		default:
			if digit {
				flush()
			}
			digit = false
			buf.WriteRune(r)
		}
	}
	flush()
	return trimNull(items)
}

func newItem(tok string) *item {
	if n, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return &item{numeric: true, num: n}
	}
	return &item{text: tok}
}

// trimNull drops trailing items equal to their null value (0 or a release qualifier).
func trimNull(items []*item) []*item {
	for len(items) > 0 && isNull(items[len(items)-1]) {
		items = items[:len(items)-1]
	}
	return items
}

func isNull(it *item) bool {
	if it.numeric {
		return it.num == 0
	}
	r, ok := qualifierRank[it.text]
	return ok && r == qualifierRank[""]
}

func compareItem(a, b *item) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -compareItem(b, nil)
	}

	if a.numeric {
		if b == nil {
			if a.num == 0 {
				return 0
			}
			return 1
		}
		if !b.numeric {
			return 1
		}
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}

	if b == nil {
		return compareQualifier(a.text, "")
	}
	if b.numeric {
		return -1
	}
	return compareQualifier(a.text, b.text)
}

func compareQualifier(a, b string) int {
	ra, rb := rank(a), rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case ra == unknownRank:
		return strings.Compare(a, b)
	}
	return 0
}

func rank(q string) int {
	if r, ok := qualifierRank[q]; ok {
		return r
	}
	return unknownRank
}
