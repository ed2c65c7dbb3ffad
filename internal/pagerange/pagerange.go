// Package pagerange turns user-typed page selections such as "1-3, 5" into
// zero-based page indices.
package pagerange

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Parse converts a comma separated list of 1-based pages and inclusive
// ranges into sorted, unique, zero-based indices within [0, maxPages).
// Tokens that do not start with an integer are skipped. Ranges are clamped
// to the document and a reversed range selects nothing. The result is empty,
// never nil, when nothing matches.
func Parse(expr string, maxPages int) []int {
	seen := make(map[int]struct{})
	for _, part := range strings.Split(expr, ",") {
		tok := strings.TrimSpace(part)
		if tok == "" {
			continue
		}
		if strings.Contains(tok, "-") {
			bounds := strings.Split(tok, "-")
			start, ok1 := leadingInt(bounds[0])
			end, ok2 := leadingInt(bounds[1])
			if !ok1 || !ok2 {
				continue
			}
			for i := max(1, start); i <= min(maxPages, end); i++ {
				seen[i-1] = struct{}{}
			}
			continue
		}
		n, ok := leadingInt(tok)
		if ok && n >= 1 && n <= maxPages {
			seen[n-1] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// ParseOrAll treats an empty expression or the word "all" as every page.
func ParseOrAll(expr string, maxPages int) []int {
	if IsAll(expr) {
		return All(maxPages)
	}
	return Parse(expr, maxPages)
}

// IsAll reports whether expr selects the whole document.
func IsAll(expr string) bool {
	s := strings.TrimSpace(expr)
	return s == "" || strings.EqualFold(s, "all")
}

// All returns [0, n).
func All(n int) []int {
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out
}

// Complement returns the indices in [0, n) that are not in indices, ascending.
func Complement(indices []int, n int) []int {
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := drop[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// IsPermutation reports whether order holds every index in [0, n) exactly once.
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// leadingInt reads an optionally signed integer prefix, ignoring whatever
// follows it ("3abc" is 3). Values too large for a page number saturate.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		n = math.MaxInt32
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if neg {
		n = -n
	}
	return n, true
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
