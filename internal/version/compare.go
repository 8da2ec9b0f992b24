package version

import (
	"regexp"
	"strconv"
)

var splitRe = regexp.MustCompile(`[.\-+]`)

func tokenize(v string) []string {
	return splitRe.Split(v, -1)
}

func isAllDigit(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Compare compares two version strings a and b, returning -1, 0, or +1.
//
// Both are tokenized on '.', '-', and '+'. Shared tokens compare numerically
// when both sides are all-digit, lexicographically otherwise. A trailing
// run of extra tokens on the longer side is treated as equal when every
// extra token is purely numeric (a packaging revision, e.g. "-4" in
// "1.2.3-4"), and as greater otherwise. This means Compare("1.2.3",
// "1.2.3-4") == 0.
func Compare(a, b string) int {
	ta, tb := tokenize(a), tokenize(b)
	na, nb := len(ta), len(tb)
	n := na
	if nb < n {
		n = nb
	}

	for i := 0; i < n; i++ {
		sa, sb := ta[i], tb[i]
		if isAllDigit(sa) && isAllDigit(sb) {
			va, _ := strconv.ParseInt(sa, 10, 64)
			vb, _ := strconv.ParseInt(sb, 10, 64)
			if va < vb {
				return -1
			}
			if va > vb {
				return 1
			}
			continue
		}
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
	}

	if na == nb {
		return 0
	}
	if na > nb {
		for i := nb; i < na; i++ {
			if !isAllDigit(ta[i]) {
				return 1
			}
		}
		return 0
	}
	for i := na; i < nb; i++ {
		if !isAllDigit(tb[i]) {
			return -1
		}
	}
	return 0
}
