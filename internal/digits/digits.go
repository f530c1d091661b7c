// Package digits folds Persian and Arabic-Indic numerals to Latin digits.
package digits

import "strings"

// table maps every recognized non-Latin numeral and the Arabic thousands
// separator to its ASCII equivalent. Shared by all callers; never mutated.
var table = func() map[rune]rune {
	m := make(map[rune]rune, 21)
	for i := rune(0); i < 10; i++ {
		m['۰'+i] = '0' + i // Extended Arabic-Indic (Persian): ۰..۹
		m['٠'+i] = '0' + i // Arabic-Indic: ٠..٩
	}
	m['٬'] = ',' // ٬ Arabic thousands separator
	return m
}()

// Normalize converts Persian and Arabic-Indic digits in s to 0-9 and the
// Arabic thousands separator to ','. Other runes pass through unchanged.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if v, ok := table[r]; ok {
			return v
		}
		return r
	}, s)
}
