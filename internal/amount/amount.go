// Package amount renders money the way it is written on gift books and
// cheques: Chinese financial numerals with yuan, jiao and fen units.
package amount

import (
	"math"
	"strings"
)

var (
	digits     = []string{"零", "壹", "贰", "叁", "肆", "伍", "陆", "柒", "捌", "玖"}
	smallUnits = []string{"", "拾", "佰", "仟"}
	bigUnits   = []string{"", "万", "亿", "兆"}
	pow10      = []int64{1, 10, 100, 1000}
)

// Limit is the exclusive upper bound of magnitudes ToChinese can spell.
// The largest group unit is 兆 (10^12), so 10^16 yuan has no name.
const Limit = 1e16

// ToChinese converts an amount in yuan to uppercase words, rounded to the fen.
// 500 → 伍佰元整, 1005.5 → 壹仟零伍元伍角整, 0 → 零元整.
// It returns "" for non-finite values and magnitudes of Limit or more.
func ToChinese(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= Limit {
		return ""
	}

	var b strings.Builder
	if v < 0 {
		b.WriteString("负")
		v = -v
	}

	cents := int64(math.Round(v * 100))
	yuan := cents / 100
	jiao := (cents / 10) % 10
	fen := cents % 10

	if yuan > 0 {
		b.WriteString(integer(yuan))
		b.WriteString("元")
	}

	switch {
	case jiao == 0 && fen == 0:
		if yuan == 0 {
			b.WriteString("零元")
		}
		b.WriteString("整")
		return b.String()
	case jiao > 0:
		b.WriteString(digits[jiao])
		b.WriteString("角")
	case yuan > 0:
		b.WriteString("零")
	}

	if fen > 0 {
		b.WriteString(digits[fen])
		b.WriteString("分")
	} else {
		b.WriteString("整")
	}
	return b.String()
}

func integer(n int64) string {
	var groups []int64
	for n > 0 {
		groups = append(groups, n%10000)
		n /= 10000
	}

	var b strings.Builder
	needZero := false
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			if b.Len() > 0 {
				needZero = true
			}
			continue
		}
		if needZero || (b.Len() > 0 && g < 1000) {
			b.WriteString("零")
		}
		b.WriteString(section(g))
		if i < len(bigUnits) {
			b.WriteString(bigUnits[i])
		}
		needZero = false
	}
	return b.String()
}

// section renders 1..9999 without a trailing zero.
func section(n int64) string {
	var b strings.Builder
	zero, started := false, false
	for pos := 3; pos >= 0; pos-- {
		d := n / pow10[pos] % 10
		if d == 0 {
			if started {
				zero = true
			}
			continue
		}
		if zero {
			b.WriteString("零")
			zero = false
		}
		b.WriteString(digits[d])
		b.WriteString(smallUnits[pos])
		started = true
	}
	return b.String()
}
