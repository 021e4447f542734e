package amount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToChinese(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "零元整"},
		{1, "壹元整"},
		{10, "壹拾元整"},
		{12, "壹拾贰元整"},
		{100, "壹佰元整"},
		{101, "壹佰零壹元整"},
		{110, "壹佰壹拾元整"},
		{500, "伍佰元整"},
		{888, "捌佰捌拾捌元整"},
		{1005, "壹仟零伍元整"},
		{1010, "壹仟零壹拾元整"},
		{2000, "贰仟元整"},
		{10000, "壹万元整"},
		{10500, "壹万零伍佰元整"},
		{12345, "壹万贰仟叁佰肆拾伍元整"},
		{100000, "壹拾万元整"},
		{1000001, "壹佰万零壹元整"},
		{100000000, "壹亿元整"},
		{100010000, "壹亿零壹万元整"},
		{0.5, "伍角整"},
		{0.05, "伍分"},
		{1.05, "壹元零伍分"},
		{1.5, "壹元伍角整"},
		{66.66, "陆拾陆元陆角陆分"},
		{1005.5, "壹仟零伍元伍角整"},
		{-200, "负贰佰元整"},
		{0.004, "零元整"},
		{9.999, "壹拾元整"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToChinese(tt.in), "ToChinese(%v)", tt.in)
	}
}

func TestToChineseNonFinite(t *testing.T) {
	assert.Empty(t, ToChinese(math.NaN()))
	assert.Empty(t, ToChinese(math.Inf(1)))
}

func TestToChineseRange(t *testing.T) {
	assert.Equal(t, "壹兆元整", ToChinese(1e12))
	assert.Equal(t, "玖仟玖佰玖拾玖兆元整", ToChinese(9999e12))
	assert.Empty(t, ToChinese(Limit))
	assert.Empty(t, ToChinese(-Limit))
	assert.Empty(t, ToChinese(math.MaxFloat64))
}
