package bttdarkmode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA 颜色的规范内存形式。
type RGBA struct {
	R, G, B uint8
	A       float64 // [0,1]
}

// HSLA H 为角度 [0,360)，S/L/A 为 [0,1]。
type HSLA struct {
	H, S, L, A float64
}

func (c RGBA) String() string {
	return FormatRGB(c)
}

var (
	rgbMatch = regexp.MustCompile(`^rgba?\([^()]+\)$`)
	hslMatch = regexp.MustCompile(`^hsla?\([^()]+\)$`)
	hexMatch = regexp.MustCompile(`^#[0-9a-f]+$`)

	rgbSplitter = regexp.MustCompile(`rgba?|\(|\)|/|,|\s`)
	hslSplitter = regexp.MustCompile(`hsla?|\(|\)|/|,|\s`)
)

type unit struct {
	suffix string
	scale  float64
}

var (
	rgbRange = []float64{255, 255, 255, 1}
	rgbUnits = []unit{{"%", 100}}

	hslRange = []float64{360, 1, 1, 1}
	hslUnits = []unit{{"%", 100}, {"deg", 360}, {"rad", 2 * math.Pi}, {"turn", 1}}
)

// ParseColor 解析 CSS 颜色字面量。
// 分派顺序: rgb()/rgba(), hsl()/hsla(), 十六进制, 命名颜色, 系统颜色, transparent。
func ParseColor(text string) (RGBA, error) {
	c := strings.ToLower(strings.TrimSpace(text))
	switch {
	case rgbMatch.MatchString(c):
		return parseRGB(text, c)
	case hslMatch.MatchString(c):
		return parseHSL(text, c)
	case hexMatch.MatchString(c):
		return parseHex(text, c)
	}
	if n, ok := namedColors[c]; ok {
		return rgbFromHex(n), nil
	}
	if n, ok := systemColors[c]; ok {
		return rgbFromHex(n), nil
	}
	if c == "transparent" {
		return RGBA{A: 0}, nil
	}
	return RGBA{}, &ColorParseError{Text: text}
}

// numbersFromString 拆分函数记法的参数并按单位换算到 rng 对应的范围。
// 范围大于 1 的分量四舍五入为整数。
func numbersFromString(s string, splitter *regexp.Regexp, rng []float64, units []unit) ([]float64, bool) {
	var raw []string
	for _, part := range splitter.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			raw = append(raw, part)
		}
	}
	if len(raw) < 3 || len(raw) > len(rng) {
		return nil, false
	}

	numbers := make([]float64, len(raw))
	for i, r := range raw {
		var n float64
		matched := false
		for _, u := range units {
			if strings.HasSuffix(r, u.suffix) {
				v, err := strconv.ParseFloat(strings.TrimSuffix(r, u.suffix), 64)
				if err != nil {
					return nil, false
				}
				n = v / u.scale * rng[i]
				matched = true
				break
			}
		}
		if !matched {
			v, err := strconv.ParseFloat(r, 64)
			if err != nil {
				return nil, false
			}
			n = v
		}
		if rng[i] > 1 {
			n = roundHalfUp(n)
		}
		numbers[i] = n
	}
	return numbers, true
}

func parseRGB(text, c string) (RGBA, error) {
	n, ok := numbersFromString(c, rgbSplitter, rgbRange, rgbUnits)
	if !ok {
		return RGBA{}, &ColorParseError{Text: text}
	}
	a := 1.0
	if len(n) > 3 {
		a = n[3]
	}
	return RGBA{R: clampChannel(n[0]), G: clampChannel(n[1]), B: clampChannel(n[2]), A: clamp(a, 0, 1)}, nil
}

func parseHSL(text, c string) (RGBA, error) {
	n, ok := numbersFromString(c, hslSplitter, hslRange, hslUnits)
	if !ok {
		return RGBA{}, &ColorParseError{Text: text}
	}
	a := 1.0
	if len(n) > 3 {
		a = n[3]
	}
	return HSLToRGB(HSLA{H: n[0], S: clamp(n[1], 0, 1), L: clamp(n[2], 0, 1), A: clamp(a, 0, 1)}), nil
}

func parseHex(text, c string) (RGBA, error) {
	h := c[1:]
	pair := func(s string) uint8 {
		v, _ := strconv.ParseUint(s, 16, 8)
		return uint8(v)
	}
	switch len(h) {
	case 3, 4:
		out := RGBA{
			R: pair(h[0:1] + h[0:1]),
			G: pair(h[1:2] + h[1:2]),
			B: pair(h[2:3] + h[2:3]),
			A: 1,
		}
		if len(h) == 4 {
			out.A = float64(pair(h[3:4]+h[3:4])) / 255
		}
		return out, nil
	case 6, 8:
		out := RGBA{R: pair(h[0:2]), G: pair(h[2:4]), B: pair(h[4:6]), A: 1}
		if len(h) == 8 {
			out.A = float64(pair(h[6:8])) / 255
		}
		return out, nil
	}
	return RGBA{}, &ColorParseError{Text: text}
}

// RGBToHSL 标准 RGB -> HSL 转换，不做取整。
func RGBToHSL(c RGBA) HSLA {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsl()
	return HSLA{H: wrapHue(h), S: s, L: l, A: c.A}
}

// HSLToRGB 标准 HSL -> RGB 转换，通道值四舍五入为整数。
func HSLToRGB(c HSLA) RGBA {
	col := colorful.Hsl(wrapHue(c.H), clamp(c.S, 0, 1), clamp(c.L, 0, 1))
	r, g, b := col.Clamped().RGB255()
	return RGBA{R: r, G: g, B: b, A: c.A}
}

// FormatRGB 输出 rgb(r, g, b)，alpha 保留两位小数后小于 1 时输出 rgba(r, g, b, a)。
func FormatRGB(c RGBA) string {
	if a := toFixed(c.A, 2); a != "1" {
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, a)
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// FormatHex 输出 #rrggbb，alpha 换算为字节后小于 ff 时输出 #rrggbbaa。
func FormatHex(c RGBA) string {
	if a := clampChannel(c.A * 255); a < 255 {
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, a)
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// FormatHSL 输出 hsl(h, s%, l%)，alpha 保留两位小数后小于 1 时输出 hsla(...)。
func FormatHSL(c HSLA) string {
	if a := toFixed(c.A, 2); a != "1" {
		return fmt.Sprintf("hsla(%s, %s%%, %s%%, %s)", toFixed(c.H, 0), toFixed(c.S*100, 0), toFixed(c.L*100, 0), a)
	}
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", toFixed(c.H, 0), toFixed(c.S*100, 0), toFixed(c.L*100, 0))
}

// toFixed 按 digits 位小数格式化并去掉末尾多余的 0。
func toFixed(n float64, digits int) string {
	fixed := strconv.FormatFloat(n, 'f', digits, 64)
	if digits == 0 || !strings.Contains(fixed, ".") {
		return fixed
	}
	fixed = strings.TrimRight(fixed, "0")
	return strings.TrimSuffix(fixed, ".")
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func clampChannel(x float64) uint8 {
	return uint8(clamp(roundHalfUp(x), 0, 255))
}
