package bttdarkmode

import (
	"fmt"
	"strings"
)

// Matrix 5x5 仿射颜色矩阵，作用于 [r, g, b, a, 1] 列向量（分量为 0..1）。
type Matrix [5][5]float64

// Identity 单位矩阵。
func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
}

// HueInvert 亮度反转并保持色相（invert(100%) hue-rotate(180deg) 的近似）。
func HueInvert() Matrix {
	return Matrix{
		{0.333, -0.667, -0.667, 0, 1},
		{-0.667, 0.333, -0.667, 0, 1},
		{-0.667, -0.667, 0.333, 0, 1},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
}

func Brightness(v float64) Matrix {
	return Matrix{
		{v, 0, 0, 0, 0},
		{0, v, 0, 0, 0},
		{0, 0, v, 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
}

func Contrast(v float64) Matrix {
	t := (1 - v) / 2
	return Matrix{
		{v, 0, 0, 0, t},
		{0, v, 0, 0, t},
		{0, 0, v, 0, t},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
}

func Sepia(v float64) Matrix {
	return Matrix{
		{0.393 + 0.607*(1-v), 0.769 - 0.769*(1-v), 0.189 - 0.189*(1-v), 0, 0},
		{0.349 - 0.349*(1-v), 0.686 + 0.314*(1-v), 0.168 - 0.168*(1-v), 0, 0},
		{0.272 - 0.272*(1-v), 0.534 - 0.534*(1-v), 0.131 + 0.869*(1-v), 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
}

func Grayscale(v float64) Matrix {
	return Matrix{
		{0.2126 + 0.7874*(1-v), 0.7152 - 0.7152*(1-v), 0.0722 - 0.0722*(1-v), 0, 0},
		{0.2126 - 0.2126*(1-v), 0.7152 + 0.2848*(1-v), 0.0722 - 0.0722*(1-v), 0, 0},
		{0.2126 - 0.2126*(1-v), 0.7152 - 0.7152*(1-v), 0.0722 + 0.9278*(1-v), 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
}

// Multiply 返回 a × b。
func Multiply(a, b Matrix) Matrix {
	var out Matrix
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			var sum float64
			for k := 0; k < 5; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// ComposeFilter 按 sepia -> grayscale -> contrast -> brightness -> (Dark 时) hue-invert
// 的顺序组合滤镜矩阵，跳过取单位值的阶段。
func ComposeFilter(cfg FilterConfig) Matrix {
	m := Identity()
	if cfg.Sepia != 0 {
		m = Multiply(m, Sepia(float64(cfg.Sepia)/100))
	}
	if cfg.Grayscale != 0 {
		m = Multiply(m, Grayscale(float64(cfg.Grayscale)/100))
	}
	if cfg.Contrast != 100 {
		m = Multiply(m, Contrast(float64(cfg.Contrast)/100))
	}
	if cfg.Brightness != 100 {
		m = Multiply(m, Brightness(float64(cfg.Brightness)/100))
	}
	if cfg.Mode == ModeDark {
		m = Multiply(m, HueInvert())
	}
	return m
}

// Apply 把矩阵作用于 [r/255, g/255, b/255, 1, 1]，结果四舍五入并截断到 [0,255]。
func (m Matrix) Apply(r, g, b uint8) (uint8, uint8, uint8) {
	v := [5]float64{float64(r) / 255, float64(g) / 255, float64(b) / 255, 1, 1}
	var out [3]uint8
	for i := 0; i < 3; i++ {
		var sum float64
		for k := 0; k < 5; k++ {
			sum += m[i][k] * v[k]
		}
		out[i] = clampChannel(sum * 255)
	}
	return out[0], out[1], out[2]
}

// SVGMatrixValue 输出 feColorMatrix 的 values 属性（前四行，保留三位小数）。
func SVGMatrixValue(m Matrix) string {
	parts := make([]string, 0, 20)
	for i := 0; i < 4; i++ {
		for j := 0; j < 5; j++ {
			parts = append(parts, fmt.Sprintf("%.3f", m[i][j]))
		}
	}
	return strings.Join(parts, " ")
}

// CSSFilterValue 输出等价的 CSS filter 声明值；全部为单位值时返回空串。
func CSSFilterValue(cfg FilterConfig) string {
	var filters []string
	if cfg.Mode == ModeDark {
		filters = append(filters, "invert(100%) hue-rotate(180deg)")
	}
	if cfg.Brightness != 100 {
		filters = append(filters, fmt.Sprintf("brightness(%d%%)", cfg.Brightness))
	}
	if cfg.Contrast != 100 {
		filters = append(filters, fmt.Sprintf("contrast(%d%%)", cfg.Contrast))
	}
	if cfg.Grayscale != 0 {
		filters = append(filters, fmt.Sprintf("grayscale(%d%%)", cfg.Grayscale))
	}
	if cfg.Sepia != 0 {
		filters = append(filters, fmt.Sprintf("sepia(%d%%)", cfg.Sepia))
	}
	return strings.Join(filters, " ")
}
