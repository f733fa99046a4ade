package bttdarkmode

import (
	"math"
	"strconv"
)

const (
	// MaxBackgroundLightness 深色背景允许的最大亮度。
	MaxBackgroundLightness = 0.4
	// MinForegroundLightness 前景文本允许的最小亮度。
	MinForegroundLightness = 0.55
)

// Role 颜色在页面中的用途，决定使用哪种重映射算法。
type Role int

const (
	RoleBackground Role = iota
	RoleForeground
	RoleBorder
	RoleLightScheme
	// RoleShadow 与 RoleGradient 按背景色处理。
	RoleShadow
	RoleGradient
	// RoleFilter 不改变 HSL，只应用当前模式（含反色）的滤镜矩阵。
	RoleFilter
)

var roleNames = [...]string{
	RoleBackground:  "background",
	RoleForeground:  "foreground",
	RoleBorder:      "border",
	RoleLightScheme: "light-scheme",
	RoleShadow:      "shadow",
	RoleGradient:    "gradient",
	RoleFilter:      "filter",
}

func (r Role) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// ParseRole 按名称查找 Role（"bg"/"text" 等简写也可识别）。
func ParseRole(name string) (Role, bool) {
	switch name {
	case "bg":
		return RoleBackground, true
	case "fg", "text":
		return RoleForeground, true
	}
	for i, n := range roleNames {
		if n == name {
			return Role(i), true
		}
	}
	return 0, false
}

// transform 标识一个 HSL 变换函数，同时作为变换缓存的一级键。
type transform int

const (
	transformNoop transform = iota
	transformBackground
	transformForeground
	transformBorder
	transformLightScheme
)

// apply pole/another 的含义由变换决定:
// background/foreground 只用 pole；border 为 (前景, 背景)；light-scheme 为 (前景, 背景)。
func (t transform) apply(c HSLA, pole, another HSLA) HSLA {
	switch t {
	case transformBackground:
		return remapBackground(c, pole)
	case transformForeground:
		return remapForeground(c, pole)
	case transformBorder:
		return remapBorder(c, pole, another)
	case transformLightScheme:
		return remapLightScheme(c, pole, another)
	}
	return c
}

func scale(x, inLow, inHigh, outLow, outHigh float64) float64 {
	return (x-inLow)*(outHigh-outLow)/(inHigh-inLow) + outLow
}

func remapBackground(c HSLA, pole HSLA) HSLA {
	isDark := c.L < 0.5
	isBlue := c.H > 200 && c.H < 280
	isNeutral := c.S < 0.12 || (c.L > 0.8 && isBlue)

	if isDark {
		lx := scale(c.L, 0, 0.5, 0, MaxBackgroundLightness)
		if isNeutral {
			return HSLA{H: pole.H, S: pole.S, L: lx, A: c.A}
		}
		return HSLA{H: c.H, S: c.S, L: lx, A: c.A}
	}

	lx := scale(c.L, 0.5, 1, MaxBackgroundLightness, pole.L)
	if isNeutral {
		return HSLA{H: pole.H, S: pole.S, L: lx, A: c.A}
	}

	// 黄色系在深色背景上显得发灰，向绿/青偏移
	hx := c.H
	if c.H > 60 && c.H < 180 {
		if c.H > 120 {
			hx = scale(c.H, 120, 180, 135, 180)
		} else {
			hx = scale(c.H, 60, 120, 60, 105)
		}
	}
	return HSLA{H: hx, S: c.S, L: lx, A: c.A}
}

func remapBlueForegroundHue(h float64) float64 {
	return scale(h, 205, 245, 205, 220)
}

func remapForeground(c HSLA, pole HSLA) HSLA {
	isLight := c.L > 0.5
	isNeutral := c.L < 0.2 || c.S < 0.24
	isBlue := !isNeutral && c.H > 205 && c.H < 245

	if isLight {
		lx := scale(c.L, 0.5, 1, MinForegroundLightness, pole.L)
		if isNeutral {
			return HSLA{H: pole.H, S: pole.S, L: lx, A: c.A}
		}
		hx := c.H
		if isBlue {
			hx = remapBlueForegroundHue(c.H)
		}
		return HSLA{H: hx, S: c.S, L: lx, A: c.A}
	}

	if isNeutral {
		lx := scale(c.L, 0, 0.5, pole.L, MinForegroundLightness)
		return HSLA{H: pole.H, S: pole.S, L: lx, A: c.A}
	}

	hx := c.H
	var lx float64
	if isBlue {
		hx = remapBlueForegroundHue(c.H)
		lx = scale(c.L, 0, 0.5, pole.L, math.Min(1, MinForegroundLightness+0.05))
	} else {
		lx = scale(c.L, 0, 0.5, pole.L, MinForegroundLightness)
	}
	return HSLA{H: hx, S: c.S, L: lx, A: c.A}
}

func remapBorder(c HSLA, poleFg, poleBg HSLA) HSLA {
	isDark := c.L < 0.5
	isNeutral := c.L < 0.2 || c.S < 0.24

	hx, sx := c.H, c.S
	if isNeutral {
		if isDark {
			hx, sx = poleFg.H, poleFg.S
		} else {
			hx, sx = poleBg.H, poleBg.S
		}
	}
	lx := scale(c.L, 0, 1, 0.5, 0.2)
	return HSLA{H: hx, S: sx, L: lx, A: c.A}
}

// remapLightScheme 浅色主题的单遍重映射：亮度在两个锚点之间整体线性映射，不在 0.5 处分段。
func remapLightScheme(c HSLA, poleFg, poleBg HSLA) HSLA {
	isDark := c.L < 0.5
	var isNeutral bool
	if isDark {
		isNeutral = c.L < 0.2 || c.S < 0.12
	} else {
		isBlue := c.H > 200 && c.H < 280
		isNeutral = c.S < 0.24 || (c.L > 0.8 && isBlue)
	}

	hx, sx := c.H, c.S
	if isNeutral {
		if isDark {
			hx, sx = poleFg.H, poleFg.S
		} else {
			hx, sx = poleBg.H, poleBg.S
		}
	}
	lx := scale(c.L, 0, 1, poleFg.L, poleBg.L)
	return HSLA{H: hx, S: sx, L: lx, A: c.A}
}

// ThemeColor 解析 text 并按 role 重映射为主题色。cache 为 nil 时不做缓存。
func ThemeColor(cache *Cache, role Role, text string, cfg FilterConfig) (string, error) {
	rgb, err := ParseColor(text)
	if err != nil {
		return "", err
	}
	if cache == nil {
		cache = NewCache()
	}
	return cache.Modify(role, rgb, cfg)
}

// Modify 按 role 重映射 rgb。浅色模式下除 RoleFilter 外都走 light-scheme 算法。
func (c *Cache) Modify(role Role, rgb RGBA, cfg FilterConfig) (string, error) {
	if cfg.Mode == ModeLight && role != RoleFilter {
		role = RoleLightScheme
	}
	// 反色由外部的前置规则负责，HSL 重映射后的矩阵一律按 Light 组合
	light := cfg
	light.Mode = ModeLight

	switch role {
	case RoleBackground, RoleShadow, RoleGradient:
		return c.modifyWithCache(transformBackground, rgb, light, cfg.BackgroundPole(), "")
	case RoleForeground:
		return c.modifyWithCache(transformForeground, rgb, light, cfg.ForegroundPole(), "")
	case RoleBorder:
		return c.modifyWithCache(transformBorder, rgb, light, cfg.ForegroundPole(), cfg.BackgroundPole())
	case RoleLightScheme:
		return c.modifyWithCache(transformLightScheme, rgb, light, cfg.LightSchemeTextColor, cfg.LightSchemeBackgroundColor)
	case RoleFilter:
		return c.modifyWithCache(transformNoop, rgb, cfg, "", "")
	}
	return "", &InvalidFilterConfigError{Field: "role", Value: role.String()}
}

func (c *Cache) modifyWithCache(t transform, rgb RGBA, cfg FilterConfig, pole, another string) (string, error) {
	id := cacheID(rgb, cfg)
	if v, ok := c.lookup(t, id); ok {
		return v, nil
	}

	var p, q HSLA
	var err error
	if pole != "" {
		if p, err = c.ParseToHSL(pole); err != nil {
			return "", err
		}
	}
	if another != "" {
		if q, err = c.ParseToHSL(another); err != nil {
			return "", err
		}
	}

	modified := HSLToRGB(t.apply(RGBToHSL(rgb), p, q))
	r, g, b := ComposeFilter(cfg).Apply(modified.R, modified.G, modified.B)
	out := RGBA{R: r, G: g, B: b, A: modified.A}

	var color string
	if out.A == 1 {
		color = FormatHex(out)
	} else {
		color = FormatRGB(out)
	}
	c.store(t, id, color)
	return color, nil
}

// cacheID 源颜色的 r,g,b,a 加上配置中所有影响结果的字段。
func cacheID(rgb RGBA, cfg FilterConfig) string {
	return strconv.Itoa(int(rgb.R)) + ";" +
		strconv.Itoa(int(rgb.G)) + ";" +
		strconv.Itoa(int(rgb.B)) + ";" +
		strconv.FormatFloat(rgb.A, 'g', -1, 64) + ";" +
		cfg.cacheKey()
}
