package bttdarkmode

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestThemeColor_Poles(t *testing.T) {
	dark := DefaultFilterConfig()
	light := DefaultFilterConfig()
	light.Mode = ModeLight

	cases := []struct {
		name string
		cfg  FilterConfig
		role Role
		in   string
		want string
	}{
		// 白色背景映射到深色背景锚点
		{"dark bg white", dark, RoleBackground, "white", "#181a1b"},
		// 黑色文本映射到前景锚点
		{"dark fg black", dark, RoleForeground, "#000", "#e8e6e3"},
		{"dark shadow white", dark, RoleShadow, "#ffffff", "#181a1b"},
		{"dark gradient white", dark, RoleGradient, "#ffffff", "#181a1b"},
		// 浅色主题两端落在两个锚点上
		{"light-scheme white", dark, RoleLightScheme, "#ffffff", "#dcdad7"},
		{"light-scheme black", dark, RoleLightScheme, "#000000", "#181a1b"},
		// 浅色模式下背景角色也按 light-scheme 处理
		{"light mode bg", light, RoleBackground, "#ffffff", "#dcdad7"},
		{"light mode fg", light, RoleForeground, "#000000", "#181a1b"},
		// filter 只应用滤镜矩阵
		{"dark filter white", dark, RoleFilter, "#ffffff", "#000000"},
		{"dark filter black", dark, RoleFilter, "#000000", "#ffffff"},
		{"light filter", light, RoleFilter, "#123456", "#123456"},
		// alpha 小于 1 时输出 rgba
		{"alpha", light, RoleFilter, "rgba(255, 0, 0, 0.5)", "rgba(255, 0, 0, 0.5)"},
		{"transparent", dark, RoleFilter, "transparent", "rgba(255, 255, 255, 0)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ThemeColor(nil, c.role, c.in, c.cfg)
			if err != nil {
				t.Fatalf("ThemeColor failed: %v", err)
			}
			if got != c.want {
				t.Errorf("ThemeColor(%s, %q) = %q, want %q", c.role, c.in, got, c.want)
			}
		})
	}
}

func TestThemeColor_Ranges(t *testing.T) {
	cfg := DefaultFilterConfig()
	samples := []string{"#ffffff", "#f0f0f0", "#ffeeaa", "#3366ff", "#cc0000", "#00ff00", "#808080", "#fafad2"}

	for _, s := range samples {
		bg, err := ThemeColor(nil, RoleBackground, s, cfg)
		if err != nil {
			t.Fatalf("ThemeColor failed: %v", err)
		}
		c, _ := ParseColor(bg)
		if l := RGBToHSL(c).L; l > MaxBackgroundLightness+0.01 {
			t.Errorf("background %s -> %s too light: %.3f", s, bg, l)
		}
	}

	for _, s := range []string{"#000000", "#111111", "#333366", "#0000ff", "#800000"} {
		fg, err := ThemeColor(nil, RoleForeground, s, cfg)
		if err != nil {
			t.Fatalf("ThemeColor failed: %v", err)
		}
		c, _ := ParseColor(fg)
		if l := RGBToHSL(c).L; l < MinForegroundLightness-0.01 {
			t.Errorf("foreground %s -> %s too dark: %.3f", s, fg, l)
		}
	}
}

func TestRemapFunctions(t *testing.T) {
	bgPole := HSLA{H: 200, S: 0.06, L: 0.1, A: 1}
	fgPole := HSLA{H: 40, S: 0.1, L: 0.9, A: 1}

	// 暗色且非中性的背景保持色相
	got := remapBackground(HSLA{H: 10, S: 0.8, L: 0.25, A: 1}, bgPole)
	if got.H != 10 || math.Abs(got.L-0.2) > 1e-9 {
		t.Errorf("unexpected background %+v", got)
	}

	// 黄色向绿偏移
	got = remapBackground(HSLA{H: 90, S: 0.8, L: 0.75, A: 1}, bgPole)
	if math.Abs(got.H-82.5) > 1e-9 {
		t.Errorf("unexpected hue shift %+v", got)
	}

	// 蓝色前景色相压缩到 205..220
	got = remapForeground(HSLA{H: 245 - 1e-9, S: 0.9, L: 0.3, A: 1}, fgPole)
	if got.H < 205 || got.H > 220 {
		t.Errorf("blue hue not compressed: %+v", got)
	}

	// 边框亮度 0..1 映射到 0.5..0.2
	if got = remapBorder(HSLA{L: 0, A: 1}, fgPole, bgPole); math.Abs(got.L-0.5) > 1e-9 || got.H != fgPole.H {
		t.Errorf("unexpected border %+v", got)
	}
	if got = remapBorder(HSLA{L: 1, A: 1}, fgPole, bgPole); math.Abs(got.L-0.2) > 1e-9 || got.H != bgPole.H {
		t.Errorf("unexpected border %+v", got)
	}

	// light-scheme 两端
	if got = remapLightScheme(HSLA{L: 0, A: 1}, fgPole, bgPole); got.L != fgPole.L {
		t.Errorf("unexpected light-scheme %+v", got)
	}
	if got = remapLightScheme(HSLA{L: 1, A: 1}, fgPole, bgPole); math.Abs(got.L-bgPole.L) > 1e-9 {
		t.Errorf("unexpected light-scheme %+v", got)
	}
}

func TestThemeColor_Errors(t *testing.T) {
	_, err := ThemeColor(nil, RoleBackground, "not-a-color", DefaultFilterConfig())
	var perr *ColorParseError
	if !errors.As(err, &perr) {
		t.Errorf("expected ColorParseError, got %v", err)
	}

	cfg := DefaultFilterConfig()
	cfg.DarkSchemeBackgroundColor = "nope"
	if _, err := ThemeColor(nil, RoleBackground, "#fff", cfg); !errors.As(err, &perr) {
		t.Errorf("expected ColorParseError for bad pole, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	for r := RoleBackground; r <= RoleFilter; r++ {
		got, ok := ParseRole(r.String())
		if !ok || got != r {
			t.Errorf("ParseRole(%q) = %v, %v", r.String(), got, ok)
		}
	}
	if r, ok := ParseRole("text"); !ok || r != RoleForeground {
		t.Errorf("ParseRole(text) = %v, %v", r, ok)
	}
	if _, ok := ParseRole("nope"); ok {
		t.Errorf("ParseRole(nope) should fail")
	}
}

func TestCache(t *testing.T) {
	cache := NewCache()
	cfg := DefaultFilterConfig()

	a, _ := ThemeColor(cache, RoleBackground, "#ffffff", cfg)
	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", cache.Len())
	}
	b, _ := ThemeColor(cache, RoleBackground, "#ffffff", cfg)
	if a != b || cache.Len() != 1 {
		t.Errorf("cache hit should not add entries: %q %q %d", a, b, cache.Len())
	}

	// 同一颜色不同角色是不同的键
	ThemeColor(cache, RoleForeground, "#ffffff", cfg)
	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}

	// 配置变化导致未命中
	cfg.Brightness = 90
	c, _ := ThemeColor(cache, RoleBackground, "#ffffff", cfg)
	if cache.Len() != 3 || c == a {
		t.Errorf("config change should miss: %q %d", c, cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear failed: %d", cache.Len())
	}
}

func TestCache_ConfigFields(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		in     string
		mutate func(*FilterConfig)
	}{
		{"mode", RoleBackground, "#ffffff", func(c *FilterConfig) { c.Mode = ModeLight }},
		{"brightness", RoleBackground, "#ffffff", func(c *FilterConfig) { c.Brightness = 90 }},
		{"contrast", RoleBackground, "#ffffff", func(c *FilterConfig) { c.Contrast = 80 }},
		{"grayscale", RoleBackground, "#ffffff", func(c *FilterConfig) { c.Grayscale = 100 }},
		{"sepia", RoleBackground, "#ffffff", func(c *FilterConfig) { c.Sepia = 100 }},
		{"dark scheme background", RoleBackground, "#ffffff", func(c *FilterConfig) { c.DarkSchemeBackgroundColor = "#000000" }},
		{"dark scheme text", RoleForeground, "#000000", func(c *FilterConfig) { c.DarkSchemeTextColor = "#ffffff" }},
		{"light scheme background", RoleLightScheme, "#ffffff", func(c *FilterConfig) { c.LightSchemeBackgroundColor = "#ffffff" }},
		{"light scheme text", RoleLightScheme, "#000000", func(c *FilterConfig) { c.LightSchemeTextColor = "#000000" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cache := NewCache()
			cfg := DefaultFilterConfig()
			warm, err := ThemeColor(cache, c.role, c.in, cfg)
			if err != nil {
				t.Fatalf("ThemeColor failed: %v", err)
			}

			changed := cfg
			c.mutate(&changed)
			got, err := ThemeColor(cache, c.role, c.in, changed)
			if err != nil {
				t.Fatalf("ThemeColor failed: %v", err)
			}
			if cache.Len() != 2 {
				t.Errorf("expected a cache miss, got %d entries", cache.Len())
			}
			if got == warm {
				t.Errorf("stale result %q after changing %s", got, c.name)
			}
			want, _ := ThemeColor(nil, c.role, c.in, changed)
			if got != want {
				t.Errorf("cached result %q, uncached %q", got, want)
			}
		})
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache()
	cfg := DefaultFilterConfig()
	want, _ := ThemeColor(nil, RoleForeground, "#336699", cfg)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := ThemeColor(cache, RoleForeground, "#336699", cfg)
				if err != nil || got != want {
					t.Errorf("got %q, %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSession(t *testing.T) {
	if _, err := NewSession(FilterConfig{}); err == nil {
		t.Fatal("expected invalid config error")
	}

	s, err := NewSession(DefaultFilterConfig())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	dark, _ := s.Color(RoleBackground, "#ffffff")
	if dark != "#181a1b" {
		t.Errorf("unexpected dark bg %q", dark)
	}

	// 无变化不清空
	cleared, err := s.SetConfig(DefaultFilterConfig())
	if err != nil || cleared {
		t.Errorf("SetConfig same config: %v %v", cleared, err)
	}
	if s.Cache().Len() != 1 {
		t.Errorf("cache should be kept")
	}

	cfg := DefaultFilterConfig()
	cfg.Mode = ModeLight
	cleared, err = s.SetConfig(cfg)
	if err != nil || !cleared {
		t.Errorf("SetConfig changed config: %v %v", cleared, err)
	}
	if s.Cache().Len() != 0 {
		t.Errorf("cache should be cleared")
	}
	light, _ := s.Color(RoleBackground, "#ffffff")
	if light != "#dcdad7" {
		t.Errorf("unexpected light bg %q", light)
	}
	if s.Config().Mode != ModeLight {
		t.Errorf("config not updated")
	}

	bad := cfg
	bad.Sepia = 200
	if _, err := s.SetConfig(bad); err == nil {
		t.Errorf("expected validation error")
	}
}
