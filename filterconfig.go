package bttdarkmode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Mode 主题模式。
type Mode int

const (
	ModeLight Mode = 0
	ModeDark  Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeLight:
		return "light"
	case ModeDark:
		return "dark"
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// ParseMode 按名称（"dark"/"light"）解析 Mode。
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "light":
		return ModeLight, true
	case "dark":
		return ModeDark, true
	}
	return 0, false
}

// MarshalText 输出模式名称，未知模式输出数字。
func (m Mode) MarshalText() ([]byte, error) {
	if m == ModeLight || m == ModeDark {
		return []byte(m.String()), nil
	}
	return []byte(strconv.Itoa(int(m))), nil
}

// UnmarshalText 接受模式名称（"dark"/"light"）或数字。数值范围由 Validate 检查。
func (m *Mode) UnmarshalText(text []byte) error {
	if v, ok := ParseMode(string(text)); ok {
		*m = v
		return nil
	}
	n, err := strconv.Atoi(string(text))
	if err != nil {
		return fmt.Errorf("unknown mode %q", text)
	}
	*m = Mode(n)
	return nil
}

// UnmarshalJSON 同时接受 JSON 字符串与数字。
func (m *Mode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		return m.UnmarshalText([]byte(name))
	}
	return m.UnmarshalText(data)
}

// FilterConfig 颜色重映射所需的全部配置。
// Brightness/Contrast 为百分比，100 为单位值；Grayscale/Sepia 为百分比，0 为单位值。
// 四个锚点颜色中，Dark 模式使用 DarkScheme*，Light 模式使用 LightScheme*。
type FilterConfig struct {
	Mode       Mode `json:"mode"       toml:"mode"       mapstructure:"mode"`
	Brightness int  `json:"brightness" toml:"brightness" mapstructure:"brightness"`
	Contrast   int  `json:"contrast"   toml:"contrast"   mapstructure:"contrast"`
	Grayscale  int  `json:"grayscale"  toml:"grayscale"  mapstructure:"grayscale"`
	Sepia      int  `json:"sepia"      toml:"sepia"      mapstructure:"sepia"`

	DarkSchemeBackgroundColor  string `json:"darkSchemeBackgroundColor"  toml:"dark_scheme_background_color"  mapstructure:"dark_scheme_background_color"`
	DarkSchemeTextColor        string `json:"darkSchemeTextColor"        toml:"dark_scheme_text_color"        mapstructure:"dark_scheme_text_color"`
	LightSchemeBackgroundColor string `json:"lightSchemeBackgroundColor" toml:"light_scheme_background_color" mapstructure:"light_scheme_background_color"`
	LightSchemeTextColor       string `json:"lightSchemeTextColor"       toml:"light_scheme_text_color"       mapstructure:"light_scheme_text_color"`
}

// DefaultFilterConfig 返回默认配置（深色模式，无额外滤镜）。
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Mode:                       ModeDark,
		Brightness:                 100,
		Contrast:                   100,
		Grayscale:                  0,
		Sepia:                      0,
		DarkSchemeBackgroundColor:  "#181a1b",
		DarkSchemeTextColor:        "#e8e6e3",
		LightSchemeBackgroundColor: "#dcdad7",
		LightSchemeTextColor:       "#181a1b",
	}
}

// BackgroundPole 当前模式下的背景锚点颜色。
func (c FilterConfig) BackgroundPole() string {
	if c.Mode == ModeDark {
		return c.DarkSchemeBackgroundColor
	}
	return c.LightSchemeBackgroundColor
}

// ForegroundPole 当前模式下的前景锚点颜色。
func (c FilterConfig) ForegroundPole() string {
	if c.Mode == ModeDark {
		return c.DarkSchemeTextColor
	}
	return c.LightSchemeTextColor
}

// Validate 检查百分比范围与锚点颜色是否可解析。
func (c FilterConfig) Validate() error {
	if c.Mode != ModeLight && c.Mode != ModeDark {
		return &InvalidFilterConfigError{Field: "mode", Value: int(c.Mode)}
	}
	if c.Brightness <= 0 {
		return &InvalidFilterConfigError{Field: "brightness", Value: c.Brightness}
	}
	if c.Contrast <= 0 {
		return &InvalidFilterConfigError{Field: "contrast", Value: c.Contrast}
	}
	if c.Grayscale < 0 || c.Grayscale > 100 {
		return &InvalidFilterConfigError{Field: "grayscale", Value: c.Grayscale}
	}
	if c.Sepia < 0 || c.Sepia > 100 {
		return &InvalidFilterConfigError{Field: "sepia", Value: c.Sepia}
	}
	poles := []struct {
		field string
		value string
	}{
		{"darkSchemeBackgroundColor", c.DarkSchemeBackgroundColor},
		{"darkSchemeTextColor", c.DarkSchemeTextColor},
		{"lightSchemeBackgroundColor", c.LightSchemeBackgroundColor},
		{"lightSchemeTextColor", c.LightSchemeTextColor},
	}
	for _, p := range poles {
		if _, err := ParseColor(p.value); err != nil {
			return &InvalidFilterConfigError{Field: p.field, Value: p.value}
		}
	}
	return nil
}

// cacheKey 序列化所有影响颜色结果的字段。
func (c FilterConfig) cacheKey() string {
	return fmt.Sprintf("%d;%d;%d;%d;%d;%s;%s;%s;%s;",
		c.Mode, c.Brightness, c.Contrast, c.Grayscale, c.Sepia,
		c.DarkSchemeBackgroundColor, c.DarkSchemeTextColor,
		c.LightSchemeBackgroundColor, c.LightSchemeTextColor,
	)
}

// ConfigFormat FilterConfig 的编码格式。
type ConfigFormat string

const (
	ConfigFormatJSON ConfigFormat = "json"
	ConfigFormatTOML ConfigFormat = "toml"
)

// DecodeFilterConfig 在默认配置之上解码 data，缺省字段保持默认值，并校验结果。
func DecodeFilterConfig(data []byte, format ConfigFormat) (FilterConfig, error) {
	cfg := DefaultFilterConfig()
	switch format {
	case ConfigFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return FilterConfig{}, fmt.Errorf("decode filter config failed: %w", err)
		}
	case ConfigFormatTOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return FilterConfig{}, fmt.Errorf("decode filter config failed: %w", err)
		}
	default:
		return FilterConfig{}, fmt.Errorf("decode filter config: unsupported format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return FilterConfig{}, err
	}
	return cfg, nil
}
