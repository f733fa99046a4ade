package bttdarkmode

import "strconv"

// Command 规则表文本格式中的命令（如 INVERT、NO INVERT、CSS）。
type Command int

const (
	CommandUnknown Command = iota
	CommandInvert
	CommandNoInvert
	CommandRemoveBG
	CommandCSS
	CommandIgnoreInlineStyle
	CommandIgnoreImageAnalysis
	CommandNoCommon
	CommandNeutralBG
	CommandNeutralBGActive
	CommandNeutralText
	CommandNeutralTextActive
	CommandNeutralBorder
	CommandRedBG
	CommandRedBGActive
	CommandRedText
	CommandRedTextActive
	CommandRedBorder
	CommandGreenBG
	CommandGreenBGActive
	CommandGreenText
	CommandGreenTextActive
	CommandGreenBorder
	CommandBlueBG
	CommandBlueBGActive
	CommandBlueText
	CommandBlueTextActive
	CommandBlueBorder
	CommandFadeBG
	CommandFadeText
	CommandTransparentBG
	CommandNoImage

	commandCount
)

var commandNames = [commandCount]string{
	CommandUnknown:             "",
	CommandInvert:              "INVERT",
	CommandNoInvert:            "NO INVERT",
	CommandRemoveBG:            "REMOVE BG",
	CommandCSS:                 "CSS",
	CommandIgnoreInlineStyle:   "IGNORE INLINE STYLE",
	CommandIgnoreImageAnalysis: "IGNORE IMAGE ANALYSIS",
	CommandNoCommon:            "NO COMMON",
	CommandNeutralBG:           "NEUTRAL BG",
	CommandNeutralBGActive:     "NEUTRAL BG ACTIVE",
	CommandNeutralText:         "NEUTRAL TEXT",
	CommandNeutralTextActive:   "NEUTRAL TEXT ACTIVE",
	CommandNeutralBorder:       "NEUTRAL BORDER",
	CommandRedBG:               "RED BG",
	CommandRedBGActive:         "RED BG ACTIVE",
	CommandRedText:             "RED TEXT",
	CommandRedTextActive:       "RED TEXT ACTIVE",
	CommandRedBorder:           "RED BORDER",
	CommandGreenBG:             "GREEN BG",
	CommandGreenBGActive:       "GREEN BG ACTIVE",
	CommandGreenText:           "GREEN TEXT",
	CommandGreenTextActive:     "GREEN TEXT ACTIVE",
	CommandGreenBorder:         "GREEN BORDER",
	CommandBlueBG:              "BLUE BG",
	CommandBlueBGActive:        "BLUE BG ACTIVE",
	CommandBlueText:            "BLUE TEXT",
	CommandBlueTextActive:      "BLUE TEXT ACTIVE",
	CommandBlueBorder:          "BLUE BORDER",
	CommandFadeBG:              "FADE BG",
	CommandFadeText:            "FADE TEXT",
	CommandTransparentBG:       "TRANSPARENT BG",
	CommandNoImage:             "NO IMAGE",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, commandCount)
	for c := CommandUnknown + 1; c < commandCount; c++ {
		m[commandNames[c]] = c
	}
	return m
}()

func (c Command) String() string {
	if c > CommandUnknown && c < commandCount {
		return commandNames[c]
	}
	return "COMMAND(" + strconv.Itoa(int(c)) + ")"
}

// LookupCommand 按文本查找命令，未知命令返回 false。
func LookupCommand(name string) (Command, bool) {
	c, ok := commandsByName[name]
	return c, ok
}

// ValueKind 命令值的形态。
type ValueKind int

const (
	ValueList ValueKind = iota // 每行一项
	ValueText                  // 整段文本（去首尾空白）
	ValueFlag                  // 无参数，出现即为 true
)

// Kind 返回命令值的形态。
func (c Command) Kind() ValueKind {
	switch c {
	case CommandCSS:
		return ValueText
	case CommandNoCommon:
		return ValueFlag
	}
	return ValueList
}

// MergeMode 通用规则与命中规则合并某字段的方式。
type MergeMode int

const (
	// MergeDefault 列表拼接（通用规则在前），文本以换行拼接非空部分，标志取命中规则的值。
	MergeDefault MergeMode = iota
	// MergeReplace 直接使用命中规则的值。
	MergeReplace
)

// Schema 描述一种规则表：接受哪些命令（按格式化输出顺序）以及合并策略。
type Schema struct {
	Name     string
	Commands []Command
	Merge    map[Command]MergeMode
	// HonorNoCommon 命中规则带 NO COMMON 时不合并通用规则。
	HonorNoCommon bool
}

func (s Schema) accepts(c Command) bool {
	for _, x := range s.Commands {
		if x == c {
			return true
		}
	}
	return false
}

func (s Schema) mergeMode(c Command) MergeMode {
	if m, ok := s.Merge[c]; ok {
		return m
	}
	return MergeDefault
}

// 内置的三种规则表。
var (
	InversionFixes = Schema{
		Name: "inversion-fixes",
		Commands: []Command{
			CommandInvert,
			CommandNoInvert,
			CommandRemoveBG,
			CommandCSS,
		},
	}

	DynamicThemeFixes = Schema{
		Name: "dynamic-theme-fixes",
		Commands: []Command{
			CommandInvert,
			CommandCSS,
			CommandIgnoreInlineStyle,
			CommandIgnoreImageAnalysis,
		},
	}

	StaticThemes = Schema{
		Name: "static-themes",
		Commands: []Command{
			CommandNoCommon,
			CommandNeutralBG,
			CommandNeutralBGActive,
			CommandNeutralText,
			CommandNeutralTextActive,
			CommandNeutralBorder,
			CommandRedBG,
			CommandRedBGActive,
			CommandRedText,
			CommandRedTextActive,
			CommandRedBorder,
			CommandGreenBG,
			CommandGreenBGActive,
			CommandGreenText,
			CommandGreenTextActive,
			CommandGreenBorder,
			CommandBlueBG,
			CommandBlueBGActive,
			CommandBlueText,
			CommandBlueTextActive,
			CommandBlueBorder,
			CommandFadeBG,
			CommandFadeText,
			CommandTransparentBG,
			CommandNoImage,
			CommandInvert,
		},
		HonorNoCommon: true,
	}
)

// SchemaByName 按名称查找内置 Schema。
func SchemaByName(name string) (Schema, bool) {
	for _, s := range []Schema{InversionFixes, DynamicThemeFixes, StaticThemes} {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}
