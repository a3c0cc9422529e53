package util

import (
	"strings"

	"github.com/sadopc/birdseye/internal/model"
)

// DirIcon returns an icon for a directory name.
func DirIcon(name string) string {
	if icon, ok := dirIcons[strings.ToLower(name)]; ok {
		return icon
	}
	return "📁"
}

// CategoryIcon returns an icon for a file category.
func CategoryIcon(cat model.FileCategory) string {
	switch cat {
	case model.CatMedia:
		return "🎬"
	case model.CatCode:
		return "💻"
	case model.CatArchive:
		return "📦"
	case model.CatDocument:
		return "📝"
	case model.CatSystem:
		return "⚙️"
	case model.CatExecutable:
		return "⚡"
	default:
		return "📄"
	}
}

// FileIcon returns the icon for a file by its extension.
func FileIcon(name string) string {
	return CategoryIcon(model.ClassifyExt(model.Extension(name)))
}

var dirIcons = map[string]string{
	".git":         "🔀",
	"node_modules": "📦",
	"vendor":       "📦",
	"build":        "🔨",
	"target":       "🎯",
	"src":          "💻",
	"docs":         "📝",
	"downloads":    "📥",
	"videos":       "🎬",
	"music":        "🎵",
	"pictures":     "🖼️",
	"cache":        "💾",
	".cache":       "💾",
	"tmp":          "🕐",
}
