package model

import "strings"

// FileCategory is a coarse grouping of extensions used to colour the
// type breakdown.
type FileCategory int

const (
	CatOther FileCategory = iota
	CatMedia
	CatCode
	CatArchive
	CatDocument
	CatSystem
	CatExecutable
)

// CategoryName returns the display name for a category.
func CategoryName(cat FileCategory) string {
	switch cat {
	case CatMedia:
		return "Media"
	case CatCode:
		return "Code"
	case CatArchive:
		return "Archives"
	case CatDocument:
		return "Documents"
	case CatSystem:
		return "System"
	case CatExecutable:
		return "Executables"
	default:
		return "Other"
	}
}

// CategoryColor returns the hex colour used for a category.
func CategoryColor(cat FileCategory) string {
	switch cat {
	case CatMedia:
		return "#E06C75"
	case CatCode:
		return "#61AFEF"
	case CatArchive:
		return "#E5C07B"
	case CatDocument:
		return "#98C379"
	case CatSystem:
		return "#C678DD"
	case CatExecutable:
		return "#D19A66"
	default:
		return "#ABB2BF"
	}
}

var categoryExts = map[FileCategory][]string{
	CatMedia: {
		"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "ico", "tiff", "tif",
		"psd", "raw", "cr2", "nef", "heic", "heif", "avif",
		"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm", "m4v", "mpg", "mpeg",
		"mp3", "flac", "wav", "aac", "ogg", "m4a", "opus",
	},
	CatCode: {
		"go", "py", "js", "jsx", "ts", "tsx", "rs", "c", "cpp", "cc", "h", "hpp",
		"java", "kt", "swift", "rb", "php", "cs", "scala", "lua", "dart", "html",
		"css", "scss", "sql", "sh", "bash", "zsh", "ps1", "zig",
		"json", "yaml", "yml", "toml", "xml", "proto",
	},
	CatArchive: {
		"zip", "tar", "gz", "tgz", "bz2", "xz", "zst", "rar", "7z", "iso", "dmg",
		"deb", "rpm", "jar", "war",
	},
	CatDocument: {
		"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "rtf",
		"txt", "md", "tex", "csv", "epub",
	},
	CatSystem: {
		"log", "bak", "tmp", "swp", "pid", "lock", "cache", "db", "sqlite",
		"ini", "cfg", "conf", "dll", "dylib", "so",
	},
	CatExecutable: {
		"exe", "msi", "bin", "wasm", "pyc", "class", "o", "a",
	},
}

var extCategory = func() map[string]FileCategory {
	m := make(map[string]FileCategory)
	for cat, exts := range categoryExts {
		for _, ext := range exts {
			m[ext] = cat
		}
	}
	return m
}()

// ClassifyExt returns the category for an extension as produced by
// Extension. Matching is case-insensitive.
func ClassifyExt(ext string) FileCategory {
	if cat, ok := extCategory[strings.ToLower(ext)]; ok {
		return cat
	}
	return CatOther
}

// Extension returns the text after the last '.' of the final path element,
// or "" when the name has no dot. Case is preserved.
func Extension(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		switch name[i] {
		case '.':
			return name[i+1:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}
