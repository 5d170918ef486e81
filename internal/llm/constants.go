package llm

import (
	"path/filepath"
	"strings"
)

const (
	extensionGo    = ".go"
	extensionJS    = ".js"
	extensionTS    = ".ts"
	extensionTSX   = ".tsx"
	extensionJSX   = ".jsx"
	extensionPy    = ".py"
	extensionJava  = ".java"
	extensionC     = ".c"
	extensionCpp   = ".cpp"
	extensionH     = ".h"
	extensionHPP   = ".hpp"
	extensionRS    = ".rs"
	extensionRB    = ".rb"
	extensionPHP   = ".php"
	extensionCS    = ".cs"
	extensionSwift = ".swift"
	extensionKT    = ".kt"
	extensionScala = ".scala"
)

// IsCodeExtension reports whether ext (with leading dot) is a recognised
// source-code extension. Batch reviews prefer these files.
func IsCodeExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case extensionGo, extensionJS, extensionTS, extensionTSX, extensionJSX,
		extensionPy, extensionJava, extensionC, extensionCpp, extensionH,
		extensionHPP, extensionRS, extensionRB, extensionPHP, extensionCS,
		extensionSwift, extensionKT, extensionScala:
		return true
	default:
		return false
	}
}

// LanguageForFile returns the fence language tag for filename, or the bare
// extension when it is not a recognised one.
func LanguageForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case extensionGo:
		return "go"
	case extensionJS, extensionJSX:
		return "javascript"
	case extensionTS, extensionTSX:
		return "typescript"
	case extensionPy:
		return "python"
	case extensionJava:
		return "java"
	case extensionC, extensionH:
		return "c"
	case extensionCpp, extensionHPP:
		return "cpp"
	case extensionRS:
		return "rust"
	case extensionRB:
		return "ruby"
	case extensionPHP:
		return "php"
	case extensionCS:
		return "csharp"
	case extensionSwift:
		return "swift"
	case extensionKT:
		return "kotlin"
	case extensionScala:
		return "scala"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}
