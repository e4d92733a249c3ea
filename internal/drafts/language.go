package drafts

import "strings"

type Language string

const (
	Python Language = "python"
	CPP    Language = "cpp"
	Java   Language = "java"
)

// Languages lists the supported languages in menu order. The first entry is
// the fallback for unknown values.
var Languages = []Language{Python, CPP, Java}

func ParseLanguage(raw string) Language {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "python", "python3", "py":
		return Python
	case "cpp", "c++", "cxx":
		return CPP
	case "java":
		return Java
	default:
		return Languages[0]
	}
}

// EditorMode is the syntax-highlighting mode name an editor uses for l.
func (l Language) EditorMode() string {
	switch l {
	case CPP:
		return "text/x-c++src"
	case Java:
		return "text/x-java"
	default:
		return "python"
	}
}

// Lexer is the highlighter lexer name used for read-only rendering.
func (l Language) Lexer() string {
	switch l {
	case CPP:
		return "cpp"
	case Java:
		return "java"
	default:
		return "python"
	}
}

func (l Language) Label() string {
	switch l {
	case CPP:
		return "C++"
	case Java:
		return "Java"
	default:
		return "Python"
	}
}

// Next cycles to the following language in menu order.
func (l Language) Next() Language {
	for i, lang := range Languages {
		if lang == l {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return Languages[0]
}
