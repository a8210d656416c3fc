package inspector

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	moduleRe   = regexp.MustCompile(`^\s*module\s+(\w+)`)
	constantRe = regexp.MustCompile(`^\s*(_[A-Za-z0-9_]+)\s*=`)
	functionRe = regexp.MustCompile(`^\s*(?:function|(_[A-Za-z0-9_]+)\s*=\s*function)\s+(\w+)?`)
)

// Inspector provides functionality to inspect OpenSCAD code and extract
// module, function and internal constant definitions without parsing the
// full grammar. Nesting is handled with plain depth counters over braces,
// brackets and parentheses.
type Inspector struct {
	config *Config
}

// NewInspector creates a new Inspector with the provided configuration
func NewInspector(config *Config) *Inspector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Inspector{config: config}
}

// InspectSource scans OpenSCAD source and returns every top-level module,
// function and underscore constant definition, verbatim and in source order.
// Any other top-level statement, including bare invocations, is left out.
func (i *Inspector) InspectSource(src []byte) ([]*Definition, error) {
	definitions := i.extract(string(src))
	if i.config.HashContent {
		for _, def := range definitions {
			hash, err := def.HashContent()
			if err != nil {
				return nil, fmt.Errorf("failed to hash definition %v: %w", def.Name, err)
			}
			def.Hash = hash
		}
	}
	return definitions, nil
}

// InspectFile reads an OpenSCAD source file and extracts its definitions
func (i *Inspector) InspectFile(filename string) ([]*Definition, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return i.InspectSource(src)
}

func (i *Inspector) extract(src string) []*Definition {
	var definitions []*Definition
	lines := splitLines(src)
	// a trailing empty line guarantees a definition ending at EOF still closes
	lines = append(lines, "")

	idx := 0
	for idx < len(lines) {
		line := strings.TrimSpace(lines[idx])

		if line == "" || strings.HasPrefix(line, "//") {
			idx++
			continue
		}

		if strings.HasPrefix(line, "/*") {
			for idx < len(lines) && !strings.Contains(lines[idx], "*/") {
				idx++
			}
			idx++ // move past the closing */
			continue
		}

		if match := moduleRe.FindStringSubmatch(line); match != nil {
			def, next := scanModule(lines, idx, match[1])
			definitions = append(definitions, def)
			idx = next
			continue
		}

		if match := constantRe.FindStringSubmatch(line); match != nil {
			def, next := scanConstant(lines, idx, match[1])
			if i.config.IncludeConstants {
				definitions = append(definitions, def)
			}
			idx = next
			continue
		}

		if match := functionRe.FindStringSubmatch(line); match != nil {
			def, next := scanFunction(lines, idx, match[2])
			if def != nil {
				definitions = append(definitions, def)
			}
			idx = next
			continue
		}

		// not a definition: an invocation or other executable statement
		idx++
	}
	return definitions
}

// scanModule consumes a module definition starting at start. Brace depth is
// counted from the first line carrying an opening brace; the definition ends
// on the line where depth returns to zero. An unterminated body extends to
// the end of input.
func scanModule(lines []string, start int, name string) (*Definition, int) {
	depth := 0
	foundOpening := false
	idx := start
	for idx < len(lines) {
		current := lines[idx]
		if !foundOpening && strings.Contains(current, "{") {
			foundOpening = true
			depth = 0
		}
		if foundOpening {
			depth += strings.Count(current, "{") - strings.Count(current, "}")
		}
		idx++
		if foundOpening && depth == 0 {
			break
		}
	}
	def := &Definition{Kind: KindModule, Name: name, Text: strings.Join(lines[start:idx], "\n")}
	return def, idx
}

// scanConstant consumes an underscore constant assignment. A single-line
// assignment ends at its semicolon; otherwise bracket and parenthesis depth
// is tracked until it returns to zero on a line carrying the terminator.
func scanConstant(lines []string, start int, name string) (*Definition, int) {
	idx := start
	content := lines[idx]
	if strings.Contains(content, ";") {
		return &Definition{Kind: KindConstant, Name: name, Text: content}, idx + 1
	}
	depth := bracketDepth(content)
	idx++
	for idx < len(lines) && (depth > 0 || !strings.Contains(content, ";")) {
		current := lines[idx]
		content += "\n" + current
		depth += bracketDepth(current)
		if depth == 0 && strings.Contains(current, ";") {
			break
		}
		idx++
	}
	idx++ // move past the last line of the assignment
	return &Definition{Kind: KindConstant, Name: name, Text: content}, idx
}

// scanFunction consumes a function definition. Depth is tracked per character
// over (, [ and { and the definition ends at a top-level semicolon seen on or
// after the line carrying the = sign. A function with no terminator before
// end of input emits nothing.
func scanFunction(lines []string, start int, name string) (*Definition, int) {
	var content strings.Builder
	depth := 0
	inDefinition := false
	idx := start
	for idx < len(lines) {
		current := lines[idx]
		content.WriteString(current)
		content.WriteString("\n")
		if !inDefinition && strings.Contains(current, "=") {
			inDefinition = true
		}
		terminated := false
		for _, ch := range current {
			switch ch {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			case ';':
				if depth == 0 && inDefinition {
					terminated = true
				}
			}
			if terminated {
				break
			}
		}
		if terminated {
			return &Definition{Kind: KindFunction, Name: name, Text: content.String()}, idx + 1
		}
		idx++
	}
	return nil, idx
}

func bracketDepth(line string) int {
	return strings.Count(line, "[") + strings.Count(line, "(") - strings.Count(line, "]") - strings.Count(line, ")")
}

func splitLines(src string) []string {
	lines := strings.Split(src, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
