package flattener

import (
	"fmt"
	"regexp"
)

// DirectiveKind distinguishes the two OpenSCAD cross-file reference statements
type DirectiveKind string

const (
	// KindInclude splices the referenced file in its entirety
	KindInclude DirectiveKind = "include"
	// KindUse imports only the reusable definitions of the referenced file
	KindUse DirectiveKind = "use"
)

// a reference must start a line (not valid if inside a block) and carry the
// .scad extension
var directivePattern = regexp.MustCompile(`(?m)^\s*(use|include)\s*<([^>]+\.scad)>`)

// Directive is a single use/include occurrence found in a document
type Directive struct {
	Kind DirectiveKind // include or use
	Path string        // relative file reference between the angle brackets
}

// Raw returns the canonical statement text used for replacement
func (d *Directive) Raw() string {
	return fmt.Sprintf("%s <%s>", d.Kind, d.Path)
}

// findDirectives returns every use/include statement of a document in source
// order. Both kinds are matched by the one pattern; callers dispatch by kind
// per occurrence.
func findDirectives(content string) []*Directive {
	matches := directivePattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	directives := make([]*Directive, 0, len(matches))
	for _, match := range matches {
		directives = append(directives, &Directive{
			Kind: DirectiveKind(match[1]),
			Path: match[2],
		})
	}
	return directives
}
