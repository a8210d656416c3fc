package inspector_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"scadflat/inspector"
)

func TestInspector_InspectSource(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []*inspector.Definition
	}{
		{
			name: "single line module",
			src:  "module box() { cube([1, 1, 1]); }\n",
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "box", Text: "module box() { cube([1, 1, 1]); }"},
			},
		},
		{
			name: "multi line module",
			src: `module box() {
    cube([10, 10, 10]);
}
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "box", Text: "module box() {\n    cube([10, 10, 10]);\n}"},
			},
		},
		{
			name: "module with nested braces",
			src: `module pick(flag) {
    if (flag) {
        cube([5, 5, 5]);
    } else {
        sphere(5);
    }
}
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "pick", Text: "module pick(flag) {\n    if (flag) {\n        cube([5, 5, 5]);\n    } else {\n        sphere(5);\n    }\n}"},
			},
		},
		{
			name: "opening brace on its own line",
			src: `module lid()
{
    cylinder(2, 8, 8);
}
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "lid", Text: "module lid()\n{\n    cylinder(2, 8, 8);\n}"},
			},
		},
		{
			name: "single line function",
			src:  "function double(x) = x * 2;\n",
			want: []*inspector.Definition{
				{Kind: inspector.KindFunction, Name: "double", Text: "function double(x) = x * 2;\n"},
			},
		},
		{
			name: "multi line function with let",
			src: `function volume(a, b, c) =
    let(
        x = a * 2,
        y = b * 3
    )
    x + y + c;
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindFunction, Name: "volume", Text: "function volume(a, b, c) =\n    let(\n        x = a * 2,\n        y = b * 3\n    )\n    x + y + c;\n"},
			},
		},
		{
			name: "single line constant",
			src:  "_PI = 3.14159;\n",
			want: []*inspector.Definition{
				{Kind: inspector.KindConstant, Name: "_PI", Text: "_PI = 3.14159;"},
			},
		},
		{
			name: "multi line constant",
			src: `_SIZES = [
    10,
    20,
];
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindConstant, Name: "_SIZES", Text: "_SIZES = [\n    10,\n    20,\n];"},
			},
		},
		{
			name: "underscore function literal is consumed as constant",
			src:  "_scale = function (x) x * 2;\n",
			want: []*inspector.Definition{
				{Kind: inspector.KindConstant, Name: "_scale", Text: "_scale = function (x) x * 2;"},
			},
		},
		{
			name: "invocations are dropped",
			src: `module box() {
    cube([1, 1, 1]);
}

box();
translate([1, 0, 0]) box();
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "box", Text: "module box() {\n    cube([1, 1, 1]);\n}"},
			},
		},
		{
			name: "line comments skipped",
			src: `// module commented() {
module real() {
}
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "real", Text: "module real() {\n}"},
			},
		},
		{
			name: "block comments skipped",
			src: `/*
module hidden() {
}
*/
module visible() {
}
`,
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "visible", Text: "module visible() {\n}"},
			},
		},
		{
			name: "definition ending at end of input",
			src:  "function last(x) = x + 1;",
			want: []*inspector.Definition{
				{Kind: inspector.KindFunction, Name: "last", Text: "function last(x) = x + 1;\n"},
			},
		},
		{
			name: "unterminated module extends to end of input",
			src:  "module broken() {\n    cube(1);\n",
			want: []*inspector.Definition{
				{Kind: inspector.KindModule, Name: "broken", Text: "module broken() {\n    cube(1);\n"},
			},
		},
		{
			name: "empty input",
			src:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anInspector := inspector.NewInspector(nil)
			got, err := anInspector.InspectSource([]byte(tt.src))
			assert.NoError(t, err)
			assert.EqualValues(t, tt.want, got)
		})
	}
}

func TestInspector_InspectSource_Exhaustive(t *testing.T) {
	src := `// Library header
use <other.scad>

_PI = 3.14159;

module box() {
    cube([10, 10, 10]);
}

/* A block comment
   spanning lines */
function area(r) = _PI * r * r;

_SIZES = [
    1,
    2,
];

module tray() {
    difference() {
        cube([20, 20, 5]);
        translate([2, 2, 1]) cube([16, 16, 5]);
    }
}

function halve(x) =
    x / 2;

// executable statements, must never leak
box();
tray();
echo(area(2));
`
	anInspector := inspector.NewInspector(nil)
	got, err := anInspector.InspectSource([]byte(src))
	assert.NoError(t, err)

	var names []string
	var kinds []inspector.DefinitionKind
	for _, def := range got {
		names = append(names, def.Name)
		kinds = append(kinds, def.Kind)
		assert.NotContains(t, def.Text, "box();")
		assert.NotContains(t, def.Text, "tray();")
		assert.NotContains(t, def.Text, "echo")
	}
	assert.Equal(t, 6, len(got), "expected 2 modules + 2 functions + 2 constants")
	assert.Equal(t, []string{"_PI", "box", "area", "_SIZES", "tray", "halve"}, names)
	assert.Equal(t, []inspector.DefinitionKind{
		inspector.KindConstant,
		inspector.KindModule,
		inspector.KindFunction,
		inspector.KindConstant,
		inspector.KindModule,
		inspector.KindFunction,
	}, kinds)
}

func TestInspector_InspectSource_SkipConstants(t *testing.T) {
	src := "_PI = 3.14159;\nmodule box() {\n}\n"
	anInspector := inspector.NewInspector(&inspector.Config{IncludeConstants: false})
	got, err := anInspector.InspectSource([]byte(src))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, inspector.KindModule, got[0].Kind)
}

func TestInspector_InspectSource_HashContent(t *testing.T) {
	src := "module box() {\n}\n\nmodule tray() {\n}\n"
	anInspector := inspector.NewInspector(&inspector.Config{IncludeConstants: true, HashContent: true})
	got, err := anInspector.InspectSource([]byte(src))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(got))
	assert.NotZero(t, got[0].Hash)
	assert.NotZero(t, got[1].Hash)
	assert.NotEqual(t, got[0].Hash, got[1].Hash)
}

func TestInspector_InspectFile(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "lib.scad")
	err := os.WriteFile(location, []byte("function id(x) = x;\n"), 0o644)
	assert.NoError(t, err)

	anInspector := inspector.NewInspector(nil)
	got, err := anInspector.InspectFile(location)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "id", got[0].Name)

	_, err = anInspector.InspectFile(filepath.Join(dir, "missing.scad"))
	assert.Error(t, err)
}
