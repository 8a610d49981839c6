package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/groundwork/internal/facts"
)

func store(t *testing.T, fs ...facts.Fact) *facts.Store {
	t.Helper()
	s := facts.NewStore()
	for _, f := range fs {
		if f.Confidence == facts.Default {
			f.Confidence = facts.High
		}
		_, err := s.Propose(f)
		require.NoError(t, err)
	}
	s.Freeze()
	return s
}

func testSchema(t *testing.T) *facts.Schema {
	t.Helper()
	sch, err := facts.NewSchema(
		facts.KeySpec{Key: "commands.test", Kind: facts.KindString},
		facts.KeySpec{Key: "commands.build", Kind: facts.KindString},
		facts.KeySpec{Key: "project.name", Kind: facts.KindString},
		facts.KeySpec{Key: "framework.all", Kind: facts.KindList},
		facts.KeySpec{Key: "tools.*.available", Kind: facts.KindBool},
	)
	require.NoError(t, err)
	return sch
}

func TestRenderPlaceholderVerbatim(t *testing.T) {
	tpl, err := Parse("guide", "Run `{{commands.test}}` before pushing.\n", testSchema(t))
	require.NoError(t, err)

	res := tpl.Render(store(t, facts.Fact{Key: "commands.test", Value: facts.String("run-tests"), Source: "package.json"}))
	assert.Equal(t, "Run `run-tests` before pushing.\n", res.Content)
	assert.Empty(t, res.Unresolved)
}

func TestRenderValueKinds(t *testing.T) {
	tpl := MustParse("kinds", "{{ framework.all }} / {{ tools.git.available }}", nil)
	res := tpl.Render(store(t,
		facts.Fact{Key: "framework.all", Value: facts.List("react", "vite")},
		facts.Fact{Key: "tools.git.available", Value: facts.Bool(false)},
	))
	assert.Equal(t, "react, vite / false", res.Content)
}

func TestRenderDefaultsAndUnresolved(t *testing.T) {
	tpl := MustParse("defaults", `name={{ project.name | "unnamed" }} build={{ commands.build }} again={{ commands.build }}`, nil)
	res := tpl.Render(store(t))
	assert.Equal(t, "name=unnamed build=[[UNRESOLVED:commands.build]] again=[[UNRESOLVED:commands.build]]", res.Content)
	assert.Equal(t, []string{"commands.build"}, res.Unresolved)
	assert.True(t, UnresolvedPattern.MatchString(res.Content))
}

func TestRenderNullUsesDefault(t *testing.T) {
	tpl := MustParse("null", `{{ project.name | "x" }}`, nil)
	res := tpl.Render(store(t, facts.Fact{Key: "project.name", Value: facts.Null()}))
	assert.Equal(t, "x", res.Content)
}

func TestRenderConditionals(t *testing.T) {
	src := "# Guide\n" +
		"{{ if commands.test }}\n" +
		"Test: {{ commands.test }}\n" +
		"  {{ if tools.git.available }}\n" +
		"Git is available.\n" +
		"  {{ else }}\n" +
		"Install git.\n" +
		"  {{ end }}\n" +
		"{{ else }}\n" +
		"No tests.\n" +
		"{{ end }}\n" +
		"Bye\n"
	tpl, err := Parse("cond", src, testSchema(t))
	require.NoError(t, err)

	res := tpl.Render(store(t,
		facts.Fact{Key: "commands.test", Value: facts.String("go test ./...")},
		facts.Fact{Key: "tools.git.available", Value: facts.Bool(true)},
	))
	assert.Equal(t, "# Guide\nTest: go test ./...\nGit is available.\nBye\n", res.Content)

	res = tpl.Render(store(t, facts.Fact{Key: "commands.test", Value: facts.String("make test")}))
	assert.Equal(t, "# Guide\nTest: make test\nInstall git.\nBye\n", res.Content)

	res = tpl.Render(store(t))
	assert.Equal(t, "# Guide\nNo tests.\nBye\n", res.Content)
}

func TestRenderInlineConditional(t *testing.T) {
	tpl := MustParse("inline", "a{{ if commands.test }}b{{ else }}c{{ end }}d\n", nil)
	assert.Equal(t, "acd\n", tpl.Render(store(t)).Content)
	assert.Equal(t, "abd\n", tpl.Render(store(t, facts.Fact{Key: "commands.test", Value: facts.String("x")})).Content)
}

func TestRenderEmptyListIsFalsy(t *testing.T) {
	tpl := MustParse("list", "{{ if framework.all }}yes{{ else }}no{{ end }}", nil)
	assert.Equal(t, "no", tpl.Render(store(t, facts.Fact{Key: "framework.all", Value: facts.List()})).Content)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unclosed action", "hello {{ project.name", 1},
		{"else without if", "{{ else }}", 1},
		{"end without if", "x\n{{ end }}", 2},
		{"missing end", "{{ if project.name }}\nx\n", 1},
		{"duplicate else", "{{ if project.name }}a{{ else }}b{{ else }}c{{ end }}", 1},
		{"too deep", "{{ if a.b }}\n{{ if a.c }}\n{{ if a.d }}x{{ end }}\n{{ end }}\n{{ end }}", 3},
		{"malformed key", "{{ Project }}", 1},
		{"unquoted default", "{{ project.name | unnamed }}", 1},
		{"empty if", "{{ if }}x{{ end }}", 1},
		{"junk after end", "{{ if a.b }}x{{ end a.b }}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad", tt.src, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTemplate))

			var te *TemplateError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "bad", te.Template)
			assert.Equal(t, tt.line, te.Line)
		})
	}
}

func TestParseRejectsKeysOutsideSchema(t *testing.T) {
	_, err := Parse("schema", "{{ paths.unknown }}", testSchema(t))
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = Parse("schema", "{{ if tools.docker.available }}x{{ end }}", testSchema(t))
	assert.NoError(t, err)
}

func TestKeys(t *testing.T) {
	tpl := MustParse("keys", "{{ if project.name }}{{ project.name }}{{ commands.test }}{{ end }}", nil)
	assert.Equal(t, []string{"project.name", "commands.test"}, tpl.Keys())
}

func TestRenderIsDeterministic(t *testing.T) {
	tpl := MustParse("det", "{{ project.name }}-{{ commands.test | \"none\" }}", nil)
	s := store(t, facts.Fact{Key: "project.name", Value: facts.String("p")})
	assert.Equal(t, tpl.Render(s), tpl.Render(s))
}
