package detectors

import "github.com/agentx-labs/groundwork/internal/facts"

// Fact keys produced by the built-in detectors.
const (
	KeyLanguage       = "language.primary"
	KeyLanguageVer    = "language.version"
	KeyProjectName    = "project.name"
	KeyProjectDesc    = "project.description"
	KeyProjectVersion = "project.version"
	KeyProjectModule  = "project.module"
	KeyPackageManager = "package.manager"

	KeyBuild  = "commands.build"
	KeyTest   = "commands.test"
	KeyLint   = "commands.lint"
	KeyStart  = "commands.start"
	KeyFormat = "commands.format"

	KeyFramework     = "framework.primary"
	KeyFrameworks    = "framework.all"
	KeyDocker        = "container.docker"
	KeyServices      = "container.services"
	KeyGit           = "vcs.git"
	KeyCI            = "ci.provider"
	KeyIndentStyle   = "conventions.indent_style"
	KeyIndentSize    = "conventions.indent_size"
	KeyQuoteStyle    = "conventions.quote_style"
	KeySemicolons    = "conventions.semicolons"
	KeySourcePath    = "paths.source"
	KeyTestsPath     = "paths.tests"
	KeyDocsPath      = "paths.docs"
	KeyEntryPoint    = "paths.entry_point"
	KeyToolAvailable = "tools.*.available"
)

// ToolKey returns the availability key for a tool.
func ToolKey(name string) string {
	return "tools." + name + ".available"
}

func str(keys ...string) []facts.KeySpec {
	specs := make([]facts.KeySpec, len(keys))
	for i, k := range keys {
		specs[i] = facts.KeySpec{Key: k, Kind: facts.KindString}
	}
	return specs
}

func boolean(key string) facts.KeySpec { return facts.KeySpec{Key: key, Kind: facts.KindBool} }

func list(key string) facts.KeySpec { return facts.KeySpec{Key: key, Kind: facts.KindList} }
