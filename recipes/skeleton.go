package recipes

import (
	"path/filepath"

	"github.com/kotatut/scaffolder/actions"
)

// TextFilePatterns select the files placeholders are substituted in.
var TextFilePatterns = []string{"**/*.{php,json,md,env,yml,yaml}"}

// APIConfigFile is where the API configuration is written, relative to the
// project.
const APIConfigFile = "config/api.json"

// APISkeleton returns the actions generating an API project from cfg. Every
// top-level key of api is stored under "api." in APIConfigFile.
func APISkeleton(cfg Config, api map[string]any) []actions.Action {
	cfg = cfg.withDefaults()
	out := cfg.Output
	in := func(rel string) string { return filepath.Join(out, rel) }

	list := []actions.Action{
		actions.NewFileExists(cfg.Template, actions.DirKind, actions.Fatal(), actions.SuccessRequired()),
	}
	if !cfg.Overwrite {
		list = append(list, actions.NewFileMissing(out, actions.AnyKind, actions.Fatal(), actions.SuccessRequired()))
	}

	copyTemplate := actions.NewCopyDirectory(cfg.Template, out, actions.Fatal())
	copyTemplate.ExcludeDirs = cfg.ExcludeDirs
	copyTemplate.Overwrite = cfg.Overwrite
	list = append(list, copyTemplate)

	envFile := actions.NewCopyFile(in(".env.example"), in(".env"))
	envFile.Overwrite = cfg.Overwrite
	list = append(list,
		actions.NewIf(actions.NewFileExists(in(".env.example"), actions.FileKind), envFile),
		actions.NewModifyConfigFile(in("composer.json"), []actions.Modification{
			actions.Set("name", Slug(cfg.Namespace)+"/"+Slug(cfg.Name)),
			actions.Set("description", cfg.Description),
		}),
	)

	if len(api) > 0 {
		mods := make([]actions.Modification, 0, len(api))
		for _, k := range sortedKeys(api) {
			mods = append(mods, actions.Set("api."+k, api[k]))
		}
		apiConfig := actions.NewModifyConfigFile(in(APIConfigFile), mods)
		apiConfig.CreateMissing = true
		list = append(list, apiConfig)
	}

	values := cfg.Values()
	substitute := actions.NewFilesInDirectory(out, []actions.Factory{
		actions.PerFile(func(path string) actions.Action {
			return actions.Configure(&actions.ModifyFileContent{Path: path, Placeholders: values})
		}),
	})
	substitute.Recursive = true
	substitute.Patterns = TextFilePatterns
	substitute.ExcludeDirs = cfg.ExcludeDirs
	return append(list, substitute)
}
