// Package pipeline decodes declarative action definitions into action trees.
//
// A pipeline document lists actions by type:
//
//	actions:
//	  - type: file_exists
//	    path: template
//	    kind: directory
//	    fatal: true
//	  - type: modify_config_file
//	    path: project/composer.json
//	    operations:
//	      - {key: name, operation: change_value, value: acme/api}
package pipeline

// Document is the root of a pipeline file.
type Document struct {
	Actions []Definition `yaml:"actions"`
}

// Definition describes one action. Type selects the action; the other
// fields are read only by the types that use them.
type Definition struct {
	Type string `yaml:"type"`

	Path    string  `yaml:"path"`
	Source  string  `yaml:"source"`
	Target  string  `yaml:"target"`
	NewName string  `yaml:"new_name"`
	Content *string `yaml:"content"`
	Kind    string  `yaml:"kind"`

	Data     map[string]any `yaml:"data"`
	Key      string         `yaml:"key"`
	Operator string         `yaml:"operator"`
	Value    any            `yaml:"value"`
	Reverse  bool           `yaml:"reverse"`

	Operation  string                   `yaml:"operation"`
	Operations []ModificationDefinition `yaml:"operations"`

	Template     string            `yaml:"template"`
	Placeholders map[string]string `yaml:"placeholders"`
	Edits        []EditDefinition  `yaml:"edits"`

	Overwrite     bool `yaml:"overwrite"`
	IgnoreMissing bool `yaml:"ignore_missing"`
	CreateMissing bool `yaml:"create_missing"`
	StripTopLevel bool `yaml:"strip_top_level"`

	Fatal           bool         `yaml:"fatal"`
	SuccessRequired bool         `yaml:"success_required"`
	Before          []Definition `yaml:"before"`
	After           []Definition `yaml:"after"`

	Branches   []BranchDefinition    `yaml:"branches"`
	Cases      []CaseDefinition      `yaml:"cases"`
	Default    *Definition           `yaml:"default"`
	Expression *ExpressionDefinition `yaml:"expression"`
	Actions    []Definition          `yaml:"actions"`

	Pattern     string       `yaml:"pattern"`
	Patterns    []string     `yaml:"patterns"`
	Recursive   bool         `yaml:"recursive"`
	ExcludeDirs []string     `yaml:"exclude_dirs"`
	Each        []Definition `yaml:"each"`
}

// ModificationDefinition is one key mutation of modify_array and
// modify_config_file.
type ModificationDefinition struct {
	Key       string `yaml:"key"`
	Operation string `yaml:"operation"`
	Value     any    `yaml:"value"`
}

// EditDefinition is one line edit of modify_file_content. Prefix matches
// lines starting with the text, Contains matches lines containing it.
type EditDefinition struct {
	Operation string `yaml:"operation"`
	Contains  string `yaml:"contains"`
	Prefix    string `yaml:"prefix"`
	Text      string `yaml:"text"`
}

// BranchDefinition is one branch of an if statement.
type BranchDefinition struct {
	If   *Definition `yaml:"if"`
	Then *Definition `yaml:"then"`
}

// CaseDefinition is one case of a switch statement.
type CaseDefinition struct {
	Value  any         `yaml:"value"`
	Action *Definition `yaml:"action"`
}

// ExpressionDefinition is the value a switch dispatches on. Type is one of
// literal, key or config_key; without it the type follows from the fields
// that are set.
type ExpressionDefinition struct {
	Type  string         `yaml:"type"`
	Value any            `yaml:"value"`
	Data  map[string]any `yaml:"data"`
	Key   string         `yaml:"key"`
	Path  string         `yaml:"path"`
}
