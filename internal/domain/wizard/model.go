// Package wizard models the multi-step assessment form: ordered step panels,
// native-style field constraints, and the navigator that gates progression.
package wizard

// FieldType mirrors the HTML control type of a form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
	FieldNumber   FieldType = "number"
	FieldURL      FieldType = "url"
	FieldTel      FieldType = "tel"
	FieldSearch   FieldType = "search"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
	FieldHidden   FieldType = "hidden"
	FieldSubmit   FieldType = "submit"
	FieldButton   FieldType = "button"
	FieldReset    FieldType = "reset"
)

// Field is one named control inside a step panel. MinLength and MaxLength use
// zero for "not set".
type Field struct {
	Name      string
	ID        string
	Type      FieldType
	Label     string
	Value     string
	Required  bool
	Disabled  bool
	ReadOnly  bool
	Multiple  bool
	Pattern   string
	Min       string
	Max       string
	Step      string
	MinLength int
	MaxLength int
}

// Step is one panel of the form.
type Step struct {
	Index  int
	Title  string
	Fields []Field
}

// Names lists the distinct field names of the step in document order.
func (s Step) Names() []string {
	seen := make(map[string]struct{}, len(s.Fields))
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			continue
		}
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		names = append(names, f.Name)
	}
	return names
}

// Field looks up the first field with the given name.
func (s Step) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// barred reports whether the control is excluded from constraint validation.
func (f Field) barred() bool {
	if f.Disabled || f.ReadOnly {
		return true
	}
	switch f.Type {
	case FieldHidden, FieldSubmit, FieldButton, FieldReset:
		return true
	}
	return false
}

func (f Field) checkedValue() string {
	if f.Value == "" {
		return "on"
	}
	return f.Value
}

// retainsValue reports fields whose draft value survives a post that omits
// them: file selections and script-populated hidden inputs.
func (f Field) retainsValue() bool {
	return f.Type == FieldFile || f.Type == FieldHidden
}

func (f Field) isControl() bool {
	switch f.Type {
	case FieldSubmit, FieldButton, FieldReset:
		return false
	}
	return f.Name != ""
}
