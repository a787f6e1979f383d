// Package formdoc renders the assessment form server-side. A Document wraps
// the form markup in a goquery tree and applies the wizard, autocomplete and
// submission side effects to it.
package formdoc

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yanqian/assessment-portal/internal/domain/wizard"
)

//go:embed assets/assessment_form.html
var defaultForm []byte

// Selectors of the elements the portal drives.
const (
	selForm          = "form#assessmentForm"
	selStep          = ".form-step"
	selProgress      = "#progress"
	selStepLabel     = ".progress-step-label"
	selPercentLabel  = ".progress-percent-label"
	selLocationList  = "#locationSelect"
	selResult        = "#result"
	selAlert         = "#formAlert"
	selSubmit        = `button[type="submit"]:not(.btn-next), input[type="submit"]`
	selControls      = "input, select, textarea"
	activeStepClass  = "form-step-active"
	invalidClass     = "invalid-feedback"
	fieldErrorMarker = "data-error-for"
)

// Template is the parsed form markup plus its step model.
type Template struct {
	raw   []byte
	steps []wizard.Step
}

// DefaultTemplate parses the bundled assessment form.
func DefaultTemplate() (*Template, error) {
	return ParseTemplate(defaultForm)
}

// ParseTemplate extracts the steps of the form found in raw.
func ParseTemplate(raw []byte) (*Template, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse form markup: %w", err)
	}
	form := doc.Find(selForm)
	if form.Length() == 0 {
		return nil, fmt.Errorf("form markup has no %s", selForm)
	}
	panels := form.Find(selStep)
	if panels.Length() == 0 {
		return nil, fmt.Errorf("form markup has no %s panels", selStep)
	}
	steps := make([]wizard.Step, 0, panels.Length())
	panels.Each(func(i int, panel *goquery.Selection) {
		step := wizard.Step{Index: i, Title: strings.TrimSpace(panel.AttrOr("data-title", ""))}
		panel.Find(selControls).Each(func(_ int, el *goquery.Selection) {
			if f, ok := fieldFrom(doc, el); ok {
				step.Fields = append(step.Fields, f)
			}
		})
		steps = append(steps, step)
	})
	return &Template{raw: append([]byte(nil), raw...), steps: steps}, nil
}

// Steps returns the step model of the form.
func (t *Template) Steps() []wizard.Step {
	return t.steps
}

// NewDocument returns a fresh, independently mutable copy of the form.
func (t *Template) NewDocument() (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(t.raw))
	if err != nil {
		return nil, fmt.Errorf("parse form markup: %w", err)
	}
	return &Document{doc: doc, steps: t.steps}, nil
}

func fieldFrom(doc *goquery.Document, el *goquery.Selection) (wizard.Field, bool) {
	name, _ := el.Attr("name")
	if name == "" {
		return wizard.Field{}, false
	}
	f := wizard.Field{
		Name:     name,
		ID:       el.AttrOr("id", ""),
		Type:     controlType(el),
		Value:    el.AttrOr("value", ""),
		Required: hasAttr(el, "required"),
		Disabled: hasAttr(el, "disabled") || el.Closest("fieldset[disabled]").Length() > 0,
		ReadOnly: hasAttr(el, "readonly"),
		Multiple: hasAttr(el, "multiple"),
		Pattern:  el.AttrOr("pattern", ""),
		Min:      el.AttrOr("min", ""),
		Max:      el.AttrOr("max", ""),
		Step:     el.AttrOr("step", ""),
	}
	f.MinLength = atoiAttr(el, "minlength")
	f.MaxLength = atoiAttr(el, "maxlength")
	if f.ID != "" {
		f.Label = strings.TrimSpace(doc.Find(`label[for="` + f.ID + `"]`).First().Text())
	}
	if f.Label == "" {
		f.Label = strings.TrimSpace(el.Closest("label").Text())
	}
	return f, true
}

func controlType(el *goquery.Selection) wizard.FieldType {
	switch goquery.NodeName(el) {
	case "select":
		return wizard.FieldSelect
	case "textarea":
		return wizard.FieldTextarea
	}
	t := strings.ToLower(strings.TrimSpace(el.AttrOr("type", "")))
	if t == "" {
		return wizard.FieldText
	}
	return wizard.FieldType(t)
}

func hasAttr(el *goquery.Selection, name string) bool {
	_, ok := el.Attr(name)
	return ok
}

func atoiAttr(el *goquery.Selection, name string) int {
	raw, ok := el.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
