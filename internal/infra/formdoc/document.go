package formdoc

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/domain/locations"
	"github.com/yanqian/assessment-portal/internal/domain/wizard"
)

// Document is one session's live copy of the form. It is not safe for
// concurrent use.
type Document struct {
	doc       *goquery.Document
	steps     []wizard.Step
	violation *wizard.Violation
}

// ShowStep implements wizard.View.
func (d *Document) ShowStep(index int, active bool) {
	panel := d.doc.Find(selStep).Eq(index)
	if active {
		panel.AddClass(activeStepClass)
	} else {
		panel.RemoveClass(activeStepClass)
	}
}

// SetProgress implements wizard.View.
func (d *Document) SetProgress(p wizard.Progress) {
	d.doc.Find(selProgress).SetAttr("style", "width: "+p.Width)
	d.doc.Find(selStepLabel).SetText(p.StepLabel)
	d.doc.Find(selPercentLabel).SetText(p.PercentLabel)
}

// ReportValidity implements wizard.View. Only the latest violation is shown.
func (d *Document) ReportValidity(v wizard.Violation) {
	d.ClearValidity()
	vv := v
	d.violation = &vv

	control := d.control(v)
	if control.Length() == 0 {
		return
	}
	control.SetAttr("aria-invalid", "true")
	anchor := control
	if label := control.Closest("label"); label.Length() > 0 {
		anchor = label
	}
	if fieldset := control.Closest("fieldset"); fieldset.Length() > 0 && (v.Reason == wizard.ReasonValueMissing) && isChoice(control) {
		anchor = fieldset
	}
	anchor.AfterHtml(`<div class="` + invalidClass + `" role="alert"></div>`)
	anchor.Next().SetAttr(fieldErrorMarker, v.Field).SetText(v.Message)
}

// ClearValidity removes any reported violation.
func (d *Document) ClearValidity() {
	d.violation = nil
	d.doc.Find("[" + fieldErrorMarker + "]").Remove()
	d.doc.Find(`[aria-invalid="true"]`).RemoveAttr("aria-invalid")
}

// Violation returns the last reported violation, if any.
func (d *Document) Violation() (wizard.Violation, bool) {
	if d.violation == nil {
		return wizard.Violation{}, false
	}
	return *d.violation, true
}

func (d *Document) control(v wizard.Violation) *goquery.Selection {
	if v.FieldID != "" {
		if sel := d.doc.Find("#" + v.FieldID); sel.Length() > 0 {
			return sel.First()
		}
	}
	return d.doc.Find(selForm).Find(`[name="` + v.Field + `"]`).First()
}

func isChoice(control *goquery.Selection) bool {
	t := strings.ToLower(control.AttrOr("type", ""))
	return t == "radio" || t == "checkbox"
}

// Fill writes the draft values into the controls. Names absent from values
// keep their markup defaults; file inputs are never filled.
func (d *Document) Fill(values url.Values) {
	d.doc.Find(selForm).Find(selControls).Each(func(_ int, el *goquery.Selection) {
		name := el.AttrOr("name", "")
		vals, ok := values[name]
		if name == "" || !ok {
			return
		}
		switch controlType(el) {
		case wizard.FieldFile, wizard.FieldSubmit, wizard.FieldButton, wizard.FieldReset:
		case wizard.FieldCheckbox, wizard.FieldRadio:
			want := el.AttrOr("value", "on")
			if containsValue(vals, want) {
				el.SetAttr("checked", "checked")
			} else {
				el.RemoveAttr("checked")
			}
		case wizard.FieldSelect:
			el.Find("option").Each(func(_ int, opt *goquery.Selection) {
				value, has := opt.Attr("value")
				if !has {
					value = strings.TrimSpace(opt.Text())
				}
				if containsValue(vals, value) {
					opt.SetAttr("selected", "selected")
				} else {
					opt.RemoveAttr("selected")
				}
			})
		case wizard.FieldTextarea:
			el.SetText(lastValue(vals))
		default:
			el.SetAttr("value", lastValue(vals))
		}
	})
}

// Clear implements locations.ListView.
func (d *Document) Clear() {
	clearOptions(d.doc.Find(selLocationList))
}

// ShowCandidates implements locations.ListView.
func (d *Document) ShowCandidates(candidates []locations.Candidate) {
	appendCandidates(d.doc.Find(selLocationList), candidates)
}

// ShowNoResults implements locations.ListView.
func (d *Document) ShowNoResults() {
	appendNoResults(d.doc.Find(selLocationList))
}

// SetSubmitDisabled implements assessment.SubmitControl.
func (d *Document) SetSubmitDisabled(disabled bool) {
	submit := d.doc.Find(selForm).Find(selSubmit)
	if disabled {
		submit.SetAttr("disabled", "disabled")
	} else {
		submit.RemoveAttr("disabled")
	}
}

// SubmitDisabled reports the submit control's state.
func (d *Document) SubmitDisabled() bool {
	_, disabled := d.doc.Find(selForm).Find(selSubmit).First().Attr("disabled")
	return disabled
}

// ShowResult implements assessment.Presenter: the form is hidden and the
// result panel shown.
func (d *Document) ShowResult(view assessment.ResultView) {
	var buf bytes.Buffer
	if err := resultTemplate.Execute(&buf, view); err != nil {
		buf.Reset()
		buf.WriteString(template.HTMLEscapeString(view.ScoreText))
	}
	d.doc.Find(selForm).SetAttr("style", "display:none")
	d.doc.Find(selResult).SetAttr("style", "display:block").SetHtml(buf.String())
}

// Alert implements assessment.Presenter.
func (d *Document) Alert(message string) {
	d.doc.Find(selAlert).
		SetAttr("class", "alert alert-danger").
		SetAttr("style", "display:block").
		SetText(message)
}

// Notify shows an informational message in the alert banner.
func (d *Document) Notify(message string) {
	d.doc.Find(selAlert).
		SetAttr("class", "alert alert-success").
		SetAttr("style", "display:block").
		SetText(message)
}

// ClearAlert hides the alert banner.
func (d *Document) ClearAlert() {
	d.doc.Find(selAlert).SetAttr("style", "display:none").SetText("")
}

// SetNavbar toggles the auth buttons.
func (d *Document) SetNavbar(state account.NavbarState) {
	d.doc.Find(".nav-btn-login").SetAttr("style", display(state.ShowLogin))
	d.doc.Find(".nav-btn-signup").SetAttr("style", display(state.ShowSignup))
	d.doc.Find("#logoutBtn").SetAttr("style", display(state.ShowLogout))
}

// Steps returns the step model the document was built from.
func (d *Document) Steps() []wizard.Step {
	return d.steps
}

// HTML serializes the whole page.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

func display(visible bool) string {
	if visible {
		return "display:inline-block"
	}
	return "display:none"
}

func containsValue(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func lastValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

var (
	_ wizard.View              = (*Document)(nil)
	_ locations.ListView       = (*Document)(nil)
	_ assessment.SubmitControl = (*Document)(nil)
	_ assessment.Presenter     = (*Document)(nil)
)
