package formdoc

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/domain/locations"
	"github.com/yanqian/assessment-portal/internal/domain/wizard"
)

func newDocument(t *testing.T) (*Template, *Document) {
	t.Helper()
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)
	doc, err := tmpl.NewDocument()
	require.NoError(t, err)
	return tmpl, doc
}

func reparse(t *testing.T, d *Document) *goquery.Document {
	t.Helper()
	html, err := d.HTML()
	require.NoError(t, err)
	out, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return out
}

func TestDefaultTemplate_Steps(t *testing.T) {
	tmpl, _ := newDocument(t)
	steps := tmpl.Steps()
	require.Len(t, steps, 5)
	require.Equal(t, "About you", steps[0].Title)

	name, ok := steps[0].Field("full_name")
	require.True(t, ok)
	require.True(t, name.Required)
	require.Equal(t, wizard.FieldText, name.Type)
	require.Equal(t, 255, name.MaxLength)
	require.Equal(t, "Full name", name.Label)

	lat, ok := steps[0].Field("lat")
	require.True(t, ok)
	require.Equal(t, wizard.FieldHidden, lat.Type)

	budget, _ := steps[0].Field("monthly_rent_budget")
	require.Equal(t, wizard.FieldNumber, budget.Type)
	require.Equal(t, "0.01", budget.Step)

	require.Equal(t, []string{"documents", "document_files", "proof_of_income"}, steps[3].Names())
	var checkboxes, files int
	for _, f := range steps[3].Fields {
		switch {
		case f.Name == "documents" && f.Type == wizard.FieldCheckbox:
			checkboxes++
		case f.Name == "document_files" && f.Type == wizard.FieldFile:
			files++
			require.True(t, f.Multiple)
		}
	}
	require.Equal(t, 5, checkboxes)
	require.Equal(t, 1, files)

	for _, s := range steps {
		for _, f := range s.Fields {
			require.NotEqual(t, wizard.FieldSubmit, f.Type, "unnamed submit buttons are not fields")
		}
	}
}

func TestParseTemplate_Errors(t *testing.T) {
	_, err := ParseTemplate([]byte(`<div>no form</div>`))
	require.Error(t, err)
	_, err = ParseTemplate([]byte(`<form id="assessmentForm"></form>`))
	require.Error(t, err)

	tmpl, err := ParseTemplate([]byte(`<form id="assessmentForm"><fieldset disabled><div class="form-step"><input name="a" required></div></fieldset></form>`))
	require.NoError(t, err)
	f, _ := tmpl.Steps()[0].Field("a")
	require.True(t, f.Disabled)
	require.Equal(t, wizard.FieldText, f.Type)
}

func TestDocument_RendersNavigator(t *testing.T) {
	tmpl, doc := newDocument(t)
	nav, err := wizard.NewNavigator(tmpl.Steps(), doc)
	require.NoError(t, err)
	require.Equal(t, 0, nav.Current())

	page := reparse(t, doc)
	require.Equal(t, 1, page.Find(".form-step.form-step-active").Length())
	require.True(t, page.Find(".form-step").First().HasClass("form-step-active"))
	require.Equal(t, "width: 20%", page.Find("#progress").AttrOr("style", ""))
	require.Equal(t, "Step 1 / 5", page.Find(".progress-step-label").Text())
	require.Equal(t, "20%", page.Find(".progress-percent-label").Text())
}

func TestDocument_ReportValidity(t *testing.T) {
	tmpl, doc := newDocument(t)
	nav, err := wizard.NewNavigator(tmpl.Steps(), doc)
	require.NoError(t, err)

	report, advanced := nav.Next(url.Values{}, doc)
	require.False(t, advanced)
	first, _ := report.First()

	v, ok := doc.Violation()
	require.True(t, ok)
	require.Equal(t, first, v)

	page := reparse(t, doc)
	msg := page.Find(`[data-error-for="full_name"]`)
	require.Equal(t, 1, msg.Length())
	require.Equal(t, "Please fill out this field.", msg.Text())
	require.Equal(t, "true", page.Find("#full_name").AttrOr("aria-invalid", ""))

	doc.ClearValidity()
	page = reparse(t, doc)
	require.Zero(t, page.Find(`[data-error-for]`).Length())
	_, ok = doc.Violation()
	require.False(t, ok)
}

func TestDocument_Fill(t *testing.T) {
	_, doc := newDocument(t)
	doc.Fill(url.Values{
		"full_name":         {`Sam "Q" <Lee>`},
		"employment_status": {"part_time"},
		"documents":         {"medicare"},
		"document_files":    {"documents/s1/abc-lease.pdf"},
		"proof_of_income":   {"none"},
		"context_issues":    {"Two cats"},
	})
	page := reparse(t, doc)
	require.Equal(t, `Sam "Q" <Lee>`, page.Find("#full_name").AttrOr("value", ""))
	require.Equal(t, "selected", page.Find(`#employment_status option[value="part_time"]`).AttrOr("selected", ""))
	_, checked := page.Find("#doc_medicare").Attr("checked")
	require.True(t, checked)
	_, checked = page.Find("#doc_passport").Attr("checked")
	require.False(t, checked)
	_, checked = page.Find("#poi_none").Attr("checked")
	require.True(t, checked)
	require.Equal(t, "Two cats", page.Find("#context_issues").Text())
	_, hasValue := page.Find("#document_files").Attr("value")
	require.False(t, hasValue)
}

func TestDocument_LocationList(t *testing.T) {
	_, doc := newDocument(t)
	doc.ShowCandidates([]locations.Candidate{{Label: "Sydney <CBD>", Postcode: "2000", Lat: "-33.86"}})
	page := reparse(t, doc)
	opt := page.Find("#locationSelect option")
	require.Equal(t, 1, opt.Length())
	require.Equal(t, "Sydney <CBD>", opt.Text())

	a := locations.NewAutocompleter(nil, nil)
	hidden, err := a.Select(opt.AttrOr("value", ""))
	require.NoError(t, err)
	require.Equal(t, "2000", hidden.Postcode)
	require.Equal(t, "-33.86", hidden.Lat)

	doc.Clear()
	doc.ShowNoResults()
	page = reparse(t, doc)
	opt = page.Find("#locationSelect option")
	require.Equal(t, 1, opt.Length())
	require.Equal(t, locations.NoResultsLabel, opt.Text())
	_, disabled := opt.Attr("disabled")
	require.True(t, disabled)
}

func TestOptionList(t *testing.T) {
	list := NewOptionList()
	list.ShowCandidates([]locations.Candidate{{Label: "A"}, {Label: "B"}})
	require.Equal(t, 2, list.Len())
	list.Clear()
	require.Zero(t, list.Len())
	list.ShowNoResults()
	html, err := list.HTML()
	require.NoError(t, err)
	require.Contains(t, html, locations.NoResultsLabel)
	require.Contains(t, html, "disabled")
}

func TestDocument_SubmitAndResult(t *testing.T) {
	_, doc := newDocument(t)
	doc.SetSubmitDisabled(true)
	require.True(t, doc.SubmitDisabled())
	page := reparse(t, doc)
	_, nextDisabled := page.Find(".btn-next").First().Attr("disabled")
	require.False(t, nextDisabled)
	doc.SetSubmitDisabled(false)
	require.False(t, doc.SubmitDisabled())

	score, risk := 72.0, "Medium"
	doc.ShowResult(assessment.FormatResult(assessment.Result{
		ReadinessScore: &score,
		RiskLevel:      &risk,
		Strengths:      []string{"A"},
	}))
	page = reparse(t, doc)
	require.Equal(t, "display:none", page.Find("#assessmentForm").AttrOr("style", ""))
	result := page.Find("#result")
	require.Equal(t, "display:block", result.AttrOr("style", ""))
	require.Contains(t, result.Find("h2").Text(), "Readiness Score: 72")
	require.Equal(t, "Medium", result.Find(".risk-level").Text())
	require.Contains(t, result.Find(".risk-level").AttrOr("style", ""), "#ffc107")
	require.Equal(t, 1, result.Find(".strengths li").Length())
	require.Zero(t, result.Find(".weaknesses li").Length())
	require.Contains(t, result.Find(".result-actions").Text(), "Try Again")
	require.Equal(t, "/pricing/", result.Find(`.result-actions a`).AttrOr("href", ""))
}

func TestDocument_AlertAndNavbar(t *testing.T) {
	_, doc := newDocument(t)
	doc.Alert(assessment.GenericFailureMessage)
	doc.SetNavbar(account.NavbarState{ShowLogout: true})
	page := reparse(t, doc)
	require.Equal(t, assessment.GenericFailureMessage, page.Find("#formAlert").Text())
	require.Equal(t, "display:block", page.Find("#formAlert").AttrOr("style", ""))
	require.Equal(t, "display:none", page.Find(".nav-btn-login").AttrOr("style", ""))
	require.Equal(t, "display:inline-block", page.Find("#logoutBtn").AttrOr("style", ""))

	doc.ClearAlert()
	page = reparse(t, doc)
	require.Equal(t, "display:none", page.Find("#formAlert").AttrOr("style", ""))
}

func TestTemplate_DocumentsAreIndependent(t *testing.T) {
	tmpl, first := newDocument(t)
	second, err := tmpl.NewDocument()
	require.NoError(t, err)
	first.Alert("only here")
	page := reparse(t, second)
	require.Empty(t, page.Find("#formAlert").Text())
}

func TestDocument_Notify(t *testing.T) {
	_, doc := newDocument(t)
	doc.Notify("Login successful!")
	page := reparse(t, doc)
	require.Equal(t, "Login successful!", page.Find("#formAlert").Text())
	require.Equal(t, "alert alert-success", page.Find("#formAlert").AttrOr("class", ""))
}
