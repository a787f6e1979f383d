package formdoc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yanqian/assessment-portal/internal/domain/locations"
)

// OptionList renders the candidate list on its own, for the autocomplete
// fragment endpoint.
type OptionList struct {
	sel *goquery.Selection
}

// NewOptionList returns an empty list.
func NewOptionList() *OptionList {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<select></select>"))
	if err != nil {
		panic(err)
	}
	return &OptionList{sel: doc.Find("select")}
}

// Clear implements locations.ListView.
func (l *OptionList) Clear() { clearOptions(l.sel) }

// ShowCandidates implements locations.ListView.
func (l *OptionList) ShowCandidates(candidates []locations.Candidate) {
	appendCandidates(l.sel, candidates)
}

// ShowNoResults implements locations.ListView.
func (l *OptionList) ShowNoResults() { appendNoResults(l.sel) }

// HTML returns the rendered <option> elements.
func (l *OptionList) HTML() (string, error) {
	return l.sel.Html()
}

// Len returns the number of options.
func (l *OptionList) Len() int {
	return l.sel.Find("option").Length()
}

func clearOptions(list *goquery.Selection) {
	list.Empty()
}

func appendCandidates(list *goquery.Selection, candidates []locations.Candidate) {
	for _, c := range candidates {
		list.AppendHtml("<option></option>")
		list.Find("option").Last().
			SetAttr("value", locations.OptionValue(c)).
			SetText(c.Label)
	}
}

func appendNoResults(list *goquery.Selection) {
	list.AppendHtml(`<option disabled=""></option>`)
	list.Find("option").Last().SetText(locations.NoResultsLabel)
}

var _ locations.ListView = (*OptionList)(nil)
