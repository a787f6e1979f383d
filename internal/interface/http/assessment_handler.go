package http

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/assessment-portal/internal/domain/account"
	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/domain/wizard"
	"github.com/yanqian/assessment-portal/internal/infra/formdoc"
	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

// AssessmentPath is where the wizard page lives.
const AssessmentPath = "/assessment/"

// ShowAssessment renders the wizard at the session's current step.
func (h *Handler) ShowAssessment(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	h.beginPage(rt)
	h.renderAssessment(c, rt, http.StatusOK)
}

// NextStep validates the active step against the posted values and advances
// when every field passes.
func (h *Handler) NextStep(c *gin.Context) {
	values, files, err := h.readForm(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "unreadable form body", err))
		return
	}
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	h.beginPage(rt)
	if rt.state.Result != nil {
		h.renderAssessment(c, rt, http.StatusOK)
		return
	}
	if !h.attachUploads(c.Request.Context(), rt, values, files) {
		h.renderAssessment(c, rt, http.StatusBadGateway)
		return
	}
	if !h.advance(c.Request.Context(), rt, values) {
		h.renderAssessment(c, rt, http.StatusUnprocessableEntity)
		return
	}
	h.renderAssessment(c, rt, http.StatusOK)
}

// advance folds the posted step into the draft and moves the navigator. It
// reports false when validation blocked the move. Callers hold rt.mu.
func (h *Handler) advance(ctx context.Context, rt *runtime, posted url.Values) bool {
	merged := wizard.MergeStepValues(rt.nav.ActiveStep(), rt.state.Values, posted)
	report, moved := rt.nav.Next(merged, rt.doc)
	rt.state.Values = merged
	rt.state.Step = rt.nav.Current()
	rt.doc.Fill(merged)
	h.sessions.save(ctx, rt)
	switch {
	case moved:
		h.metrics.StepAdvanced()
	case !report.Valid():
		h.metrics.StepRejected()
		return false
	}
	return true
}

// attachUploads stores uploaded documents and appends their keys to the
// document_files values in upload order. Callers hold rt.mu.
func (h *Handler) attachUploads(ctx context.Context, rt *runtime, values url.Values, files []*multipart.FileHeader) bool {
	if len(files) == 0 {
		return true
	}
	docs := make([]assessment.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("open upload failed", "filename", fh.Filename, "error", err)
			rt.doc.Alert(assessment.GenericFailureMessage)
			return false
		}
		defer f.Close()
		docs = append(docs, assessment.Document{
			SessionID:   rt.state.ID,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	keys, err := rt.submit.StoreDocuments(ctx, docs)
	if err != nil {
		rt.doc.Alert(assessment.GenericFailureMessage)
		return false
	}
	values[assessment.FieldDocumentFiles] = append(values[assessment.FieldDocumentFiles], keys...)
	return true
}

// SubmitAssessment sends the completed form to the scoring backend and shows
// the result panel. A second submit while one is in flight gets 409.
func (h *Handler) SubmitAssessment(c *gin.Context) {
	values, files, err := h.readForm(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "unreadable form body", err))
		return
	}
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	rt.mu.Lock()
	h.beginPage(rt)
	if rt.state.Result != nil {
		h.renderAssessment(c, rt, http.StatusOK)
		rt.mu.Unlock()
		return
	}
	if rt.submit.InFlight() {
		rt.mu.Unlock()
		abortWithError(c, NewHTTPError(http.StatusConflict, apperrors.CodeSubmitInFlight, "submission already in progress", nil))
		return
	}
	if !h.attachUploads(ctx, rt, values, files) {
		h.renderAssessment(c, rt, http.StatusBadGateway)
		rt.mu.Unlock()
		return
	}
	// Implicit submission before the last step acts as the step's next button.
	if !rt.nav.OnLastStep() {
		status := http.StatusOK
		if !h.advance(ctx, rt, values) {
			status = http.StatusUnprocessableEntity
		}
		h.renderAssessment(c, rt, status)
		rt.mu.Unlock()
		return
	}
	merged := wizard.MergeStepValues(rt.nav.ActiveStep(), rt.state.Values, values)
	rt.state.Values = merged
	rt.doc.Fill(merged)
	report := wizard.ValidateStep(rt.nav.ActiveStep(), merged)
	if first, invalid := report.First(); invalid {
		rt.doc.ReportValidity(first)
		h.metrics.StepRejected()
		h.sessions.save(ctx, rt)
		h.renderAssessment(c, rt, http.StatusUnprocessableEntity)
		rt.mu.Unlock()
		return
	}
	h.sessions.save(ctx, rt)
	rt.mu.Unlock()

	view, err := rt.submit.Submit(ctx, merged, lockedDoc{rt}, lockedDoc{rt})

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeSubmitInFlight) {
			abortWithError(c, fromAppError(err))
			return
		}
		h.renderAssessment(c, rt, http.StatusBadGateway)
		return
	}
	rt.state.Result = &view
	h.sessions.save(ctx, rt)
	h.renderAssessment(c, rt, http.StatusOK)
}

// ResetAssessment discards the session's progress and result.
func (h *Handler) ResetAssessment(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if err := h.sessions.reset(rt); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "reset_failed", errMessage(err), err))
		return
	}
	h.sessions.save(c.Request.Context(), rt)
	c.Redirect(http.StatusSeeOther, AssessmentPath)
}

// Locations feeds the query to the session's debounced autocompleter. The
// request whose lookup fires receives the option list; a request replaced by
// a later keystroke receives 204.
func (h *Handler) Locations(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	list := formdoc.NewOptionList()
	pending := rt.auto.OnQueryChange(c.Request.Context(), c.Query("q"), list)
	select {
	case <-pending.Done():
	case <-c.Request.Context().Done():
		return
	}
	if pending.Superseded() {
		c.Status(http.StatusNoContent)
		return
	}
	fragment, err := list.HTML()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "render_failed", errMessage(err), err))
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(fragment))
}

// SelectLocation copies the chosen candidate into the hidden location fields.
func (h *Handler) SelectLocation(c *gin.Context) {
	rt, ok := h.runtimeFor(c)
	if !ok {
		return
	}
	fields, err := rt.auto.Select(c.PostForm("option"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	rt.mu.Lock()
	if rt.state.Values == nil {
		rt.state.Values = url.Values{}
	}
	fields.Apply(rt.state.Values)
	rt.doc.Fill(rt.state.Values)
	h.sessions.save(c.Request.Context(), rt)
	rt.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"postcode": fields.Postcode,
		"city":     fields.City,
		"lat":      fields.Lat,
		"lon":      fields.Lon,
	})
}

// beginPage clears the transient feedback of the previous request. Callers
// hold rt.mu.
func (h *Handler) beginPage(rt *runtime) {
	rt.doc.ClearAlert()
	rt.doc.ClearValidity()
	if rt.flash != "" {
		rt.doc.Notify(rt.flash)
		rt.flash = ""
	}
}

// renderAssessment writes the whole page. Callers hold rt.mu.
func (h *Handler) renderAssessment(c *gin.Context, rt *runtime, status int) {
	navbar, err := rt.account.Navbar(c.Request.Context())
	if err != nil {
		h.logger.Warn("navbar state unavailable", "error", err)
		navbar = account.NavbarFor("", time.Now())
	}
	rt.doc.SetNavbar(navbar)
	page, err := rt.doc.HTML()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "render_failed", errMessage(err), err))
		return
	}
	c.Data(status, htmlContentType, []byte(page))
}
