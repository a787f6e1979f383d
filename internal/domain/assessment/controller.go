package assessment

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"

	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

// GenericFailureMessage is the alert shown for any failed submission.
const GenericFailureMessage = "Something went wrong. Please try again."

// Submission outcomes reported to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Submitter posts the payload to the scoring endpoint. Any non-2xx response
// is an error.
type Submitter interface {
	SubmitAssessment(ctx context.Context, payload Payload) (Result, error)
}

// SubmitControl is the form's submit button.
type SubmitControl interface {
	SetSubmitDisabled(disabled bool)
}

// Presenter renders the outcome of a submission.
type Presenter interface {
	ShowResult(view ResultView)
	Alert(message string)
}

// Document is one uploaded supporting file.
type Document struct {
	SessionID   string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentStore persists uploaded files and returns their object keys.
type DocumentStore interface {
	Put(ctx context.Context, doc Document) (string, error)
}

// Recorder observes submission outcomes.
type Recorder interface {
	SubmissionFinished(outcome string)
}

// Controller intercepts form submission for one session.
type Controller struct {
	submitter Submitter
	docs      DocumentStore
	recorder  Recorder
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewController wires the submission collaborators. docs and recorder may be nil.
func NewController(submitter Submitter, docs DocumentStore, recorder Recorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		submitter: submitter,
		docs:      docs,
		recorder:  recorder,
		logger:    logger.With("component", "assessment.controller"),
	}
}

// InFlight reports whether a submission round trip is in progress.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Submit sends the form values and renders the result. The submit control is
// disabled for the round trip and re-enabled on every exit path. Failures are
// logged and surfaced through a single generic alert.
func (c *Controller) Submit(ctx context.Context, values url.Values, control SubmitControl, presenter Presenter) (ResultView, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.record(OutcomeRejected)
		return ResultView{}, apperrors.Wrap(apperrors.CodeSubmitInFlight, "submission already in progress", nil)
	}
	c.inFlight = true
	c.mu.Unlock()

	if control != nil {
		control.SetSubmitDisabled(true)
	}
	defer func() {
		if control != nil {
			control.SetSubmitDisabled(false)
		}
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	payload := BuildPayload(values)
	result, err := c.submitter.SubmitAssessment(ctx, payload)
	if err != nil {
		c.logger.Error("assessment submission failed", "error", err)
		c.record(OutcomeFailure)
		if presenter != nil {
			presenter.Alert(GenericFailureMessage)
		}
		return ResultView{}, err
	}

	view := FormatResult(result)
	if presenter != nil {
		presenter.ShowResult(view)
	}
	c.record(OutcomeSuccess)
	return view, nil
}

// StoreDocuments uploads files in order and returns their keys in the same
// order. It stops at the first failure.
func (c *Controller) StoreDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if c.docs == nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "document storage not configured", nil)
	}
	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		key, err := c.docs.Put(ctx, doc)
		if err != nil {
			c.logger.Error("document upload failed", "filename", doc.Filename, "error", err)
			return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to store document", err)
		}
		keys = append(keys, key)
	}
	c.logger.Info("documents stored", "count", len(keys))
	return keys, nil
}

func (c *Controller) record(outcome string) {
	if c.recorder != nil {
		c.recorder.SubmissionFinished(outcome)
	}
}
