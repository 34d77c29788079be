package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/exportedge/freight-advisor/internal/graph"
	"github.com/exportedge/freight-advisor/internal/model"
	"github.com/exportedge/freight-advisor/internal/resilience"
)

// ErrNoJSONBlock is returned when a collaborator reply that must carry a
// fenced JSON block carries none.
var ErrNoJSONBlock = errors.New("no fenced JSON block in collaborator response")

// MalformedResponseError reports collaborator output that survived repair but
// still does not parse as the expected structure. It is never retried: asking
// the same question about the same text yields the same answer.
type MalformedResponseError struct {
	Stage    string
	Fragment string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	frag := e.Fragment
	if len(frag) > 120 {
		frag = frag[:120] + "..."
	}
	return fmt.Sprintf("%s: malformed collaborator response %q: %v", e.Stage, frag, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// MissingFieldsError lists every required order attribute absent from an
// intake record, not just the first one found.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: [%s]", strings.Join(e.Fields, ", "))
}

// StageError wraps a stage failure into a structured payload the pipeline can
// record. Kind is stable; Message is for humans.
type StageError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsStageError classifies err into a StageError payload.
func AsStageError(err error) *StageError {
	var missing *MissingFieldsError
	var malformed *MalformedResponseError
	var validation *model.ValidationError
	var query *graph.QueryError

	kind := "internal"
	switch {
	case errors.As(err, &missing):
		kind = "missing_required_field"
	case errors.As(err, &malformed):
		kind = "malformed_response"
	case errors.Is(err, ErrNoJSONBlock):
		kind = "no_json_block"
	case errors.As(err, &validation):
		kind = "validation"
	case errors.As(err, &query):
		kind = "graph_query"
	case resilience.IsRateLimited(err):
		kind = "rate_limited"
	}
	return &StageError{Kind: kind, Message: err.Error()}
}
