package validation

import (
	"sort"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Issue is a single validation finding.
type Issue struct {
	FieldID  string         `json:"fieldId"`
	Message  string         `json:"message"`
	Severity model.Severity `json:"severity"`
	RuleID   string         `json:"ruleId,omitempty"`
}

// Result partitions issues by severity. Valid is false as soon as one
// error-severity issue is present; warnings and infos never invalidate.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
	Infos    []Issue `json:"infos,omitempty"`
}

// NewResult returns an empty, valid result.
func NewResult() Result {
	return Result{Valid: true}
}

// Add files issue under its severity. Issues without a severity are errors.
func (r *Result) Add(issue Issue) {
	switch issue.Severity {
	case model.SeverityWarning:
		r.Warnings = append(r.Warnings, issue)
	case model.SeverityInfo:
		r.Infos = append(r.Infos, issue)
	default:
		issue.Severity = model.SeverityError
		r.Errors = append(r.Errors, issue)
		r.Valid = false
	}
}

// AddError files an error-severity issue.
func (r *Result) AddError(fieldID, message string) {
	r.Add(Issue{FieldID: fieldID, Message: message, Severity: model.SeverityError})
}

// Merge appends every issue of other.
func (r *Result) Merge(other Result) {
	for _, group := range [][]Issue{other.Errors, other.Warnings, other.Infos} {
		for _, issue := range group {
			r.Add(issue)
		}
	}
}

// MergePrefixed appends every issue of other with its field id prefixed as
// "<prefix>.<field>".
func (r *Result) MergePrefixed(prefix string, other Result) {
	for _, group := range [][]Issue{other.Errors, other.Warnings, other.Infos} {
		for _, issue := range group {
			if prefix != "" {
				issue.FieldID = prefix + "." + issue.FieldID
			}
			r.Add(issue)
		}
	}
}

// ErrorsByField groups error messages by field id.
func (r Result) ErrorsByField() map[string][]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, issue := range r.Errors {
		out[issue.FieldID] = append(out[issue.FieldID], issue.Message)
	}
	return out
}

// Fields returns the sorted ids of fields with at least one error.
func (r Result) Fields() []string {
	grouped := r.ErrorsByField()
	out := make([]string, 0, len(grouped))
	for field := range grouped {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Messages flattens error messages in report order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		out = append(out, issue.Message)
	}
	return out
}
