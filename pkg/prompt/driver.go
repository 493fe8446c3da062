// Package prompt collects form values interactively, one visible field at a
// time, feeding every answer back into the engine so that dependent fields
// appear or disappear as the form is filled.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Driver asks questions on a terminal. Drivers return raw answers; the
// Filler turns them into field values.
type Driver interface {
	// Text answers KindInput and KindTextArea questions.
	Text(ctx context.Context, q Question) (string, error)
	Confirm(ctx context.Context, q Question) (bool, error)
	// Choose answers KindSelect and KindMultiSelect questions with indices
	// into q.Options. A select returns at most one index.
	Choose(ctx context.Context, q Question) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a Driver backed by survey prompts on the process
// terminal. Info messages go to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) Driver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Text(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var answer string
	if q.Kind == KindTextArea {
		err := survey.AskOne(&survey.Multiline{Message: q.Message, Help: q.Help, Default: q.Default}, &answer)
		return answer, surveyErr(err)
	}
	var opts []survey.AskOpt
	if q.Validate != nil {
		opts = append(opts, survey.WithValidator(func(value any) error {
			text, _ := value.(string)
			return q.Validate(text)
		}))
	}
	err := survey.AskOne(&survey.Input{Message: q.Message, Help: q.Help, Default: q.Default}, &answer, opts...)
	return answer, surveyErr(err)
}

func (d *surveyDriver) Confirm(ctx context.Context, q Question) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var answer bool
	err := survey.AskOne(&survey.Confirm{Message: q.Message, Help: q.Help, Default: q.Checked}, &answer)
	return answer, surveyErr(err)
}

func (d *surveyDriver) Choose(ctx context.Context, q Question) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Kind == KindMultiSelect {
		var picked []int
		prompt := &survey.MultiSelect{Message: q.Message, Help: q.Help, Options: q.Options, Default: q.Selected}
		if err := survey.AskOne(prompt, &picked); err != nil {
			return nil, surveyErr(err)
		}
		return picked, nil
	}
	prompt := &survey.Select{Message: q.Message, Help: q.Help, Options: q.Options}
	if len(q.Selected) > 0 {
		prompt.Default = q.Selected[0]
	}
	var picked int
	if err := survey.AskOne(prompt, &picked); err != nil {
		return nil, surveyErr(err)
	}
	return []int{picked}, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func surveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
