package bot

import (
	"fmt"
	"io"

	"github.com/mikequentel/dobby/internal/model"
)

// StepError is a failure absorbed during a run.
type StepError struct {
	State State
	Err   error
}

func (e StepError) Error() string { return string(e.State) + ": " + e.Err.Error() }

func (e StepError) Unwrap() error { return e.Err }

// Report records what one run did.
type Report struct {
	Source string
	DryRun bool
	Trail  []State

	Post  *model.SourcePost
	Reply string // as generated
	Text  string // as posted, at most 280 runes
	Image *model.GeneratedImage

	MediaPost *model.PostResult
	TextPost  *model.PostResult

	Errors []StepError
}

func (r *Report) enter(s State) { r.Trail = append(r.Trail, s) }

func (r *Report) fail(s State, err error) { r.Errors = append(r.Errors, StepError{State: s, Err: err}) }

// State is the last state reached.
func (r *Report) State() State {
	if len(r.Trail) == 0 {
		return ""
	}
	return r.Trail[len(r.Trail)-1]
}

// Posted reports whether anything reached the platform.
func (r *Report) Posted() bool { return r.MediaPost != nil || r.TextPost != nil }

func (r *Report) Print(w io.Writer) {
	if r.DryRun {
		fmt.Fprintln(w, "DRY RUN ✅ (no posts created)")
	}
	fmt.Fprintf(w, "Source: %s\n", r.Source)
	if r.Post == nil {
		fmt.Fprintln(w, "No triggering post.")
	} else {
		fmt.Fprintf(w, "Triggering post %s by @%s:\n---\n%s\n---\n", r.Post.ID, r.Post.Author, r.Post.Text)
	}
	if r.Text != "" {
		fmt.Fprintf(w, "Reply:\n---\n%s\n---\n", r.Text)
	}
	if u := r.Image.FirstURL(); u != "" {
		fmt.Fprintf(w, "Image: %s\n", u)
	}
	if r.MediaPost != nil {
		fmt.Fprintf(w, "Posted with image: ID %s\n", r.MediaPost.ID)
	}
	if r.TextPost != nil {
		fmt.Fprintf(w, "Posted text: ID %s\n", r.TextPost.ID)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "Error: %v\n", e)
	}
}
