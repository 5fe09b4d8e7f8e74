package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/sakif/component-playground/internal/ui"
)

// Isolator keeps failed renders from reaching the display surface as
// anything but an error panel.
//
// WHY DEFER THE REPORT?
// The display surface is usually in the middle of rendering when it isolates
// a result. Calling the error callback right there would let reporting code
// run inside, and interfere with, that render. The callback is handed to the
// Scheduler instead, so it runs after the current task is done.
type Isolator struct {
	scheduler Scheduler
}

// NewIsolator creates an Isolator that defers reports through s.
func NewIsolator(s Scheduler) *Isolator {
	return &Isolator{scheduler: s}
}

// Isolate returns the artifact for r. For an error result, onError is
// scheduled with the descriptor the first time that *Result is isolated and
// never again.
func (i *Isolator) Isolate(r *Result, onError func(ErrorDescriptor)) Artifact {
	if r.Failed() && onError != nil {
		r.reportOnce.Do(func() {
			desc := *r.Error
			i.scheduler.Schedule(func() { onError(desc) })
		})
	}
	return Artifact{result: r}
}

// Artifact is the displayable form of a Result: the rendered tree or an error
// panel. It is a templ.Component.
type Artifact struct {
	result *Result
}

var _ templ.Component = Artifact{}

// Result returns the result the artifact was built from.
func (a Artifact) Result() *Result {
	return a.result
}

// Render implements templ.Component.
func (a Artifact) Render(ctx context.Context, w io.Writer) error {
	r := a.result
	if r == nil {
		return nil
	}
	if r.Failed() {
		return renderErrorPanel(w, r)
	}

	if _, err := fmt.Fprintf(w, `<div class="pg-preview" data-component-type="%s">`, templ.EscapeString(r.ComponentType)); err != nil {
		return err
	}
	if err := ui.RenderHTML(w, r.Value); err != nil {
		return err
	}
	_, err := io.WriteString(w, `</div>`)
	return err
}

// HTML renders the artifact to a string.
func (a Artifact) HTML(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := a.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderErrorPanel(w io.Writer, r *Result) error {
	d := r.Error
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<div class="pg-error" role="alert" data-kind="%s">`, templ.EscapeString(string(d.Kind)))
	fmt.Fprintf(&buf, `<strong class="pg-error-name">%s</strong>`, templ.EscapeString(d.Name))
	fmt.Fprintf(&buf, `<pre class="pg-error-message">%s</pre>`, templ.EscapeString(d.Message))
	if d.Stack != "" {
		fmt.Fprintf(&buf, `<details class="pg-error-stack"><summary>Stack trace</summary><pre>%s</pre></details>`, templ.EscapeString(d.Stack))
	}
	buf.WriteString(`</div>`)
	_, err := w.Write(buf.Bytes())
	return err
}
