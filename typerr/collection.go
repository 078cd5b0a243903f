package typerr

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
)

// Errors accumulates the problems found in one pass so that they can all be reported
// together. A nil *Errors is empty.
type Errors struct {
	errs []TypeError
}

func (r *Errors) With(err ...TypeError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []TypeError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	return r != nil && len(r.errs) > 0
}

// Error renders every error with its code, one per line
func (r *Errors) Error() string {
	sb := &strings.Builder{}
	for i, e := range r.Errors() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatWithCode(e))
	}
	return sb.String()
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key:   fmt.Sprint("e", i),
			Value: slog.GroupValue(slog.String("msg", FormatWithCode(v))),
		})
	}
	return slog.GroupValue(vals...)
}

// FormatWithCodeAndSource is FormatWithCode followed by the line of source the error points
// at, with a caret under its column
func FormatWithCodeAndSource(e TypeError, source []byte) string {
	msg := FormatWithCode(e)
	pos := e.Position()
	if !pos.IsValid() {
		return msg
	}
	lines := bytes.Split(source, []byte("\n"))
	if pos.Line > len(lines) {
		return msg
	}
	line := strings.TrimRight(string(lines[pos.Line-1]), "\r")
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"
	return fmt.Sprintf("%s\n    %s\n    %s", msg, line, caret)
}
