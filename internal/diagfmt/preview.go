package diagfmt

import (
	"bytes"
	"fmt"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// editPreview holds the whole lines an edit touches, before and after it is
// applied.
type editPreview struct {
	before []string
	after  []string
}

func previewEdit(fs *source.FileSet, edit diag.TextEdit) (editPreview, error) {
	if fs == nil {
		return editPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return editPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	content := file.Content
	start, end := int(edit.Span.Start), int(edit.Span.End)
	if start > end || end > len(content) {
		return editPreview{}, fmt.Errorf("edit span %s out of range", edit.Span)
	}

	from := bytes.LastIndexByte(content[:start], '\n') + 1
	to := len(content)
	if i := bytes.IndexByte(content[end:], '\n'); i >= 0 {
		to = end + i
	}

	var after strings.Builder
	after.Write(content[from:start])
	after.WriteString(edit.NewText)
	after.Write(content[end:to])

	return editPreview{
		before: strings.Split(string(content[from:to]), "\n"),
		after:  strings.Split(after.String(), "\n"),
	}, nil
}
