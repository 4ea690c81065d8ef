package fetch

import (
	"fmt"
	"os"

	"github.com/leofalp/sdtt/internal/utils"
)

// ReadFile loads a local HTML document. maxSize <= 0 uses
// DefaultMaxBodySize. Files carry no base URL, so relative references in
// them stay relative.
func ReadFile(path string, maxSize int64) (*Document, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Source: path, Err: err}
	}
	defer utils.CloseWithLog(f)

	info, err := f.Stat()
	if err != nil {
		return nil, &Error{Op: "open", Source: path, Err: err}
	}
	if info.IsDir() {
		return nil, &Error{Op: "open", Source: path, Err: fmt.Errorf("is a directory")}
	}

	body, err := utils.ReadAllLimit(f, maxSize)
	if err != nil {
		return nil, &Error{Op: "read", Source: path, Err: err}
	}
	return &Document{
		Source:      path,
		ContentType: "text/html",
		Body:        body,
	}, nil
}
