package client

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Form returns a BodyFunc for an application/x-www-form-urlencoded body.
func Form(values url.Values) BodyFunc {
	encoded := values.Encode()
	return func() (io.ReadCloser, string, error) {
		return io.NopCloser(strings.NewReader(encoded)), "application/x-www-form-urlencoded", nil
	}
}

// Part is one field of a multipart/form-data body. A Part with a Path is a
// file upload; otherwise Value is sent as a plain field.
type Part struct {
	Name        string
	Value       string
	Path        string
	ContentType string
}

// Field returns a plain form field part.
func Field(name, value string) Part {
	return Part{Name: name, Value: value}
}

// File returns a file upload part read from path.
func File(name, path, contentType string) Part {
	return Part{Name: name, Path: path, ContentType: contentType}
}

// Multipart returns a BodyFunc streaming parts as multipart/form-data.
//
// Every file is opened when the body is built, so a missing file fails the
// attempt before anything is sent. Files are streamed through a pipe and
// closed once written, or when the transport closes the body early.
func Multipart(parts []Part) BodyFunc {
	return func() (io.ReadCloser, string, error) {
		files := make([]*os.File, len(parts))
		closeAll := func() {
			for _, f := range files {
				if f != nil {
					_ = f.Close()
				}
			}
		}

		for i, p := range parts {
			if p.Path == "" {
				continue
			}
			f, err := os.Open(p.Path)
			if err != nil {
				closeAll()
				return nil, "", fmt.Errorf("opening %s: %w", p.Name, err)
			}
			files[i] = f
		}

		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)

		go func() {
			defer closeAll()
			pw.CloseWithError(writeParts(mw, parts, files))
		}()

		return pr, mw.FormDataContentType(), nil
	}
}

func writeParts(mw *multipart.Writer, parts []Part, files []*os.File) error {
	for i, p := range parts {
		if files[i] == nil {
			if err := mw.WriteField(p.Name, p.Value); err != nil {
				return err
			}
			continue
		}

		contentType := p.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(p.Name), escapeQuotes(filepath.Base(p.Path))))
		h.Set("Content-Type", contentType)

		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, files[i]); err != nil {
			return fmt.Errorf("streaming %s: %w", p.Path, err)
		}
		_ = files[i].Close()
		files[i] = nil
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
