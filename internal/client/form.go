package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Form is a multipart payload: plain fields plus file parts
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

type FormFile struct {
	Field   string
	Name    string
	Content io.Reader
}

func NewForm() *Form {
	return &Form{Fields: map[string]string{}}
}

func (f *Form) AddField(name, value string) *Form {
	f.Fields[name] = value
	return f
}

func (f *Form) AddFile(field, name string, content io.Reader) *Form {
	f.Files = append(f.Files, FormFile{Field: field, Name: name, Content: content})
	return f
}

// AddFilePath reads the whole file so the form can be encoded after the
// file handle is gone.
func (f *Form) AddFilePath(field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	f.AddFile(field, filepath.Base(path), bytes.NewReader(data))
	return nil
}

func (f *Form) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range f.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.Files {
		part, err := w.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
