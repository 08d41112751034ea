package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFallback struct {
	text  string
	err   error
	calls int
}

func (f *fakeFallback) ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error) {
	f.calls++
	return f.text, f.err
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_Text(t *testing.T) {
	e := NewExtractor(nil)
	assert.Equal(t, "Jane Doe\nGo engineer\n", e.Extract(context.Background(), []byte("Jane Doe\nGo engineer\n"), "cv.TXT"))
	assert.Equal(t, "", e.Extract(context.Background(), []byte{0xff, 0xfe, 0x00}, "bad.txt"))
}

func TestExtract_JSONPreservesKeysAndOrder(t *testing.T) {
	e := NewExtractor(nil)
	in := `{"name":"Zoë","skills":["Go","SQL"],"age":30,"address":{"city":"Berlin"}}`

	out := e.Extract(context.Background(), []byte(in), "profile.json")
	want := "{\n  \"name\": \"Zoë\",\n  \"skills\": [\n    \"Go\",\n    \"SQL\"\n  ],\n  \"age\": 30,\n  \"address\": {\n    \"city\": \"Berlin\"\n  }\n}"
	assert.Equal(t, want, out)

	assert.Equal(t, "", e.Extract(context.Background(), []byte(`{"broken":`), "profile.json"))
}

func TestExtract_DOCX(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane </w:t></w:r><w:r><w:t>Doe</w:t></w:r></w:p>
    <w:p><w:hyperlink><w:r><w:t>github.com/jane</w:t></w:r></w:hyperlink></w:p>
    <w:p><w:r><w:t>Go</w:t><w:tab/><w:t>Rust</w:t></w:r></w:p>
    <w:p/>
  </w:body>
</w:document>`
	e := NewExtractor(nil)

	out := e.Extract(context.Background(), buildDOCX(t, doc), "Resume.DOCX")
	assert.Equal(t, "Jane Doe\ngithub.com/jane\nGo\tRust\n\n", out)
}

func TestExtract_DOCXWithoutDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, _ = zw.Create("word/styles.xml")
	require.NoError(t, zw.Close())

	assert.Equal(t, "", NewExtractor(nil).Extract(context.Background(), buf.Bytes(), "a.docx"))
	assert.Equal(t, "", NewExtractor(nil).Extract(context.Background(), []byte("not a zip"), "a.docx"))
}

func TestExtract_UnknownExtension(t *testing.T) {
	fb := &fakeFallback{text: "should not be used"}
	e := NewExtractor(fb)

	assert.Equal(t, "", e.Extract(context.Background(), []byte("hello"), "notes.md"))
	assert.Equal(t, "", e.Extract(context.Background(), []byte("hello"), "noext"))
	assert.Zero(t, fb.calls)
}

func TestExtract_MalformedPDF(t *testing.T) {
	assert.Equal(t, "", NewExtractor(nil).Extract(context.Background(), []byte("%PDF-1.4 garbage"), "cv.pdf"))
}

func TestExtract_PDFFallsBackToTika(t *testing.T) {
	fb := &fakeFallback{text: "text from tika"}
	e := NewExtractor(fb)

	assert.Equal(t, "text from tika", e.Extract(context.Background(), []byte("%PDF-1.4 garbage"), "cv.pdf"))
	assert.Equal(t, 1, fb.calls)

	fb.err = errors.New("tika down")
	assert.Equal(t, "", e.Extract(context.Background(), []byte("%PDF-1.4 garbage"), "cv.pdf"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension("My.CV.PDF"))
	assert.Equal(t, "", Extension("README"))
}
