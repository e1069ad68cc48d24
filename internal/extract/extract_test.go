package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDOCX creates a minimal DOCX file in memory
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types/>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Art. 77 applies.</w:t></w:r><w:r><w:t xml:space="preserve"> Second run.</w:t></w:r></w:p>
<w:p><w:r><w:t>Col A</w:t><w:tab/><w:t>Col B</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>In a table</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body>
</w:document>`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want Format
	}{
		{"pdf extension", "a.PDF", nil, FormatPDF},
		{"docx extension", "a.docx", nil, FormatDOCX},
		{"markdown", "notes.md", []byte("%PDF-"), FormatText},
		{"pdf magic", "upload", []byte("%PDF-1.7 ..."), FormatPDF},
		{"zip magic", "upload.bin", []byte("PK\x03\x04rest"), FormatDOCX},
		{"unknown", "upload", []byte("hello"), FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.file, tt.data))
		})
	}
}

func TestBytes_PlainText(t *testing.T) {
	text, err := Bytes("notes.md", []byte("  # Title\n\nBody text.\n  "))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", text)
}

func TestBytes_InvalidUTF8(t *testing.T) {
	text, err := Bytes("notes.txt", []byte("ok \xff done"))
	require.NoError(t, err)
	assert.Equal(t, "ok � done", text)
}

func TestBytes_Binary(t *testing.T) {
	_, err := Bytes("blob", []byte{'a', 0, 'b'})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBytes_Empty(t *testing.T) {
	_, err := Bytes("empty.txt", []byte(" \n\t "))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestBytes_DOCX(t *testing.T) {
	data := createTestDOCX(t, sampleDocumentXML)

	text, err := Bytes("contract.docx", data)
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Art. 77 applies. Second run.", lines[0])
	assert.Equal(t, "Col A\tCol B", lines[1])
	assert.Equal(t, "In a table", lines[2])
}

func TestBytes_DOCXMissingDocument(t *testing.T) {
	data := createTestDOCX(t, "")

	_, err := Bytes("empty.docx", data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBytes_DOCXNotZip(t *testing.T) {
	_, err := Bytes("broken.docx", []byte("not a zip"))
	assert.Error(t, err)
}

func TestBytes_InvalidPDF(t *testing.T) {
	_, err := Bytes("broken.pdf", []byte("%PDF-1.4 garbage"))
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "handbook.txt")
	require.NoError(t, os.WriteFile(path, []byte("Handbook body."), 0o600))

	text, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, "Handbook body.", text)

	docxPath := filepath.Join(dir, "contract.docx")
	require.NoError(t, os.WriteFile(docxPath, createTestDOCX(t, sampleDocumentXML), 0o600))

	text, err = File(docxPath)
	require.NoError(t, err)
	assert.Contains(t, text, "Art. 77")

	_, err = File(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
