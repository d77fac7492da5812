// Package odt renders the reviewed case record into an OpenDocument text
// file, either by filling a template document or by building a minimal
// document from scratch when no template is configured.
package odt

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/fields"
)

const mimetype = "application/vnd.oasis.opendocument.text"

// Generator renders records. Safe for concurrent use.
type Generator struct {
	templatePath string
	logger       *slog.Logger
}

// NewGenerator returns a Generator. templatePath may be empty; rendering then
// builds a plain document instead of filling a template.
func NewGenerator(templatePath string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{templatePath: templatePath, logger: logger}
}

// placeholders maps the template markers onto the record fields.
func placeholders(data fields.ReviewData) map[string]string {
	return map[string]string{
		"<<NÚMERO DO PROCESSO>>": data.NumeroProcesso,
		"<<REQUERENTE>>":         data.Requerente,
		"<<PARENTESCO>>":         data.Parentesco,
		"<<NOME DO FALECIDO>>":   data.NomeFalecido,
		"<<LOCAL DO ÓBITO>>":     data.LocalObito,
		"<<DATA>>":               data.Data,
		"<<ID DO PARECER>>":      data.IDParecer,
		"<<ID DA DECLARAÇÃO>>":   data.IDDeclaracao,
		"<<ID DAS CERTIDÕES>>":   strings.Join(data.IDCertidoes, ", "),
	}
}

func escapeXML(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// fillContent substitutes every placeholder with its XML-escaped value.
func fillContent(content string, data fields.ReviewData) string {
	for marker, value := range placeholders(data) {
		content = strings.ReplaceAll(content, marker, escapeXML(value))
	}
	return content
}

// Render writes the filled document to w.
func (g *Generator) Render(data fields.ReviewData, w io.Writer) error {
	if g.templatePath == "" {
		return g.renderPlain(data, w)
	}
	return g.renderTemplate(data, w)
}

// renderTemplate copies the template archive member by member, rewriting
// content.xml on the way through. The mimetype member must stay first and
// uncompressed for the archive to remain a valid ODF package.
func (g *Generator) renderTemplate(data fields.ReviewData, w io.Writer) error {
	r, err := zip.OpenReader(g.templatePath)
	if err != nil {
		return fmt.Errorf("open template %s: %w", g.templatePath, err)
	}
	defer r.Close()

	out := zip.NewWriter(w)
	if err := writeStored(out, "mimetype", mimetype); err != nil {
		return err
	}

	for _, f := range r.File {
		if f.Name == "mimetype" {
			continue
		}
		src, err := f.Open()
		if err != nil {
			return fmt.Errorf("open template member %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return fmt.Errorf("read template member %s: %w", f.Name, err)
		}

		if f.Name == "content.xml" {
			body = []byte(fillContent(string(body), data))
		}

		dst, err := out.Create(f.Name)
		if err != nil {
			return fmt.Errorf("write template member %s: %w", f.Name, err)
		}
		if _, err := dst.Write(body); err != nil {
			return fmt.Errorf("write template member %s: %w", f.Name, err)
		}
	}
	return out.Close()
}

// renderPlain builds a minimal one-table document listing every field.
func (g *Generator) renderPlain(data fields.ReviewData, w io.Writer) error {
	out := zip.NewWriter(w)
	if err := writeStored(out, "mimetype", mimetype); err != nil {
		return err
	}

	members := []struct {
		name string
		body string
	}{
		{"META-INF/manifest.xml", manifestXML},
		{"styles.xml", stylesXML},
		{"content.xml", plainContentXML(data)},
	}
	for _, m := range members {
		f, err := out.Create(m.name)
		if err != nil {
			return fmt.Errorf("write %s: %w", m.name, err)
		}
		if _, err := f.Write([]byte(m.body)); err != nil {
			return fmt.Errorf("write %s: %w", m.name, err)
		}
	}
	return out.Close()
}

func writeStored(out *zip.Writer, name, body string) error {
	f, err := out.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := f.Write([]byte(body)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

const manifestXML = `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
 <manifest:file-entry manifest:full-path="/" manifest:media-type="application/vnd.oasis.opendocument.text"/>
 <manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
 <manifest:file-entry manifest:full-path="styles.xml" manifest:media-type="text/xml"/>
</manifest:manifest>
`

const stylesXML = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" office:version="1.2"/>
`

var plainLabels = map[string]string{
	"numero_processo": "Número do processo",
	"requerente":      "Requerente",
	"parentesco":      "Parentesco",
	"nome_falecido":   "Nome do falecido",
	"local_obito":     "Local do óbito",
	"data":            "Data",
	"id_parecer":      "ID do parecer",
	"id_declaracao":   "ID da declaração",
	"id_certidoes":    "ID das certidões",
}

func plainContentXML(data fields.ReviewData) string {
	values := map[string]string{
		"numero_processo": data.NumeroProcesso,
		"requerente":      data.Requerente,
		"parentesco":      data.Parentesco,
		"nome_falecido":   data.NomeFalecido,
		"local_obito":     data.LocalObito,
		"data":            data.Data,
		"id_parecer":      data.IDParecer,
		"id_declaracao":   data.IDDeclaracao,
		"id_certidoes":    strings.Join(data.IDCertidoes, ", "),
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" office:version="1.2">
 <office:body>
  <office:text>
`)
	for _, name := range fields.CanonicalOrder {
		b.WriteString("   <text:p>")
		b.WriteString(escapeXML(plainLabels[name]))
		b.WriteString(": ")
		b.WriteString(escapeXML(values[name]))
		b.WriteString("</text:p>\n")
	}
	b.WriteString(` </office:text>
 </office:body>
</office:document-content>
`)
	return b.String()
}
