// Package receipt renders the registration receipt handed out when a student is enrolled.
package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/school"
	"github.com/trezcool/ecole/core/settings"
)

//go:embed templates/receipt.gohtml
var templatesFS embed.FS

var receiptTmpl = template.Must(template.ParseFS(templatesFS, "templates/receipt.gohtml")).Option("missingkey=error")

type Row struct {
	Label string
	Value string
}

type Data struct {
	SchoolName     string
	SchoolLocation string
	SchoolPhone    string
	StudentName    string
	Rows           []Row
	IssuedAt       time.Time
}

func (d Data) Date() string { return d.IssuedAt.Format("02/01/2006") }
func (d Data) Time() string { return d.IssuedAt.Format("15:04:05") }

// Filename is the suggested name of the receipt file, without extension.
func (d Data) Filename() string {
	name := strings.ToLower(strings.Join(strings.Fields(d.StudentName), "-"))
	return fmt.Sprintf("recu-inscription-%s-%s", name, d.IssuedAt.Format("20060102"))
}

// NewData builds the receipt of `stud`; an empty `className` prints as an unknown class.
func NewData(stud school.Student, className string, st settings.Settings, issuedAt time.Time) Data {
	if className == "" {
		className = "Classe inconnue"
	}
	gender := "Fille"
	if stud.Gender == school.GenderMale {
		gender = "Garçon"
	}
	rows := []Row{
		{"N°", fmt.Sprintf("%d", stud.AutoID)},
		{"Élève", stud.FullName()},
		{"Classe", className},
		{"Genre", gender},
		{"Date de naissance", stud.BirthDate},
		{"Lieu de naissance", stud.BirthPlace},
		{"Téléphone parent", stud.ParentPhone},
	}
	if stud.StudentNumber.Valid {
		rows = append(rows, Row{"Matricule", stud.StudentNumber.String})
	}
	return Data{
		SchoolName:     st.SchoolName,
		SchoolLocation: st.SchoolLocation,
		SchoolPhone:    st.SchoolPhone,
		StudentName:    stud.FullName(),
		Rows:           rows,
		IssuedAt:       issuedAt,
	}
}

func RenderHTML(w io.Writer, data Data) error {
	return errors.Wrap(receiptTmpl.Execute(w, data), "rendering html receipt")
}

// RenderPDF writes a receipt-printer sized (80mm wide) PDF.
func RenderPDF(w io.Writer, data Data) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 80, Ht: 160},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252, for the accents

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 7, tr(data.SchoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(102, 102, 102)
	if data.SchoolLocation != "" {
		pdf.CellFormat(0, 4, tr(data.SchoolLocation), "", 1, "C", false, 0, "")
	}
	if data.SchoolPhone != "" {
		pdf.CellFormat(0, 4, tr("Tél: "+data.SchoolPhone), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 4, tr("Reçu d'inscription"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(5, pdf.GetY()+1, 75, pdf.GetY()+1)
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(32, 5, tr(row.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, tr(row.Value), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(5, pdf.GetY(), 75, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, tr("INSCRIPTION CONFIRMÉE"), "", 1, "C", false, 0, "")

	pdf.SetLineWidth(0.2)
	pdf.Line(5, pdf.GetY()+1, 75, pdf.GetY()+1)
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 4, "Date: "+data.Date(), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 4, "Heure: "+data.Time(), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 4, "Merci de votre confiance", "", 1, "C", false, 0, "")

	return errors.Wrap(pdf.Output(w), "rendering pdf receipt")
}

// NewEmail builds a message carrying the receipt, as HTML body and PDF attachment.
func NewEmail(data Data, to ...mail.Address) (*core.EmailMessage, error) {
	var html, pdf bytes.Buffer
	if err := RenderHTML(&html, data); err != nil {
		return nil, err
	}
	if err := RenderPDF(&pdf, data); err != nil {
		return nil, err
	}
	msg := &core.EmailMessage{
		To:          to,
		Subject:     fmt.Sprintf("Reçu d'inscription - %s", data.StudentName),
		TextContent: fmt.Sprintf("Inscription confirmée pour %s le %s à %s.", data.StudentName, data.Date(), data.Time()),
		HTMLContent: html.String(),
	}
	if err := msg.Attach(&pdf, data.Filename()+".pdf", "application/pdf"); err != nil {
		return nil, err
	}
	return msg, nil
}
