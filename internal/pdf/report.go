package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ReportData carries the fields rendered into a medical report PDF.
type ReportData struct {
	PatientName     string
	DoctorName      string
	Specialization  string
	Hospital        string
	DiagnosisResult string
	Confidence      float64
	Description     string
	Date            time.Time
}

// RenderReport produces the PDF bytes for a medical report.
func RenderReport(data ReportData) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Medical Report", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "Medical Report", "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, data.Date.Format("2 January 2006"), "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Patient", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, data.PatientName, "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Attending Doctor", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	line := data.DoctorName
	if data.Specialization != "" {
		line += " - " + data.Specialization
	}
	doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	if data.Hospital != "" {
		doc.CellFormat(0, 6, data.Hospital, "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "AI Classification", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, data.DiagnosisResult, "", 1, "L", false, 0, "")
	if data.Confidence > 0 {
		doc.CellFormat(0, 6, formatConfidence(data.Confidence), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Doctor's Assessment", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, data.Description, "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatConfidence(confidence float64) string {
	return fmt.Sprintf("Confidence: %.1f%%", confidence*100)
}
