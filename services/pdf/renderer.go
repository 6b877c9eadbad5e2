package pdfsvc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ecrmi/institute/core"
	"github.com/ecrmi/institute/core/certificate"
	"github.com/ecrmi/institute/core/membership"
)

// page size: A4 landscape, mm
const (
	pageW = 297.0
	pageH = 210.0

	qrPixels = 256
)

// Renderer draws certificates and letters on the fly. Output is a pure
// function of the stored record: rendering the same record twice yields
// identical documents, so nothing is ever cached on disk.
type Renderer struct {
	conf     *core.Config
	logger   core.Logger
	assetDir string
}

func NewRenderer(conf *core.Config, logger core.Logger) *Renderer {
	return &Renderer{
		conf:     conf,
		logger:   logger,
		assetDir: filepath.Join(conf.WorkDir, "assets", "certificates"),
	}
}

// CourseCertificate renders the fixed-layout course certificate:
// background template, centered participant name, wrapped course title,
// award date, certificate code and the verification QR.
func (r *Renderer) CourseCertificate(cert certificate.Certificate, verifyURL string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	r.background(pdf, "course.png")

	pdf.SetTextColor(20, 33, 61)
	pdf.SetFont("Times", "B", 34)
	pdf.SetXY(0, 88)
	pdf.CellFormat(pageW, 14, cert.ParticipantName, "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(48, 112)
	pdf.MultiCell(pageW-96, 7, "has successfully completed the course "+cert.CourseTitle, "", "C", false)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(0, 140)
	pdf.CellFormat(pageW, 6, "Awarded on "+cert.IssuedAt.Format("2 January 2006"), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(0, 148)
	pdf.CellFormat(pageW, 5, "Certificate No. "+cert.Code, "", 0, "C", false, 0, "")

	if err := r.qr(pdf, verifyURL, 252, 160, 32); err != nil {
		return nil, err
	}

	return output(pdf)
}

// MembershipCertificate renders the membership certificate for the member's
// current type; the template image and the text/QR offsets come from the
// per-type layout table.
func (r *Renderer) MembershipCertificate(mbr membership.Member, verifyURL string) ([]byte, error) {
	lay := layoutFor(mbr.MembershipType)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	r.background(pdf, lay.template)

	pdf.SetTextColor(20, 33, 61)
	pdf.SetFont("Times", "B", 30)
	pdf.SetXY(0, lay.nameY)
	pdf.CellFormat(pageW, 12, mbr.Name, "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetXY(0, lay.typeY)
	pdf.CellFormat(pageW, 7, "is admitted as "+article(mbr.MembershipType)+" "+mbr.MembershipType+" of the Institute", "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(lay.memberNoX, lay.memberNoY)
	pdf.CellFormat(80, 6, mbr.CertificateID, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(lay.dateX, lay.dateY)
	pdf.CellFormat(80, 6, mbr.JoinedAt.Format("2 January 2006"), "", 0, "L", false, 0, "")

	if err := r.qr(pdf, verifyURL, lay.qrX, lay.qrY, lay.qrSize); err != nil {
		return nil, err
	}

	return output(pdf)
}

// AdmissionLetter renders the formal letter that accompanies a membership
// certificate; portrait A4.
func (r *Renderer) AdmissionLetter(mbr membership.Member) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	r.background(pdf, "letterhead.png")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(25, 55)
	pdf.CellFormat(0, 5, mbr.JoinedAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetX(25)
	pdf.CellFormat(0, 5, mbr.Name, "", 1, "L", false, 0, "")
	if mbr.Organization != "" {
		pdf.SetX(25)
		pdf.CellFormat(0, 5, mbr.Organization, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetX(25)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, "RE: ADMISSION INTO MEMBERSHIP", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"We are pleased to inform you that following the review of your application, "+
			"the Council has approved your admission into the Institute as %s %s. "+
			"Your membership number is %s.\n\n"+
			"Your membership certificate is enclosed. It can be verified at any time "+
			"using the QR code printed on it or by quoting your membership number.\n\n"+
			"We look forward to your active participation in the affairs of the Institute.\n\n"+
			"Yours faithfully,",
		mbr.Name, article(mbr.MembershipType), mbr.MembershipType, mbr.CertificateID,
	)
	pdf.SetLeftMargin(25)
	pdf.SetRightMargin(25)
	pdf.MultiCell(0, 5.5, body, "", "L", false)

	pdf.Ln(14)
	pdf.SetX(25)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 5, "Registrar", "", 1, "L", false, 0, "")

	return output(pdf)
}

// background stamps the full-page template image when the asset exists; the
// document still renders without it so environments lacking the binary
// assets (CI, tests) are not broken.
func (r *Renderer) background(pdf *gofpdf.Fpdf, name string) {
	path := filepath.Join(r.assetDir, name)
	if _, err := os.Stat(path); err != nil {
		r.logger.Warn(fmt.Sprintf("certificate template %s missing; rendering without background", name))
		return
	}
	w, h := pdf.GetPageSize()
	pdf.ImageOptions(path, 0, 0, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

func (r *Renderer) qr(pdf *gofpdf.Fpdf, url string, x, y, size float64) error {
	png, err := qrcode.Encode(url, qrcode.Medium, qrPixels)
	if err != nil {
		return errors.Wrap(err, "encoding QR")
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", x, y, size, size, false, opts, 0, "")
	return nil
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing PDF")
	}
	return buf.Bytes(), nil
}

func article(noun string) string {
	switch {
	case noun == "":
		return "a"
	case noun[0] == 'A' || noun[0] == 'a' || noun[0] == 'H' || noun[0] == 'h':
		return "an"
	default:
		return "a"
	}
}
