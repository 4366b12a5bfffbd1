package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

// WorkOrder collects everything a contractor needs on paper for a visit.
type WorkOrder struct {
	Request    *models.MaintenanceRequest
	Property   *models.PropertyActors
	Renter     *models.User
	Contractor *models.ContractorProfile
}

// WorkOrderPDF renders work orders for scheduled maintenance visits.
type WorkOrderPDF struct{}

// NewWorkOrderPDF constructs the renderer.
func NewWorkOrderPDF() *WorkOrderPDF {
	return &WorkOrderPDF{}
}

// Render produces the PDF bytes for a work order.
func (e *WorkOrderPDF) Render(order WorkOrder) ([]byte, error) {
	if order.Request == nil {
		return nil, fmt.Errorf("work order requires a request")
	}
	req := order.Request

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "WORK ORDER", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Request %s", req.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeRow := func(label, value string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 7, value, "", "", false)
	}

	writeRow("Title", req.Title)
	writeRow("Category", string(req.Category))
	writeRow("Priority", strings.ToUpper(string(req.Priority)))
	writeRow("Status", string(req.Status))
	writeRow("Description", req.Description)

	if order.Property != nil {
		pdf.Ln(2)
		writeRow("Property", order.Property.Address)
	}
	if order.Renter != nil {
		contact := order.Renter.FullName
		if order.Renter.Email != "" {
			contact += " <" + order.Renter.Email + ">"
		}
		if order.Renter.Phone != "" {
			contact += " " + order.Renter.Phone
		}
		writeRow("Renter", contact)
	}
	if order.Contractor != nil {
		name := order.Contractor.CompanyName
		if name == "" {
			name = order.Contractor.Name
		}
		writeRow("Contractor", name)
	}

	if len(req.AvailableTimes) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, "Renter availability", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, slot := range req.AvailableTimes {
			pdf.CellFormat(0, 6, "- "+slot.String(), "", 1, "", false, 0, "")
		}
	}

	if req.Schedule != nil {
		pdf.Ln(2)
		writeRow("Scheduled", req.Schedule.ScheduledDate.Format("2006-01-02 15:04"))
		if req.Schedule.Notes != "" {
			writeRow("Notes", req.Schedule.Notes)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render work order: %w", err)
	}
	return buf.Bytes(), nil
}
