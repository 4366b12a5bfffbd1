package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

// RequestsCSV renders a request listing as CSV, one row per request.
func RequestsCSV(requests []models.MaintenanceRequest) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := []string{"id", "property_id", "title", "category", "priority", "status", "contractor_id", "created_at", "updated_at"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, req := range requests {
		contractor := ""
		if req.ContractorID != nil {
			contractor = *req.ContractorID
		}
		record := []string{
			req.ID,
			req.PropertyID,
			req.Title,
			string(req.Category),
			string(req.Priority),
			string(req.Status),
			contractor,
			req.CreatedAt.Format("2006-01-02 15:04:05"),
			req.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
