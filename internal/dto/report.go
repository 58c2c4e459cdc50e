package dto

import (
	"os"
	"time"
)

// Report export formats.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

// ReportExportRequest captures POST /substitutes/report/export payload.
type ReportExportRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportExportResponse points at the stored export.
type ReportExportResponse struct {
	ExportID    string    `json:"export_id"`
	Format      string    `json:"format"`
	Token       string    `json:"token"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReportDownload is a resolved export ready to stream. Callers close File.
type ReportDownload struct {
	File        *os.File
	Path        string
	FileName    string
	ContentType string
}
