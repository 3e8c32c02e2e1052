package domain

import "time"

// InvoiceStatus represents the processing outcome of an uploaded invoice.
// Values include InvoiceStatusProcessed and InvoiceStatusFailed.
type InvoiceStatus string

const (
	InvoiceStatusProcessed InvoiceStatus = "PROCESSED"
	InvoiceStatusFailed    InvoiceStatus = "FAILED"
)

// Invoice represents one uploaded invoice and the fields extracted from it.
// Records are immutable after creation; there is no update path.
type Invoice struct {
	ID              uint          `gorm:"primaryKey" json:"invoice_id"`
	InvoiceNumber   string        `gorm:"type:text;not null" json:"invoice_number"`
	VendorName      string        `gorm:"type:text;not null" json:"vendor_name"`
	FileName        string        `gorm:"type:text" json:"file_name"`
	FileSizeKB      float64       `json:"file_size_kb"`
	RawText         string        `gorm:"type:text" json:"-"`
	Status          InvoiceStatus `gorm:"type:text;index:idx_invoices_status" json:"status"`
	ErrorMessage    string        `gorm:"type:text" json:"error_message,omitempty"`
	StorageKey      string        `gorm:"type:text" json:"storage_key,omitempty"`
	UploadTimestamp time.Time     `gorm:"index:idx_invoices_uploaded" json:"upload_timestamp"`
	CreatedAt       time.Time     `json:"created_at"`
}

// TableName returns the database table name for Invoice.
func (Invoice) TableName() string {
	return "invoices"
}

// UploadResponse is the API response for a successful invoice upload.
type UploadResponse struct {
	InvoiceID       uint      `json:"invoice_id"`
	InvoiceNumber   string    `json:"invoice_number"`
	VendorName      string    `json:"vendor_name"`
	FileName        string    `json:"file_name"`
	FileSizeKB      float64   `json:"file_size_kb"`
	ConfidenceScore float64   `json:"confidence_score"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
}

// ListResponse is the API response for the invoice listing endpoint.
// Total is the number of records returned, not the number in the store.
type ListResponse struct {
	Invoices []Invoice `json:"invoices"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// HealthResponse is the API response for the health endpoint.
type HealthResponse struct {
	Status               string    `json:"status"`
	Message              string    `json:"message"`
	DatabaseConnected    bool      `json:"database_connected"`
	DocumentAIConfigured bool      `json:"document_ai_configured"`
	Timestamp            time.Time `json:"timestamp"`
}
