package models

// PrayerRecord is a single entry of prayers.json
type PrayerRecord struct {
	ID        string `json:"id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Text      string `json:"text,omitempty"`
	Language  string `json:"language" validate:"required"`
	Filename  string `json:"filename,omitempty"`
	PDFURL    string `json:"pdf_url" validate:"required,url"`
	SourceURL string `json:"source_url" validate:"required,url"`
}
