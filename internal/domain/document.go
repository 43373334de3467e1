package domain

import (
	"strings"
	"time"
)

// DocumentCategory classifies an uploaded project document.
type DocumentCategory string

// Known document categories. Other lowercase values are stored as-is.
const (
	DocumentCategoryAnalysis DocumentCategory = "analysis"
	DocumentCategorySample   DocumentCategory = "sample"
	DocumentCategoryPO       DocumentCategory = "po"
	DocumentCategoryListing  DocumentCategory = "listing"
	DocumentCategoryOther    DocumentCategory = "other"
)

// Document is metadata about one file attached to a project.
type Document struct {
	ID          string
	ProjectID   string
	Category    DocumentCategory
	Name        string
	StoragePath string
	CreatedAt   time.Time
}

// NewDocument constructs document metadata.
func NewDocument(id, projectID string, category DocumentCategory, name, storagePath string, now time.Time) (Document, error) {
	id = strings.TrimSpace(id)
	projectID = strings.TrimSpace(projectID)
	if id == "" || projectID == "" {
		return Document{}, ErrInvalidID
	}
	category = NormalizeDocumentCategory(category)
	if category == "" {
		return Document{}, ErrInvalidCategory
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Document{}, ErrInvalidName
	}
	return Document{
		ID:          id,
		ProjectID:   projectID,
		Category:    category,
		Name:        name,
		StoragePath: strings.TrimSpace(storagePath),
		CreatedAt:   now.UTC(),
	}, nil
}

// NormalizeDocumentCategory lowercases and trims a category.
func NormalizeDocumentCategory(category DocumentCategory) DocumentCategory {
	return DocumentCategory(strings.ToLower(strings.TrimSpace(string(category))))
}
