package extractor

import (
	"time"

	"github.com/book-expert/events"
	"github.com/google/uuid"
)

// TablesExtractedEvent announces a finished table artifact to downstream
// consumers. TablesKey names the object holding the artifact.
type TablesExtractedEvent struct {
	Header     events.EventHeader `json:"header"`
	PDFKey     string             `json:"pdf_key"`
	TablesKey  string             `json:"tables_key"`
	Format     string             `json:"format"`
	TableCount int                `json:"table_count"`
	PageCount  int                `json:"page_count"`
}

// NewTablesExtractedEvent builds the event for one processed PDF. The source
// header's workflow, user and tenant identifiers are carried over; the event
// gets a fresh ID and timestamp.
func NewTablesExtractedEvent(
	source events.EventHeader,
	pdfKey string,
	tablesKey string,
	result *Result,
) TablesExtractedEvent {
	return TablesExtractedEvent{
		Header: events.EventHeader{
			WorkflowID: source.WorkflowID,
			UserID:     source.UserID,
			TenantID:   source.TenantID,
			EventID:    uuid.New().String(),
			Timestamp:  time.Now(),
		},
		PDFKey:     pdfKey,
		TablesKey:  tablesKey,
		Format:     string(result.Format),
		TableCount: result.TableCount,
		PageCount:  result.PageCount,
	}
}
