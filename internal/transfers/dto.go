package transfers

import "github.com/angelmondragon/stockroom-backend/internal/items"

// SuccessMessage is returned with every completed transfer.
const SuccessMessage = "Transfer successful"

// ResultDTO is the response body of a completed transfer.
type ResultDTO struct {
	Message            string        `json:"message"`
	SourceItem         items.ItemDTO `json:"source_item"`
	DestinationItem    items.ItemDTO `json:"destination_item"`
	DestinationCreated bool          `json:"destination_created"`
	AuditEntryID       string        `json:"audit_entry_id"`
}

func NewResultDTO(result *Result) ResultDTO {
	return ResultDTO{
		Message:            SuccessMessage,
		SourceItem:         items.NewItemDTO(result.SourceItem),
		DestinationItem:    items.NewItemDTO(result.DestinationItem),
		DestinationCreated: result.DestinationCreated,
		AuditEntryID:       result.AuditEntryID.String(),
	}
}
