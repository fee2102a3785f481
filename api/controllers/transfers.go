package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/transfers"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

type transferRequest struct {
	SourceWarehouseID      string           `json:"source_warehouse_id" validate:"required,uuid"`
	DestinationWarehouseID string           `json:"destination_warehouse_id" validate:"required,uuid"`
	ItemID                 string           `json:"item_id" validate:"required,uuid"`
	Quantity               *decimal.Decimal `json:"quantity" validate:"required"`
	Notes                  *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// toInput assumes the request passed validation so every id parses.
func (r transferRequest) toInput(actor uuid.UUID) transfers.Input {
	return transfers.Input{
		SourceWarehouseID:      uuid.MustParse(r.SourceWarehouseID),
		DestinationWarehouseID: uuid.MustParse(r.DestinationWarehouseID),
		ItemID:                 uuid.MustParse(r.ItemID),
		Quantity:               *r.Quantity,
		ActorUserID:            actor,
		Notes:                  r.Notes,
	}
}

// TransfersCreate moves quantity of one item between two warehouses.
func TransfersCreate(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("transfer"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Transfer(r.Context(), body.toInput(actor))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transfers.NewResultDTO(result))
	}
}
