package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

const maxItemSearchResults = 500

type createItemRequest struct {
	SKU         string           `json:"sku" validate:"required,max=50"`
	Name        string           `json:"name" validate:"required,max=100"`
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Unit        string           `json:"unit,omitempty" validate:"omitempty,max=20"`
	BatchNumber *string          `json:"batch_number,omitempty" validate:"omitempty,max=50"`
	ExpiryDate  *string          `json:"expiry_date,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

func (r createItemRequest) toInput() (items.CreateInput, error) {
	expiry, err := validators.ParseOptionalDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return items.CreateInput{}, err
	}
	input := items.CreateInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Unit:        r.Unit,
		BatchNumber: r.BatchNumber,
		ExpiryDate:  expiry,
		Metadata:    r.Metadata,
	}
	if r.Quantity != nil {
		input.Quantity = *r.Quantity
	}
	return input, nil
}

type updateItemRequest struct {
	SKU         *string          `json:"sku,omitempty" validate:"omitempty,max=50"`
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Unit        *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	BatchNumber *string          `json:"batch_number,omitempty" validate:"omitempty,max=50"`
	ExpiryDate  *string          `json:"expiry_date,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

func (r updateItemRequest) toInput() (items.UpdateInput, error) {
	expiry, err := validators.ParseOptionalDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return items.UpdateInput{}, err
	}
	return items.UpdateInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		BatchNumber: r.BatchNumber,
		ExpiryDate:  expiry,
		Metadata:    r.Metadata,
	}, nil
}

// WarehouseItemsList lists the items of one warehouse.
func WarehouseItemsList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("item"))
			return
		}

		warehouseID, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), warehouseID, validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ItemsSearch searches items across warehouses.
func ItemsSearch(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("item"))
			return
		}

		warehouseID, err := validators.ParseOptionalQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		list, err := svc.Search(r.Context(), items.SearchParams{
			WarehouseID: warehouseID,
			Search:      validators.SanitizeString(query.Get("search"), maxSearchLen),
			BatchNumber: validators.SanitizeString(query.Get("batch_number"), 50),
			LowStock:    lowStock,
			Limit:       maxItemSearchResults,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ItemsGet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("item"))
			return
		}

		warehouseID, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), warehouseID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ItemsCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("item"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), actor, warehouseID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func ItemsUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("item"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), actor, warehouseID, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ItemsDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("item"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, warehouseID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Item deleted"})
	}
}
