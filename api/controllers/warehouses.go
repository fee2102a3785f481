package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

const maxSearchLen = 100

type createWarehouseRequest struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Code          string         `json:"code" validate:"required,max=50"`
	Address       *string        `json:"address,omitempty" validate:"omitempty,max=255"`
	Capacity      *int           `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	ContactPerson *string        `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Notes         *string        `json:"notes,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (r createWarehouseRequest) toInput() warehouses.CreateInput {
	return warehouses.CreateInput{
		Name:          r.Name,
		Code:          r.Code,
		Address:       r.Address,
		Capacity:      r.Capacity,
		ContactPerson: r.ContactPerson,
		Notes:         r.Notes,
		Metadata:      r.Metadata,
	}
}

type updateWarehouseRequest struct {
	Name          *string        `json:"name,omitempty" validate:"omitempty,max=100"`
	Code          *string        `json:"code,omitempty" validate:"omitempty,max=50"`
	Address       *string        `json:"address,omitempty" validate:"omitempty,max=255"`
	Capacity      *int           `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	ContactPerson *string        `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Notes         *string        `json:"notes,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (r updateWarehouseRequest) toInput() warehouses.UpdateInput {
	return warehouses.UpdateInput{
		Name:          r.Name,
		Code:          r.Code,
		Address:       r.Address,
		Capacity:      r.Capacity,
		ContactPerson: r.ContactPerson,
		Notes:         r.Notes,
		Metadata:      r.Metadata,
	}
}

// WarehousesList supports search over name, code and address plus a capacity range.
func WarehousesList(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("warehouse"))
			return
		}

		capMin, err := validators.ParseOptionalQueryInt(r, "capacity_min")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		capMax, err := validators.ParseOptionalQueryInt(r, "capacity_max")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), warehouses.Filter{
			Search:      validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen),
			CapacityMin: capMin,
			CapacityMax: capMax,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func WarehousesGet(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("warehouse"))
			return
		}

		id, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func WarehousesCreate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("warehouse"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createWarehouseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), actor, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func WarehousesUpdate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("warehouse"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateWarehouseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), actor, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// WarehousesDelete refuses with 422 while the warehouse still owns items.
func WarehousesDelete(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("warehouse"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Warehouse deleted"})
	}
}
