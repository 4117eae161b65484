package handlers

import (
	"log"
	"net/http"
	"oil-collection-service/internal/api/dto"
	"oil-collection-service/internal/ports"
	"strings"
)

type RegistryHandler struct {
	Repo ports.RegistryRepository
}

// Restaurants lists the registry, optionally for one collection point.
func (h *RegistryHandler) Restaurants(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	point := strings.TrimSpace(r.URL.Query().Get("collection_point"))
	restaurants, err := h.Repo.ListRestaurants(r.Context(), point)
	if err != nil {
		log.Printf("list restaurants failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListRestaurantsResponse{Restaurants: make([]dto.RestaurantResponse, 0, len(restaurants))}
	for _, x := range restaurants {
		res.Restaurants = append(res.Restaurants, dto.RestaurantResponse{
			ID:               x.ID,
			Name:             x.Name,
			Province:         x.Province,
			City:             x.City,
			District:         x.District,
			Street:           x.Street,
			Region:           x.Region,
			DeclaredType:     x.DeclaredType,
			CollectionPoint:  x.CollectionPoint,
			AllocatedVolume:  x.AllocatedVolume,
			LastVerifiedDate: x.LastVerifiedDate,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RegistryHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	vehicles, err := h.Repo.ListVehicles(r.Context())
	if err != nil {
		log.Printf("list vehicles failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListVehiclesResponse{Vehicles: make([]dto.VehicleResponse, 0, len(vehicles))}
	for _, v := range vehicles {
		res.Vehicles = append(res.Vehicles, dto.VehicleResponse{
			ID:           v.ID,
			Plate:        v.Plate,
			Type:         string(v.Type),
			TareWeight:   v.TareWeight,
			Driver:       v.Driver,
			Status:       string(v.Status),
			LastUseDate:  v.LastUseDate,
			CooldownDays: v.Cooldown(),
			Version:      v.Version,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}
