package repositories

import (
	"encoding/json"
	"fmt"
	"oil-collection-service/internal/domain"
	"os"
	"strings"
)

type RestaurantSeed struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Province        string `json:"province"`
	City            string `json:"city"`
	District        string `json:"district"`
	Street          string `json:"street"`
	Region          string `json:"region"`
	DeclaredType    string `json:"declared_type"`
	CollectionPoint string `json:"collection_point"`
}

type VehicleSeed struct {
	ID           string  `json:"id"`
	Plate        string  `json:"plate"`
	Type         string  `json:"type"`
	TareWeight   float64 `json:"tare_weight"`
	RoughWeight  float64 `json:"rough_weight"`
	NetWeight    float64 `json:"net_weight"`
	Driver       string  `json:"driver"`
	Status       string  `json:"status"`
	CooldownDays *int    `json:"cooldown_days"`
}

type RegistrySeed struct {
	Restaurants []RestaurantSeed `json:"restaurants"`
	Vehicles    []VehicleSeed    `json:"vehicles"`
}

// LoadRegistrySeed reads and validates a registry seed file.
func LoadRegistrySeed(jsonPath string) ([]domain.Restaurant, []domain.Vehicle, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, nil, fmt.Errorf("seed registry: read %q: %w", jsonPath, err)
	}

	var data RegistrySeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, nil, fmt.Errorf("seed registry: parse json: %w", err)
	}

	restaurants := make([]domain.Restaurant, 0, len(data.Restaurants))
	for i, r := range data.Restaurants {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, nil, fmt.Errorf("seed registry: restaurant at index %d: id cannot be empty", i+1)
		}
		if strings.TrimSpace(r.Region) == "" && strings.TrimSpace(r.District) == "" {
			return nil, nil, fmt.Errorf("seed registry: restaurant %q: region or district required", id)
		}
		restaurants = append(restaurants, domain.Restaurant{
			ID:              id,
			Name:            strings.TrimSpace(r.Name),
			Province:        strings.TrimSpace(r.Province),
			City:            strings.TrimSpace(r.City),
			District:        strings.TrimSpace(r.District),
			Street:          strings.TrimSpace(r.Street),
			Region:          strings.TrimSpace(r.Region),
			DeclaredType:    strings.TrimSpace(r.DeclaredType),
			CollectionPoint: strings.TrimSpace(r.CollectionPoint),
		})
	}

	vehicles := make([]domain.Vehicle, 0, len(data.Vehicles))
	for i, v := range data.Vehicles {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return nil, nil, fmt.Errorf("seed registry: vehicle at index %d: id cannot be empty", i+1)
		}

		vt := domain.VehicleType(strings.TrimSpace(v.Type))
		if vt != domain.VehicleToRestaurant && vt != domain.VehicleToSale {
			return nil, nil, fmt.Errorf("seed registry: vehicle %q: unknown type %q", id, v.Type)
		}

		status := domain.VehicleStatus(strings.TrimSpace(v.Status))
		if status == "" {
			status = domain.VehicleAvailable
		}
		if status != domain.VehicleAvailable && status != domain.VehicleUnavailable {
			return nil, nil, fmt.Errorf("seed registry: vehicle %q: unknown status %q", id, v.Status)
		}

		cooldown := domain.DefaultCooldownDays
		if v.CooldownDays != nil {
			cooldown = *v.CooldownDays
		}

		vehicles = append(vehicles, domain.Vehicle{
			ID:           id,
			Plate:        strings.TrimSpace(v.Plate),
			Type:         vt,
			TareWeight:   v.TareWeight,
			RoughWeight:  v.RoughWeight,
			NetWeight:    v.NetWeight,
			Driver:       strings.TrimSpace(v.Driver),
			Status:       status,
			CooldownDays: cooldown,
		})
	}

	return restaurants, vehicles, nil
}

const dateLayout = "2006-01-02"
