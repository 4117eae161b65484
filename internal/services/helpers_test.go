package services

import (
	"fmt"
	"math/rand"
	"oil-collection-service/internal/domain"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRNG(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func restaurant(id, region, district string) domain.Restaurant {
	return domain.Restaurant{
		ID:              id,
		Name:            "restaurant " + id,
		City:            "Chengdu",
		District:        district,
		Region:          region,
		DeclaredType:    "noodles",
		CollectionPoint: "cp-1",
	}
}

func collectionFleet(n int) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Vehicle{
			ID:           fmt.Sprintf("v%d", i),
			Plate:        fmt.Sprintf("川A-%04d", i),
			Type:         domain.VehicleToRestaurant,
			TareWeight:   8,
			Status:       domain.VehicleAvailable,
			CooldownDays: 3,
		})
	}
	return out
}

func saleVehicle(id string) domain.Vehicle {
	return domain.Vehicle{
		ID:           id,
		Plate:        "川B-" + id,
		Type:         domain.VehicleToSale,
		TareWeight:   14.5,
		Driver:       "driver " + id,
		Status:       domain.VehicleAvailable,
		CooldownDays: 3,
	}
}
