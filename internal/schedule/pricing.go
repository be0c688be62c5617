package schedule

import (
	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
)

// DefaultDuration is the calendar block, in minutes, assigned to an
// appointment whose selected services resolve to zero total duration. It
// guarantees a visible, non-empty slot on the calendar.
const DefaultDuration = 60

// Totals resolves the service and item IDs on each pet entry against the
// supplied catalog maps and sums duration and price.
//
// Resolution is lenient: IDs missing from the maps are skipped silently.
// A deleted service on an old appointment must not make the appointment
// unpriceable.
func Totals(pets []domain.PetEntry, services map[uuid.UUID]domain.Service, items map[uuid.UUID]domain.Item) (durationMin int, price float64) {
	for _, pet := range pets {
		for _, id := range pet.ServiceIDs {
			if svc, ok := services[id]; ok {
				durationMin += svc.Duration
				price += svc.Price
			}
		}
		for _, id := range pet.ItemIDs {
			if item, ok := items[id]; ok {
				price += item.Price
			}
		}
	}
	if durationMin == 0 {
		durationMin = DefaultDuration
	}
	return durationMin, price
}
