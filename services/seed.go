package services

import (
	"errors"
	"log"

	"beautycrm-backend/models"

	"gorm.io/gorm"
)

type seedService struct {
	Name     string
	Code     string
	Price    float64
	Duration int
}

var seedCatalog = map[string][]seedService{
	"hair": {
		{Name: "Men's haircut", Code: "HAIR-M-CUT-30", Price: 300, Duration: 30},
		{Name: "Women's haircut", Code: "HAIR-W-CUT-45", Price: 500, Duration: 45},
		{Name: "Coloring", Code: "HAIR-COLOR-90", Price: 1200, Duration: 90},
		{Name: "Styling", Code: "HAIR-STYLE-30", Price: 350, Duration: 30},
	},
	"nails": {
		{Name: "Classic manicure", Code: "NAILS-CLASS-60", Price: 400, Duration: 60},
		{Name: "Gel polish", Code: "NAILS-GEL-90", Price: 700, Duration: 90},
		{Name: "Pedicure", Code: "NAILS-PEDI-90", Price: 800, Duration: 90},
	},
	"cosmet": {
		{Name: "Facial cleansing", Code: "COS-CLEAN-60", Price: 900, Duration: 60},
		{Name: "Peeling", Code: "COS-PEEL-45", Price: 800, Duration: 45},
		{Name: "Care masks", Code: "COS-MASK-30", Price: 500, Duration: 30},
	},
	"barber": {
		{Name: "Barber haircut", Code: "BARBER-CUT-40", Price: 400, Duration: 40},
		{Name: "Straight razor shave", Code: "BARBER-SHAVE-30", Price: 350, Duration: 30},
		{Name: "Beard trim", Code: "BARBER-BEARD-20", Price: 250, Duration: 20},
	},
}

// SeedServices creates or updates the standard service catalog, keyed by
// service code. Idempotent.
func SeedServices(db *gorm.DB) error {
	created, updated := 0, 0

	err := db.Transaction(func(tx *gorm.DB) error {
		for group, items := range seedCatalog {
			for _, item := range items {
				var svc models.Service
				err := tx.Where("code = ?", item.Code).First(&svc).Error
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					svc = models.Service{
						Name:        item.Name,
						Code:        item.Code,
						Group:       group,
						BasePrice:   item.Price,
						DurationMin: item.Duration,
						IsActive:    true,
					}
					if err := tx.Create(&svc).Error; err != nil {
						return err
					}
					created++
				case err != nil:
					return err
				default:
					svc.Name = item.Name
					svc.Group = group
					svc.BasePrice = item.Price
					svc.DurationMin = item.Duration
					svc.IsActive = true
					if err := tx.Save(&svc).Error; err != nil {
						return err
					}
					updated++
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Service catalog seeded: %d created, %d updated", created, updated)
	return nil
}
