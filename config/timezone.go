package config

import (
	"log"
	"os"
	"time"
)

// Location is the salon's reference timezone. Every timestamp that enters the
// scheduler is normalized into it before any comparison.
var Location = time.Local

func LoadTimezone() {
	tz := os.Getenv("TIME_ZONE")
	if tz == "" {
		tz = "Europe/Kyiv"
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Unknown TIME_ZONE %q, falling back to local time: %v", tz, err)
		return
	}

	Location = loc
}
