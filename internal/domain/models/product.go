package models

import "time"

// Season - сезон, к которому относится товар
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Seasons перечисляет допустимые сезоны в календарном порядке.
var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}

// ParseSeason проверяет, что строка - один из допустимых сезонов.
func ParseSeason(s string) (Season, bool) {
	for _, season := range Seasons {
		if string(season) == s {
			return season, true
		}
	}
	return "", false
}

// Product - товар в каталоге, у товара всегда ровно один владелец
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Season      Season    `json:"season"`
	Description string    `json:"description"`
	ImageRef    *string   `json:"imageRef,omitempty"`
	OwnerID     int64     `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}
