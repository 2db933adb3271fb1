package models

import (
	"math"
	"time"
)

// MaxCoins - предел колонки coins (INTEGER)
const MaxCoins = math.MaxInt32

// User представляет пользователя маркетплейса
type User struct {
	ID        int64
	Username  string // отображаемое имя
	Email     string // используется для входа
	PassHash  []byte
	Coins     int
	CreatedAt time.Time
}

// ProfileField - поле профиля, которое пользователь может изменить
type ProfileField string

const (
	ProfileUsername ProfileField = "username"
	ProfileEmail    ProfileField = "email"
	ProfilePassword ProfileField = "password"
)

// ParseProfileField возвращает поле профиля по имени из запроса.
func ParseProfileField(s string) (ProfileField, bool) {
	switch f := ProfileField(s); f {
	case ProfileUsername, ProfileEmail, ProfilePassword:
		return f, true
	}
	return "", false
}
