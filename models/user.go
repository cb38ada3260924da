package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;size:20;not null"` // e.g. PROF-042917
	Name      string    `json:"name" gorm:"size:120;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	Phone     string    `json:"phone" gorm:"size:15"`
	Password  string    `json:"-" gorm:"not null"` // bcrypt hash
	College   string    `json:"college" gorm:"size:120"`
	Rank      string    `json:"rank" gorm:"size:40"` // instructor|assistant|associate|professor|university_professor
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminUser is a parallel identity table for staff. It shares the
// user_id namespace with User and is queried as a fallback at login.
type AdminUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;size:20;not null"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:60;not null"`
	Name      string    `json:"name" gorm:"size:120"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Role      string    `json:"role" gorm:"size:20;not null;default:admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// rankPrefixes maps a teaching rank to the user-id prefix.
var rankPrefixes = map[string]string{
	"instructor":           "INST",
	"assistant":            "ASST",
	"associate":            "ASOC",
	"professor":            "PROF",
	"university_professor": "UPRO",
}

func RankPrefix(rank string) string {
	if p, ok := rankPrefixes[strings.ToLower(strings.TrimSpace(rank))]; ok {
		return p
	}
	return "USER"
}

// GenerateUserID builds a candidate id `<PREFIX>-<6 digits>` and retries
// until exists reports it free. Uniqueness comes from collision retry,
// not from a sequence.
func GenerateUserID(rank string, exists func(id string) bool) string {
	prefix := RankPrefix(rank)
	for {
		candidate := fmt.Sprintf("%s-%06d", prefix, rand.Intn(1000000))
		if !exists(candidate) {
			return candidate
		}
	}
}
