package testdata

import (
	"time"

	"github.com/google/uuid"
)

type Article struct {
	Id        int64
	Title     string
	Content   string `db:"body"`
	CreatedAt time.Time
	Draft     bool `db:"-"`
	internal  string
}

type Session struct {
	Token  uuid.UUID `db:"token,pk"`
	UserID int64     `db:"user_id"`
	Data   []byte
}
