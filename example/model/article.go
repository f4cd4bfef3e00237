package model

import "time"

//go:generate go tool persistence generate --type Article --plural

type Article struct {
	Id        int64
	Title     string
	Content   string
	CreatedAt time.Time
}
