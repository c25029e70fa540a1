package models

import (
	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID   int    `bun:",pk,nullzero,autoincrement" json:"id"`
	Name string `json:"name"`
}

type BookGenre struct {
	bun.BaseModel `bun:"table:booktogenre,alias:btg"`

	BookID  int `bun:"bookid" json:"bookid"`
	GenreID int `bun:"genreid" json:"genreid"`
}
