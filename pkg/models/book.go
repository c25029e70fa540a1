package models

import (
	"strings"

	"github.com/uptrace/bun"
)

// Book is a row of the reader's books_impl table. Only the columns this tool reads or corrects are mapped.
type Book struct {
	bun.BaseModel `bun:"table:books_impl,alias:b"`

	ID                int    `bun:",pk,nullzero,autoincrement" json:"id"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	FirstAuthor       string `bun:"firstauthor" json:"firstauthor"`
	FirstAuthorLetter string `json:"first_author_letter"`
	Series            string `json:"series"`
	NumInSeries       int    `bun:"numinseries" json:"numinseries"`
	Ext               string `json:"ext"`
}

// StoredBook is the read-only snapshot of one book that a fix pass reconciles against its EPUB. NULL columns
// are scanned as empty strings.
type StoredBook struct {
	ID                int    `bun:"id" json:"id"`
	Folder            string `bun:"folder" json:"folder"`
	Filename          string `bun:"filename" json:"filename"`
	Author            string `bun:"author" json:"author"`
	FirstAuthor       string `bun:"firstauthor" json:"firstauthor"`
	FirstAuthorLetter string `bun:"first_author_letter" json:"first_author_letter"`
	Genre             string `bun:"genre" json:"genre"`
	Series            string `bun:"series" json:"series"`
	NumInSeries       int    `bun:"numinseries" json:"numinseries"`
}

// Filepath joins the folder and filename the way the reader stores them.
func (b *StoredBook) Filepath() string {
	if b.Folder == "" {
		return b.Filename
	}
	return strings.TrimSuffix(b.Folder, "/") + "/" + b.Filename
}
