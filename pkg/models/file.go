package models

import (
	"github.com/uptrace/bun"
)

// StorageInternal is the storage id the reader assigns to its internal memory.
const StorageInternal = 1

type Folder struct {
	bun.BaseModel `bun:"table:folders,alias:fo"`

	ID   int    `bun:",pk,nullzero,autoincrement" json:"id"`
	Name string `json:"name"`
}

// File links a book to the file backing it. A book without any File row is a ghost.
type File struct {
	bun.BaseModel `bun:"table:files,alias:f"`

	ID        int    `bun:",pk,nullzero,autoincrement" json:"id"`
	BookID    int    `bun:"book_id" json:"book_id"`
	FolderID  int    `bun:"folder_id" json:"folder_id"`
	Filename  string `bun:"filename" json:"filename"`
	StorageID int    `bun:"storageid" json:"storageid"`
}
