package auth

import (
	"github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers the package models with the persistence layer.
// Call it once before opening the database client.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
}
