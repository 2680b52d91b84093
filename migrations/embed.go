// Package migrations содержит SQL схему базы данных
package migrations

import "embed"

// FS содержит файлы миграций
//
//go:embed *.sql
var FS embed.FS

// InitUp имя миграции, создающей схему
const InitUp = "000001_init_schema.up.sql"

// InitDown имя миграции, удаляющей схему
const InitDown = "000001_init_schema.down.sql"
