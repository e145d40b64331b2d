// Package models holds fixture declarations for analyzer tests.
package models

import (
	"time"

	"github.com/vk/tabula"
)

type Player struct {
	_ tabula.Table[string] `tabula:"data/players.yaml,format=yaml"`

	Name  string
	Level int
}

func (p Player) Key() string { return p.Name }

type Item struct {
	_ tabula.Table[int32] `tabula:"data/items.csv"`

	ID     int32
	Name   string
	Rarity *string
	Owner  tabula.Ref[string, Player]
}

func (i Item) Key() int32 { return i.ID }

type Settings struct {
	_ tabula.Single `tabula:"data/settings.json"`

	Title    string
	MaxLevel int
	Created  time.Time
}

// NotAModel carries no marker and must be skipped silently.
type NotAModel struct {
	X int
}

// MissingPath is invalid: the marker declares no storage path.
type MissingPath struct {
	_ tabula.Table[int32] `tabula:""`

	ID int32
}

func (m MissingPath) Key() int32 { return m.ID }

// NoKeyMethod is invalid: table records must implement Key.
type NoKeyMethod struct {
	_ tabula.Table[int64] `tabula:"data/nokey.csv"`

	ID int64
}

// BadFormat is invalid: the format override is unknown.
type BadFormat struct {
	_ tabula.Single `tabula:"data/bad.json,format=xml"`

	X int
}
