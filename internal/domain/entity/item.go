package entity

// Item representa un ítem de stock (maestro importado del origen externo).
// Code es único; el motor nunca lo modifica.
type Item struct {
	Code string
	Name string
	Kind string // MasterType del origen ("6" = ítem de inventario, "ITEM" = creado como placeholder)
}

// PlaceholderItemKind se asigna a los ítems creados durante la importación
// cuando un movimiento referencia un código que no vino en el maestro.
const PlaceholderItemKind = "ITEM"

// NewPlaceholderItem construye el ítem provisional para un código sin maestro.
func NewPlaceholderItem(code string) Item {
	return Item{Code: code, Name: "Item " + code, Kind: PlaceholderItemKind}
}
