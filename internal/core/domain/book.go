package domain

// Book is read-only catalog reference data. The catalog is owned by the
// surrounding application; this core only needs identity, the category (for
// similar-item suggestions) and the archival identifiers.
type Book struct {
	ID              string `json:"id" bson:"_id,omitempty"`
	Title           string `json:"title" bson:"title"`
	Author          string `json:"author,omitempty" bson:"author,omitempty"`
	CategoryID      string `json:"category_id" bson:"category_id"`
	InventoryNumber string `json:"inventory_number" bson:"inventory_number"`
	OldCode         string `json:"old_code,omitempty" bson:"old_code,omitempty"`
}
