package catalog

import "encoding/json"

// Product represents one catalog entry. Images is the source of truth for
// the product's pictures; the legacy singular "image" field still present in
// older documents is derived from Images[0] when marshalling and folded back
// into Images when unmarshalling.
type Product struct {
	ID             string      `json:"id"`
	Category       string      `json:"category"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Link           string      `json:"link"`
	PartNumber     string      `json:"partNumber,omitempty"`
	Condition      string      `json:"condition,omitempty"`
	Images         []string    `json:"images"`
	Specifications []SpecEntry `json:"specifications,omitempty"`
	CreatedAt      string      `json:"createdAt"`
}

// SpecEntry is a display-only name/value pair. No handler writes these, but
// they must survive a read-modify-write cycle untouched.
type SpecEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type productJSON struct {
	ID             string      `json:"id"`
	Category       string      `json:"category"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Link           string      `json:"link"`
	PartNumber     string      `json:"partNumber,omitempty"`
	Condition      string      `json:"condition,omitempty"`
	Images         []string    `json:"images"`
	Image          string      `json:"image,omitempty"`
	Specifications []SpecEntry `json:"specifications,omitempty"`
	CreatedAt      string      `json:"createdAt"`
}

// MarshalJSON emits the legacy "image" field as a projection of Images[0].
func (p Product) MarshalJSON() ([]byte, error) {
	out := productJSON{
		ID:             p.ID,
		Category:       p.Category,
		Name:           p.Name,
		Description:    p.Description,
		Link:           p.Link,
		PartNumber:     p.PartNumber,
		Condition:      p.Condition,
		Images:         p.Images,
		Specifications: p.Specifications,
		CreatedAt:      p.CreatedAt,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if len(p.Images) > 0 {
		out.Image = p.Images[0]
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts documents written before the Images array existed:
// a lone "image" value is promoted to a one-element Images list.
func (p *Product) UnmarshalJSON(data []byte) error {
	var in productJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.ID = in.ID
	p.Category = in.Category
	p.Name = in.Name
	p.Description = in.Description
	p.Link = in.Link
	p.PartNumber = in.PartNumber
	p.Condition = in.Condition
	p.Images = in.Images
	p.Specifications = in.Specifications
	p.CreatedAt = in.CreatedAt
	if len(p.Images) == 0 && in.Image != "" {
		p.Images = []string{in.Image}
	}
	return nil
}

// Document is the whole persisted catalog. Insertion order is list order.
type Document struct {
	Products []Product `json:"products"`
}

// FindIndex returns the position of the product with the given id, or -1.
func (d *Document) FindIndex(id string) int {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so stores can hand out snapshots without
// sharing backing slices with callers.
func (d *Document) Clone() *Document {
	out := &Document{Products: make([]Product, len(d.Products))}
	for i, p := range d.Products {
		cp := p
		cp.Images = append([]string(nil), p.Images...)
		cp.Specifications = append([]SpecEntry(nil), p.Specifications...)
		out.Products[i] = cp
	}
	return out
}

// UpdateProductRequest is the JSON PUT body. Pointer fields distinguish
// "absent" from "set to empty": only present fields overwrite.
type UpdateProductRequest struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	PartNumber  *string   `json:"partNumber,omitempty"`
	Condition   *string   `json:"condition,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Link        *string   `json:"link,omitempty"`
	Images      *[]string `json:"images,omitempty"`
}

// ProductResponse wraps a single created or updated product.
type ProductResponse struct {
	Success bool     `json:"success"`
	Product *Product `json:"product"`
	Message string   `json:"message,omitempty"`
}

// StatusResponse is returned by operations with no product payload.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform client-error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
