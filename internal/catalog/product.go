package catalog

// DefaultPlaceholderImage is shown for products stored without an image.
const DefaultPlaceholderImage = "https://placehold.co/400x400/CCCCCC/000000?text=No+Image"

var categories = []string{
	"Cosmetics & Personal Care",
	"Razors",
	"Toothbrush",
	"Agarbatti (Incense Sticks)",
	"Natural / Herbal Products",
	"Adhesive Tape",
	"PVC Tape",
	"Stationery",
	"Stationery Tapes",
	"Baby Products (Soothers)",
	"Cleaning Products",
	"Pest Control",
	"Craft Supplies",
}

// Categories returns the fixed, ordered list of known category names.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// Product is one catalog entry as stored and served.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Packaging   string   `json:"packaging,omitempty"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
	Features    []string `json:"features"`
}

// ProductInput is a Product without its id, as accepted by add and update.
// Stored records never carry nil slices: empty Images becomes [Image] and nil
// Features becomes an empty list.
type ProductInput struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Packaging   string   `json:"packaging,omitempty"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
	Features    []string `json:"features"`
}

// EffectiveImages returns Images, or a single-element slice of Image when
// Images is empty.
func (p Product) EffectiveImages() []string {
	if len(p.Images) > 0 {
		return cloneStrings(p.Images)
	}
	return []string{p.Image}
}

// PrimaryImage returns Image, or DefaultPlaceholderImage when it is empty.
func (p Product) PrimaryImage() string {
	if p.Image == "" {
		return DefaultPlaceholderImage
	}
	return p.Image
}

func (p Product) clone() Product {
	p.Images = cloneStrings(p.Images)
	p.Features = cloneStrings(p.Features)
	return p
}

// withID builds the stored record. Images falls back to [Image].
func (in ProductInput) withID(id string) Product {
	images := cloneStrings(in.Images)
	if len(images) == 0 {
		images = []string{in.Image}
	}

	features := cloneStrings(in.Features)
	if features == nil {
		features = []string{}
	}

	return Product{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Packaging:   in.Packaging,
		Image:       in.Image,
		Images:      images,
		Features:    features,
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneProducts(ps []Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = p.clone()
	}
	return out
}
