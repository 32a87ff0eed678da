package catalog

// SpiceLevel describes how hot a dish is. Empty means not applicable.
type SpiceLevel string

const (
	SpiceMild   SpiceLevel = "mild"
	SpiceMedium SpiceLevel = "medium"
	SpiceHot    SpiceLevel = "hot"
)

// MenuItem is a single catalog entry. Price is in whole rupees.
type MenuItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Category    string     `json:"category"`
	Image       string     `json:"image,omitempty"`
	Vegetarian  bool       `json:"is_veg"`
	SpiceLevel  SpiceLevel `json:"spice_level,omitempty"`
}

// Menu is a read-only, ordered collection of menu items.
type Menu struct {
	items []MenuItem
	index map[string]int
}

// NewMenu builds a Menu. Later duplicates of an ID are ignored.
func NewMenu(items []MenuItem) *Menu {
	m := &Menu{
		items: make([]MenuItem, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if _, dup := m.index[it.ID]; dup {
			continue
		}
		m.index[it.ID] = len(m.items)
		m.items = append(m.items, it)
	}
	return m
}

// Items returns a copy of all menu items in catalog order.
func (m *Menu) Items() []MenuItem {
	out := make([]MenuItem, len(m.items))
	copy(out, m.items)
	return out
}

// Find returns the item with the given id.
func (m *Menu) Find(id string) (MenuItem, bool) {
	i, ok := m.index[id]
	if !ok {
		return MenuItem{}, false
	}
	return m.items[i], true
}

// Categories lists categories in the order they first appear.
func (m *Menu) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range m.items {
		if seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}

func (m *Menu) ByCategory(category string) []MenuItem {
	var out []MenuItem
	for _, it := range m.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// DefaultMenu is the house menu served to every table.
func DefaultMenu() *Menu {
	return NewMenu([]MenuItem{
		{
			ID:          "1",
			Name:        "Masala Chai",
			Description: "Traditional Indian spiced tea with aromatic herbs and spices",
			Price:       45,
			Category:    "Beverages",
			Image:       "/masala-chai-tea-cup.jpg",
			Vegetarian:  true,
			SpiceLevel:  SpiceMild,
		},
		{
			ID:          "2",
			Name:        "Butter Chicken",
			Description: "Creamy tomato-based curry with tender chicken pieces",
			Price:       285,
			Category:    "Main Course",
			Image:       "/butter-chicken-curry.png",
			SpiceLevel:  SpiceMedium,
		},
		{
			ID:          "3",
			Name:        "Paneer Tikka",
			Description: "Grilled cottage cheese marinated in aromatic spices",
			Price:       225,
			Category:    "Starters",
			Image:       "/paneer-tikka-grilled.jpg",
			Vegetarian:  true,
			SpiceLevel:  SpiceMedium,
		},
		{
			ID:          "4",
			Name:        "Biryani",
			Description: "Fragrant basmati rice with spices and your choice of protein",
			Price:       320,
			Category:    "Main Course",
			Image:       "/chicken-biryani-rice.jpg",
			SpiceLevel:  SpiceHot,
		},
		{
			ID:          "5",
			Name:        "Samosa",
			Description: "Crispy pastry filled with spiced potatoes and peas",
			Price:       35,
			Category:    "Starters",
			Image:       "/samosa-crispy-pastry.jpg",
			Vegetarian:  true,
			SpiceLevel:  SpiceMild,
		},
		{
			ID:          "6",
			Name:        "Kulfi",
			Description: "Traditional Indian ice cream with cardamom and pistachios",
			Price:       85,
			Category:    "Desserts",
			Image:       "/kulfi-indian-ice-cream.jpg",
			Vegetarian:  true,
		},
	})
}
