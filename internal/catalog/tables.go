package catalog

// TableInfo is the seating metadata shown to a customer at a table.
type TableInfo struct {
	ID       string `json:"table_id"`
	Section  string `json:"section"`
	Capacity int    `json:"capacity"`
	Server   string `json:"server"`
}

// DefaultTable is returned for table ids that are not in the floor plan.
var DefaultTable = TableInfo{Section: "Main", Capacity: 4, Server: "Staff"}

var floorPlan = map[string]TableInfo{
	"1":  {Section: "Garden", Capacity: 2, Server: "Raj"},
	"2":  {Section: "Garden", Capacity: 4, Server: "Raj"},
	"3":  {Section: "Indoor", Capacity: 2, Server: "Priya"},
	"4":  {Section: "Indoor", Capacity: 4, Server: "Priya"},
	"5":  {Section: "Indoor", Capacity: 6, Server: "Amit"},
	"12": {Section: "VIP", Capacity: 4, Server: "Neha"},
	"15": {Section: "Terrace", Capacity: 8, Server: "Vikram"},
}

// LookupTable never fails: unknown ids get DefaultTable with the id filled in.
func LookupTable(id string) TableInfo {
	info, ok := floorPlan[id]
	if !ok {
		info = DefaultTable
	}
	info.ID = id
	return info
}
