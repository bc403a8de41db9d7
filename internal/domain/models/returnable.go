package models

// ReturnStatus is the derived due state of a returnable item.
type ReturnStatus string

const (
	StatusReturned     ReturnStatus = "Returned"
	StatusNoReturnDate ReturnStatus = "No return date"
	StatusOverdue      ReturnStatus = "Overdue"
	StatusDueSoon      ReturnStatus = "Due Soon"
	StatusPending      ReturnStatus = "Pending"
)

// Badge is the severity shown for a group of returnable items.
type Badge string

const (
	BadgeDanger  Badge = "danger"
	BadgeWarning Badge = "warning"
	BadgeInfo    Badge = "info"
)

// ReturnableItem is a returnable challan item flattened with its parent's metadata.
type ReturnableItem struct {
	Item
	DCNumber    string `json:"dc_number"`
	ChallanDate string `json:"challan_date"`
	Client      string `json:"client"`
	Location    string `json:"location"`
	ProjectName string `json:"project_name,omitempty"`
}

// Key identifies the item inside the store.
func (r ReturnableItem) Key() ItemKey {
	return ItemKey{DCNumber: r.DCNumber, ItemID: r.ItemID, LineIndex: r.LineIndex, AssetName: r.AssetName}
}

// ItemKey addresses a challan item. ItemID is preferred; LineIndex and AssetName
// are used for items stored before ids were assigned.
type ItemKey struct {
	DCNumber  string `json:"dc_number" binding:"required"`
	ItemID    string `json:"item_id,omitempty"`
	LineIndex int    `json:"line_index,omitempty"`
	AssetName string `json:"asset_name,omitempty"`
}

// Matches reports whether the key addresses item on challan dc.
func (k ItemKey) Matches(dc string, item Item) bool {
	if k.DCNumber != dc {
		return false
	}
	if k.ItemID != "" {
		return item.ItemID == k.ItemID
	}
	return item.LineIndex == k.LineIndex && item.AssetName == k.AssetName
}

// ItemStatus is the status of one item together with its day magnitude.
type ItemStatus struct {
	Status ReturnStatus `json:"status"`
	Days   int          `json:"days"`
	Label  string       `json:"label"`
}

// TrackedItem pairs a returnable item with its computed status.
type TrackedItem struct {
	ReturnableItem
	Status ItemStatus `json:"status"`
}

// GroupSummary holds the per challan counters shown alongside a group.
type GroupSummary struct {
	TotalItems    int   `json:"total_items"`
	ReturnedItems int   `json:"returned_items"`
	PendingItems  int   `json:"pending_items"`
	OverdueItems  int   `json:"overdue_items"`
	DueSoonItems  int   `json:"due_soon_items"`
	Badge         Badge `json:"badge"`
	// DueTodayItems counts items due today. The per-item status calls them
	// Due Soon while DueSoonItems leaves them out.
	DueTodayItems    int  `json:"due_today_items"`
	BoundaryMismatch bool `json:"due_soon_boundary_mismatch"`
}

// ReturnGroup collects the returnable items of one challan.
type ReturnGroup struct {
	DCNumber    string        `json:"dc_number"`
	Date        string        `json:"date"`
	Client      string        `json:"client"`
	Location    string        `json:"location"`
	ProjectName string        `json:"project_name,omitempty"`
	Items       []TrackedItem `json:"items"`
	Summary     GroupSummary  `json:"summary"`
}
