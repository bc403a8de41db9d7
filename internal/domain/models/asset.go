package models

// AssetStatus enumerates the lifecycle states of a registered asset.
type AssetStatus string

const (
	AssetAvailable   AssetStatus = "available"
	AssetInUse       AssetStatus = "in-use"
	AssetMaintenance AssetStatus = "maintenance"
	AssetRetired     AssetStatus = "retired"
)

// Valid reports whether s is one of the known statuses.
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetAvailable, AssetInUse, AssetMaintenance, AssetRetired:
		return true
	}
	return false
}

// Asset is a piece of equipment held in the office inventory.
type Asset struct {
	AssetID            string      `bson:"_id" json:"asset_id"`
	Name               string      `bson:"name" json:"name"`
	SerialNumber       string      `bson:"serial_number,omitempty" json:"serial_number,omitempty"`
	Category           string      `bson:"category,omitempty" json:"category,omitempty"`
	Make               string      `bson:"make,omitempty" json:"make,omitempty"`
	Model              string      `bson:"model,omitempty" json:"model,omitempty"`
	Condition          string      `bson:"condition,omitempty" json:"condition,omitempty"`
	Status             AssetStatus `bson:"status" json:"status"`
	IssuedTo           string      `bson:"issued_to,omitempty" json:"issued_to,omitempty"`
	IssueDate          string      `bson:"issue_date,omitempty" json:"issue_date,omitempty"`
	ExpectedReturnDate string      `bson:"expected_return_date,omitempty" json:"expected_return_date,omitempty"`
	ReturnedDate       string      `bson:"returned_date,omitempty" json:"returned_date,omitempty"`
	Notes              string      `bson:"notes,omitempty" json:"notes,omitempty"`
	Meta               `bson:",inline"`
}
