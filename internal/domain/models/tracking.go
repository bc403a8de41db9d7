package models

// TransactionType is the direction of an asset movement.
type TransactionType string

const (
	TransactionOutward TransactionType = "outward"
	TransactionInward  TransactionType = "inward"
)

// TrackingRecord logs one outward or inward movement of an asset.
// AssetID is a lookup reference only.
type TrackingRecord struct {
	ID              string          `bson:"_id" json:"id"`
	AssetID         string          `bson:"asset_id" json:"asset_id"`
	TransactionType TransactionType `bson:"transaction_type" json:"transaction_type"`
	VendorSentTo    string          `bson:"vendor_sent_to,omitempty" json:"vendor_sent_to,omitempty"`
	ReceivedFrom    string          `bson:"received_from,omitempty" json:"received_from,omitempty"`
	IssuedBy        string          `bson:"issued_by,omitempty" json:"issued_by,omitempty"`
	ReceivedBy      string          `bson:"received_by,omitempty" json:"received_by,omitempty"`
	Purpose         string          `bson:"purpose,omitempty" json:"purpose,omitempty"`
	Date            string          `bson:"date" json:"date"`
	ReturnDate      string          `bson:"return_date,omitempty" json:"return_date,omitempty"`
	Notes           string          `bson:"notes,omitempty" json:"notes,omitempty"`
	Meta            `bson:",inline"`
}
