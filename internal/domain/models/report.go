package models

import "time"

// OverdueDigest is a snapshot of outstanding returnable items sent as a reminder.
type OverdueDigest struct {
	ID          string    `bson:"_id" json:"id"`
	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`
	Outstanding int       `bson:"outstanding" json:"outstanding"`
	Overdue     int       `bson:"overdue" json:"overdue"`
	DueSoon     int       `bson:"due_soon" json:"due_soon"`
	Message     string    `bson:"message" json:"message"`
	Delivered   bool      `bson:"delivered" json:"delivered"`
}

// Dashboard aggregates the record store for the overview screen.
type Dashboard struct {
	Counts          RecordCounts        `json:"counts"`
	AssetsByStatus  map[AssetStatus]int `json:"assets_by_status"`
	ChallansByMonth []MonthCount        `json:"challans_by_month"`
	TopClients      []NamedCount        `json:"top_clients"`
	Returnables     ReturnableTotals    `json:"returnables"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// RecordCounts holds the size of each collection.
type RecordCounts struct {
	Projects        int `json:"projects"`
	Clients         int `json:"clients"`
	Locations       int `json:"locations"`
	Challans        int `json:"challans"`
	Assets          int `json:"assets"`
	TrackingRecords int `json:"tracking_records"`
}

// MonthCount is one point of a monthly series, Month formatted as YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// NamedCount is a label with its count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ReturnableTotals summarises every returnable item across all challans.
type ReturnableTotals struct {
	Total       int `json:"total"`
	Returned    int `json:"returned"`
	Outstanding int `json:"outstanding"`
	Overdue     int `json:"overdue"`
	DueSoon     int `json:"due_soon"`
}
