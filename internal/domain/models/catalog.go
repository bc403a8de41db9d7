package models

// Project groups a client, a location and PO details used to pre-fill challans.
type Project struct {
	ID       string   `bson:"_id" json:"id"`
	Name     string   `bson:"name" json:"name"`
	Client   string   `bson:"client,omitempty" json:"client,omitempty"`
	Location string   `bson:"location,omitempty" json:"location,omitempty"`
	PONumber string   `bson:"po_number,omitempty" json:"po_number,omitempty"`
	Persons  []string `bson:"persons,omitempty" json:"persons,omitempty"`
	Meta     `bson:",inline"`
}

// Client is a customer receiving challans.
type Client struct {
	ID            string `bson:"_id" json:"id"`
	Name          string `bson:"name" json:"name"`
	ContactPerson string `bson:"contact_person,omitempty" json:"contact_person,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Address       string `bson:"address,omitempty" json:"address,omitempty"`
	Meta          `bson:",inline"`
}

// Location is a delivery site.
type Location struct {
	ID      string `bson:"_id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Meta    `bson:",inline"`
}
