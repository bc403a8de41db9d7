package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date-only layout used for every calendar date stored on records.
const DateLayout = "2006-01-02"

// dcMidLayout renders the issue date component of generated DC numbers (DDMMYY).
const dcMidLayout = "020106"

var dcNumberPattern = regexp.MustCompile(`^([^/\s]+)/([^/\s]+)/(\d{3})$`)

// Challan is a delivery note listing the items sent out to a client location.
type Challan struct {
	DCNumber    string `bson:"_id" json:"dc_number"`
	Date        string `bson:"date" json:"date"`
	PreparedBy  string `bson:"prepared_by" json:"prepared_by"`
	Client      string `bson:"client" json:"client"`
	Location    string `bson:"location" json:"location"`
	ProjectID   string `bson:"project_id,omitempty" json:"project_id,omitempty"`
	ProjectName string `bson:"project_name,omitempty" json:"project_name,omitempty"`
	PORequired  bool   `bson:"po_required" json:"po_required"`
	PONumber    string `bson:"po_number,omitempty" json:"po_number,omitempty"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
	Items       []Item `bson:"items" json:"items"`
	Meta        `bson:",inline"`
}

// Item is a single line on a challan. It has no lifecycle outside its parent.
type Item struct {
	ItemID             string `bson:"item_id" json:"item_id"`
	LineIndex          int    `bson:"line_index" json:"line_index"`
	AssetName          string `bson:"asset_name" json:"asset_name"`
	Description        string `bson:"description,omitempty" json:"description,omitempty"`
	Quantity           int    `bson:"quantity" json:"quantity"`
	SerialNumber       string `bson:"serial_number,omitempty" json:"serial_number,omitempty"`
	Returnable         bool   `bson:"returnable" json:"returnable"`
	ExpectedReturnDate string `bson:"expected_return_date,omitempty" json:"expected_return_date,omitempty"`
	ReturnedDate       string `bson:"returned_date,omitempty" json:"returned_date,omitempty"`
	ReturnNote         string `bson:"return_note,omitempty" json:"return_note,omitempty"`
}

// DCNumber is the parsed form of PREFIX/<mid>/<NNN>.
type DCNumber struct {
	Prefix   string
	Mid      string
	Sequence int
}

// String renders the number with a zero padded three digit sequence.
func (n DCNumber) String() string {
	return fmt.Sprintf("%s/%s/%03d", n.Prefix, n.Mid, n.Sequence)
}

// ParseDCNumber validates and splits a DC number.
func ParseDCNumber(value string) (DCNumber, error) {
	m := dcNumberPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return DCNumber{}, Invalidf("dc number %q must look like PREFIX/<mid>/NNN", value)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return DCNumber{}, Invalidf("dc number %q has a bad sequence", value)
	}
	return DCNumber{Prefix: m[1], Mid: m[2], Sequence: seq}, nil
}

// DCMid renders the middle component for a challan issued on date.
func DCMid(date time.Time) string {
	return date.Format(dcMidLayout)
}

// ParseDate reads a stored calendar date. RFC 3339 timestamps are accepted
// and reduced to their date part.
func ParseDate(value string) (time.Time, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > len(DateLayout) {
		if _, err := time.Parse(time.RFC3339, str); err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
		}
		str = str[:len(DateLayout)]
	}
	return time.Parse(DateLayout, str)
}

// FormatDate renders t as a stored calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ReturnableCount returns how many items are expected back.
func (c Challan) ReturnableCount() int {
	n := 0
	for _, item := range c.Items {
		if item.Returnable {
			n++
		}
	}
	return n
}

// Renumber rewrites line indexes so they are 1-based and contiguous.
func (c *Challan) Renumber() {
	for i := range c.Items {
		c.Items[i].LineIndex = i + 1
	}
}
