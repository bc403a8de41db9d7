package tracker

import (
	"strings"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
)

// Extract flattens every returnable item of every challan, keeping challan
// order and item order. Returned items are kept.
func Extract(challans []models.Challan) []models.ReturnableItem {
	var out []models.ReturnableItem
	for _, c := range challans {
		for _, item := range c.Items {
			if !item.Returnable {
				continue
			}
			out = append(out, models.ReturnableItem{
				Item:        item,
				DCNumber:    c.DCNumber,
				ChallanDate: c.Date,
				Client:      c.Client,
				Location:    c.Location,
				ProjectName: c.ProjectName,
			})
		}
	}
	return out
}

// Filter keeps the items whose asset name, DC number, project, client,
// location or serial number contains query, ignoring case.
func Filter(items []models.ReturnableItem, query string) []models.ReturnableItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	var out []models.ReturnableItem
	for _, item := range items {
		fields := []string{item.AssetName, item.DCNumber, item.ProjectName, item.Client, item.Location, item.SerialNumber}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Group partitions items by DC number. Groups appear in the order their first
// item appears; metadata comes from that first item.
func Group(items []models.ReturnableItem) []models.ReturnGroup {
	var groups []models.ReturnGroup
	index := make(map[string]int)

	for _, item := range items {
		i, ok := index[item.DCNumber]
		if !ok {
			i = len(groups)
			index[item.DCNumber] = i
			groups = append(groups, models.ReturnGroup{
				DCNumber:    item.DCNumber,
				Date:        item.ChallanDate,
				Client:      item.Client,
				Location:    item.Location,
				ProjectName: item.ProjectName,
			})
		}
		groups[i].Items = append(groups[i].Items, models.TrackedItem{ReturnableItem: item})
	}
	return groups
}

// Build groups items and attaches statuses and summaries as of now.
func Build(items []models.ReturnableItem, now time.Time) []models.ReturnGroup {
	groups := Group(items)
	for gi := range groups {
		g := &groups[gi]
		flat := make([]models.ReturnableItem, len(g.Items))
		for ii := range g.Items {
			g.Items[ii].Status = StatusOf(g.Items[ii].Item, now)
			flat[ii] = g.Items[ii].ReturnableItem
		}
		g.Summary = Summarize(flat, now)
	}
	return groups
}
