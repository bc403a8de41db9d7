package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
	"github.com/mamadbah2/challans/internal/service/tracker"
)

const (
	monthLayout   = "2006-01"
	trendMonths   = 6
	topClients    = 5
	digestListMax = 10
)

// Store is the read side of the record store used for aggregates.
type Store interface {
	ListChallans(ctx context.Context) ([]models.Challan, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	ListAssets(ctx context.Context) ([]models.Asset, error)
	ListTrackingRecords(ctx context.Context, filter repository.TrackingFilter) ([]models.TrackingRecord, error)
}

// Returnables supplies the returnable item projection and the current day.
type Returnables interface {
	Items(ctx context.Context) ([]models.ReturnableItem, error)
	Today() time.Time
}

// Service exposes the dashboard aggregates and the overdue digest text.
type Service struct {
	store       Store
	returnables Returnables
	logger      *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(store Store, returnables Returnables, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, returnables: returnables, logger: logger}
}

// Dashboard aggregates the whole store.
func (s *Service) Dashboard(ctx context.Context) (models.Dashboard, error) {
	now := s.returnables.Today()
	dash := models.Dashboard{GeneratedAt: now}

	challans, err := s.store.ListChallans(ctx)
	if err != nil {
		return dash, fmt.Errorf("load challans: %w", err)
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return dash, fmt.Errorf("load projects: %w", err)
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return dash, fmt.Errorf("load clients: %w", err)
	}
	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return dash, fmt.Errorf("load locations: %w", err)
	}
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return dash, fmt.Errorf("load assets: %w", err)
	}
	records, err := s.store.ListTrackingRecords(ctx, repository.TrackingFilter{})
	if err != nil {
		return dash, fmt.Errorf("load tracking records: %w", err)
	}

	dash.Counts = models.RecordCounts{
		Projects:        len(projects),
		Clients:         len(clients),
		Locations:       len(locations),
		Challans:        len(challans),
		Assets:          len(assets),
		TrackingRecords: len(records),
	}

	dash.AssetsByStatus = map[models.AssetStatus]int{
		models.AssetAvailable:   0,
		models.AssetInUse:       0,
		models.AssetMaintenance: 0,
		models.AssetRetired:     0,
	}
	for _, a := range assets {
		dash.AssetsByStatus[a.Status]++
	}

	dash.ChallansByMonth = s.monthlySeries(challans, now)
	dash.TopClients = rankClients(challans, topClients)

	items, err := s.returnables.Items(ctx)
	if err != nil {
		return dash, fmt.Errorf("load returnable items: %w", err)
	}
	dash.Returnables = totals(items, now)
	return dash, nil
}

// OverdueDigest snapshots the outstanding returnable items and renders the
// reminder text. The digest is not stored or sent here.
func (s *Service) OverdueDigest(ctx context.Context) (models.OverdueDigest, error) {
	items, err := s.returnables.Items(ctx)
	if err != nil {
		return models.OverdueDigest{}, fmt.Errorf("load returnable items: %w", err)
	}
	now := s.returnables.Today()

	var overdue, dueSoon []models.TrackedItem
	outstanding := 0
	for _, item := range items {
		if item.ReturnedDate != "" {
			continue
		}
		outstanding++
		st := tracker.StatusOf(item.Item, now)
		switch st.Status {
		case models.StatusOverdue:
			overdue = append(overdue, models.TrackedItem{ReturnableItem: item, Status: st})
		case models.StatusDueSoon:
			dueSoon = append(dueSoon, models.TrackedItem{ReturnableItem: item, Status: st})
		}
	}

	sort.SliceStable(overdue, func(i, j int) bool { return overdue[i].Status.Days > overdue[j].Status.Days })
	sort.SliceStable(dueSoon, func(i, j int) bool { return dueSoon[i].Status.Days < dueSoon[j].Status.Days })

	var b strings.Builder
	fmt.Fprintf(&b, "Returnable items (%s)\n", now.Format(models.DateLayout))
	fmt.Fprintf(&b, "Outstanding: %d | Overdue: %d | Due soon: %d", outstanding, len(overdue), len(dueSoon))
	if len(overdue) == 0 && len(dueSoon) == 0 {
		b.WriteString("\nNothing overdue or due soon.")
	}
	writeSection(&b, "Overdue", overdue)
	writeSection(&b, "Due soon", dueSoon)

	s.logger.Debug("overdue digest built",
		zap.Int("outstanding", outstanding),
		zap.Int("overdue", len(overdue)),
		zap.Int("due_soon", len(dueSoon)))

	return models.OverdueDigest{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Outstanding: outstanding,
		Overdue:     len(overdue),
		DueSoon:     len(dueSoon),
		Message:     b.String(),
	}, nil
}

func writeSection(b *strings.Builder, title string, items []models.TrackedItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n%s:", title)
	for i, item := range items {
		if i == digestListMax {
			fmt.Fprintf(b, "\n...and %d more", len(items)-digestListMax)
			break
		}
		name := item.AssetName
		if item.SerialNumber != "" {
			name = fmt.Sprintf("%s (%s)", name, item.SerialNumber)
		}
		fmt.Fprintf(b, "\n- %s on %s, %s: %s", name, item.DCNumber, item.Client, strings.ToLower(item.Status.Label))
	}
}

// monthlySeries counts challans per issue month for the trailing months up to now.
func (s *Service) monthlySeries(challans []models.Challan, now time.Time) []models.MonthCount {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)
	series := make([]models.MonthCount, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := range series {
		month := first.AddDate(0, i, 0).Format(monthLayout)
		series[i] = models.MonthCount{Month: month}
		index[month] = i
	}

	for _, c := range challans {
		issued, err := models.ParseDate(c.Date)
		if err != nil {
			s.logger.Debug("skip challan with invalid date", zap.String("dc_number", c.DCNumber), zap.String("date", c.Date))
			continue
		}
		if i, ok := index[issued.Format(monthLayout)]; ok {
			series[i].Count++
		}
	}
	return series
}

func rankClients(challans []models.Challan, limit int) []models.NamedCount {
	counts := make(map[string]int)
	names := make(map[string]string)
	for _, c := range challans {
		key := strings.ToLower(strings.TrimSpace(c.Client))
		if key == "" {
			continue
		}
		if _, ok := names[key]; !ok {
			names[key] = strings.TrimSpace(c.Client)
		}
		counts[key]++
	}

	ranked := make([]models.NamedCount, 0, len(counts))
	for key, n := range counts {
		ranked = append(ranked, models.NamedCount{Name: names[key], Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func totals(items []models.ReturnableItem, now time.Time) models.ReturnableTotals {
	t := models.ReturnableTotals{Total: len(items)}
	for _, item := range items {
		switch tracker.StatusOf(item.Item, now).Status {
		case models.StatusReturned:
			t.Returned++
		case models.StatusOverdue:
			t.Overdue++
		case models.StatusDueSoon:
			t.DueSoon++
		}
	}
	t.Outstanding = t.Total - t.Returned
	return t
}
