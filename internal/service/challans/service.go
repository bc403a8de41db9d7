package challans

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

const maxSequence = 999

// ErrItemNotFound is returned when a challan has no item with the requested id.
var ErrItemNotFound = fmt.Errorf("challan item: %w", repository.ErrNotFound)

// Store is the persistence the challan service needs.
type Store interface {
	repository.ChallanRepository
	GetProject(ctx context.Context, id string) (models.Project, error)
}

// Register mirrors newly issued challans somewhere outside the store.
type Register interface {
	Append(ctx context.Context, challan models.Challan) error
}

// Option customises a Service.
type Option func(*Service)

// WithRegister mirrors every created challan into r.
func WithRegister(r Register) Option {
	return func(s *Service) { s.register = r }
}

// WithChangeHook registers fn to run after every successful mutation.
func WithChangeHook(fn func(ctx context.Context)) Option {
	return func(s *Service) { s.onChange = fn }
}

// WithClock overrides the clock used for default dates and numbering.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone used to derive today.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Service validates and persists challans.
type Service struct {
	store    Store
	prefix   string
	register Register
	onChange func(ctx context.Context)
	now      func() time.Time
	loc      *time.Location
	logger   *zap.Logger
}

// NewService wires a challan service issuing numbers under prefix.
func NewService(store Store, prefix string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		prefix: prefix,
		now:    time.Now,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ItemInput is one line of a challan form.
type ItemInput struct {
	ItemID             string `json:"item_id,omitempty"`
	AssetName          string `json:"asset_name"`
	Description        string `json:"description,omitempty"`
	Quantity           int    `json:"quantity"`
	SerialNumber       string `json:"serial_number,omitempty"`
	Returnable         bool   `json:"returnable"`
	ExpectedReturnDate string `json:"expected_return_date,omitempty"`
}

// Input is the challan form. Version is only read by Update.
type Input struct {
	DCNumber    string      `json:"dc_number,omitempty"`
	Date        string      `json:"date,omitempty"`
	PreparedBy  string      `json:"prepared_by"`
	Client      string      `json:"client"`
	Location    string      `json:"location"`
	ProjectID   string      `json:"project_id,omitempty"`
	ProjectName string      `json:"project_name,omitempty"`
	PORequired  bool        `json:"po_required"`
	PONumber    string      `json:"po_number,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Items       []ItemInput `json:"items"`
	Version     int64       `json:"version,omitempty"`
}

// Filter narrows List. Empty fields match everything; From and To are inclusive dates.
type Filter struct {
	Query  string
	Client string
	From   string
	To     string
}

// Create validates input, assigns a DC number when none is given and stores the challan.
func (s *Service) Create(ctx context.Context, input Input) (models.Challan, error) {
	challan, err := s.build(ctx, input)
	if err != nil {
		return models.Challan{}, err
	}

	for i := range challan.Items {
		challan.Items[i].ItemID = uuid.NewString()
	}
	challan.Renumber()

	generate := strings.TrimSpace(input.DCNumber) == ""
	if !generate {
		if _, err := models.ParseDCNumber(input.DCNumber); err != nil {
			return models.Challan{}, err
		}
		challan.DCNumber = strings.TrimSpace(input.DCNumber)
	}

	var saved models.Challan
	for attempt := 0; ; attempt++ {
		if generate {
			issued, _ := models.ParseDate(challan.Date)
			number, err := s.nextNumber(ctx, issued)
			if err != nil {
				return models.Challan{}, err
			}
			challan.DCNumber = number
		}
		saved, err = s.store.SaveChallan(ctx, challan)
		if err == nil {
			break
		}
		// Another writer may have taken the generated number.
		if !generate || !errors.Is(err, repository.ErrDuplicate) || attempt == 2 {
			return models.Challan{}, fmt.Errorf("create challan: %w", err)
		}
	}

	s.logger.Info("challan created",
		zap.String("dc_number", saved.DCNumber),
		zap.String("client", saved.Client),
		zap.Int("items", len(saved.Items)))

	if s.register != nil {
		if err := s.register.Append(ctx, saved); err != nil {
			s.logger.Warn("failed to mirror challan to register", zap.String("dc_number", saved.DCNumber), zap.Error(err))
		}
	}
	s.changed(ctx)
	return saved, nil
}

// Update replaces the challan stored under dcNumber. Items keep their ids and
// returned state when input refers to them by item_id.
func (s *Service) Update(ctx context.Context, dcNumber string, input Input) (models.Challan, error) {
	if input.Version <= 0 {
		return models.Challan{}, models.Invalidf("version is required")
	}
	if dc := strings.TrimSpace(input.DCNumber); dc != "" && dc != dcNumber {
		return models.Challan{}, models.Invalidf("dc number cannot be changed")
	}

	existing, err := s.store.GetChallan(ctx, dcNumber)
	if err != nil {
		return models.Challan{}, fmt.Errorf("load challan: %w", err)
	}

	challan, err := s.build(ctx, input)
	if err != nil {
		return models.Challan{}, err
	}

	known := make(map[string]models.Item, len(existing.Items))
	for _, item := range existing.Items {
		if item.ItemID != "" {
			known[item.ItemID] = item
		}
	}
	seen := make(map[string]struct{}, len(challan.Items))
	for i := range challan.Items {
		item := &challan.Items[i]
		if item.ItemID == "" {
			item.ItemID = uuid.NewString()
			continue
		}
		if _, dup := seen[item.ItemID]; dup {
			return models.Challan{}, models.Invalidf("item %d repeats item_id %q", i+1, item.ItemID)
		}
		seen[item.ItemID] = struct{}{}
		prev, ok := known[item.ItemID]
		if !ok {
			return models.Challan{}, models.Invalidf("item %d refers to unknown item_id %q", i+1, item.ItemID)
		}
		if item.Returnable {
			item.ReturnedDate = prev.ReturnedDate
			item.ReturnNote = prev.ReturnNote
		}
	}
	challan.Renumber()

	challan.DCNumber = existing.DCNumber
	challan.Meta = existing.Meta
	challan.Version = input.Version

	saved, err := s.store.SaveChallan(ctx, challan)
	if err != nil {
		return models.Challan{}, fmt.Errorf("update challan: %w", err)
	}
	s.logger.Info("challan updated", zap.String("dc_number", saved.DCNumber), zap.Int64("version", saved.Version))
	s.changed(ctx)
	return saved, nil
}

// Delete removes a challan.
func (s *Service) Delete(ctx context.Context, dcNumber string) error {
	if err := s.store.DeleteChallan(ctx, dcNumber); err != nil {
		return fmt.Errorf("delete challan: %w", err)
	}
	s.logger.Info("challan deleted", zap.String("dc_number", dcNumber))
	s.changed(ctx)
	return nil
}

// Get fetches one challan.
func (s *Service) Get(ctx context.Context, dcNumber string) (models.Challan, error) {
	challan, err := s.store.GetChallan(ctx, dcNumber)
	if err != nil {
		return models.Challan{}, fmt.Errorf("load challan: %w", err)
	}
	return challan, nil
}

// List returns the challans matching filter, newest issue date first.
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Challan, error) {
	all, err := s.store.ListChallans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challans: %w", err)
	}

	var from, to time.Time
	if filter.From != "" {
		if from, err = models.ParseDate(filter.From); err != nil {
			return nil, models.Invalidf("from must be a date (YYYY-MM-DD)")
		}
	}
	if filter.To != "" {
		if to, err = models.ParseDate(filter.To); err != nil {
			return nil, models.Invalidf("to must be a date (YYYY-MM-DD)")
		}
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]models.Challan, 0, len(all))
	for _, c := range all {
		if filter.Client != "" && !strings.EqualFold(c.Client, filter.Client) {
			continue
		}
		if !from.IsZero() || !to.IsZero() {
			issued, err := models.ParseDate(c.Date)
			if err != nil {
				continue
			}
			if (!from.IsZero() && issued.Before(from)) || (!to.IsZero() && issued.After(to)) {
				continue
			}
		}
		if q != "" && !matches(c, q) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out, nil
}

// RemoveItem drops one item from a challan and renumbers the rest.
func (s *Service) RemoveItem(ctx context.Context, dcNumber, itemID string) (models.Challan, error) {
	challan, err := s.store.GetChallan(ctx, dcNumber)
	if err != nil {
		return models.Challan{}, fmt.Errorf("load challan: %w", err)
	}

	kept := challan.Items[:0]
	found := false
	for _, item := range challan.Items {
		if item.ItemID == itemID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return models.Challan{}, fmt.Errorf("%s on %s: %w", itemID, dcNumber, ErrItemNotFound)
	}
	if len(kept) == 0 {
		return models.Challan{}, models.Invalidf("challan %s needs at least one item; delete the challan instead", dcNumber)
	}
	challan.Items = kept
	challan.Renumber()

	saved, err := s.store.SaveChallan(ctx, challan)
	if err != nil {
		return models.Challan{}, fmt.Errorf("remove challan item: %w", err)
	}
	s.logger.Info("challan item removed", zap.String("dc_number", dcNumber), zap.String("item_id", itemID))
	s.changed(ctx)
	return saved, nil
}

// NextNumber previews the DC number the next challan issued on date would get.
func (s *Service) NextNumber(ctx context.Context, date time.Time) (string, error) {
	if date.IsZero() {
		date = s.now().In(s.loc)
	}
	return s.nextNumber(ctx, date)
}

func (s *Service) nextNumber(ctx context.Context, date time.Time) (string, error) {
	all, err := s.store.ListChallans(ctx)
	if err != nil {
		return "", fmt.Errorf("list challans: %w", err)
	}

	mid := models.DCMid(date)
	highest := 0
	for _, c := range all {
		n, err := models.ParseDCNumber(c.DCNumber)
		if err != nil || n.Prefix != s.prefix || n.Mid != mid {
			continue
		}
		if n.Sequence > highest {
			highest = n.Sequence
		}
	}
	if highest >= maxSequence {
		return "", models.Invalidf("no dc numbers left for %s/%s", s.prefix, mid)
	}
	return models.DCNumber{Prefix: s.prefix, Mid: mid, Sequence: highest + 1}.String(), nil
}

// build validates input and resolves the project defaults. It leaves the DC
// number, item ids and line indexes to the caller.
func (s *Service) build(ctx context.Context, input Input) (models.Challan, error) {
	c := models.Challan{
		Date:        strings.TrimSpace(input.Date),
		PreparedBy:  strings.TrimSpace(input.PreparedBy),
		Client:      strings.TrimSpace(input.Client),
		Location:    strings.TrimSpace(input.Location),
		ProjectID:   strings.TrimSpace(input.ProjectID),
		ProjectName: strings.TrimSpace(input.ProjectName),
		PORequired:  input.PORequired,
		PONumber:    strings.TrimSpace(input.PONumber),
		Notes:       strings.TrimSpace(input.Notes),
	}

	if c.ProjectID != "" {
		project, err := s.store.GetProject(ctx, c.ProjectID)
		if errors.Is(err, repository.ErrNotFound) {
			return models.Challan{}, models.Invalidf("unknown project %q", c.ProjectID)
		}
		if err != nil {
			return models.Challan{}, fmt.Errorf("load project: %w", err)
		}
		c.ProjectName = fill(c.ProjectName, project.Name)
		c.Client = fill(c.Client, project.Client)
		c.Location = fill(c.Location, project.Location)
		c.PONumber = fill(c.PONumber, project.PONumber)
	}

	if c.Date == "" {
		c.Date = models.FormatDate(s.now().In(s.loc))
	} else if d, err := models.ParseDate(c.Date); err != nil {
		return models.Challan{}, models.Invalidf("date must be a date (YYYY-MM-DD)")
	} else {
		c.Date = models.FormatDate(d)
	}

	switch {
	case c.PreparedBy == "":
		return models.Challan{}, models.Invalidf("prepared_by is required")
	case c.Client == "":
		return models.Challan{}, models.Invalidf("client is required")
	case c.Location == "":
		return models.Challan{}, models.Invalidf("location is required")
	case c.PORequired && c.PONumber == "":
		return models.Challan{}, models.Invalidf("po_number is required when po_required is set")
	case len(input.Items) == 0:
		return models.Challan{}, models.Invalidf("at least one item is required")
	}
	if !c.PORequired {
		c.PONumber = ""
	}

	c.Items = make([]models.Item, 0, len(input.Items))
	for i, in := range input.Items {
		item, err := buildItem(i+1, in)
		if err != nil {
			return models.Challan{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, nil
}

func buildItem(line int, in ItemInput) (models.Item, error) {
	item := models.Item{
		ItemID:       strings.TrimSpace(in.ItemID),
		AssetName:    strings.TrimSpace(in.AssetName),
		Description:  strings.TrimSpace(in.Description),
		Quantity:     in.Quantity,
		SerialNumber: strings.TrimSpace(in.SerialNumber),
		Returnable:   in.Returnable,
	}
	if item.AssetName == "" {
		return models.Item{}, models.Invalidf("item %d: asset_name is required", line)
	}
	if item.Quantity < 1 {
		return models.Item{}, models.Invalidf("item %d: quantity must be at least 1", line)
	}
	if !item.Returnable {
		return item, nil
	}

	raw := strings.TrimSpace(in.ExpectedReturnDate)
	if raw == "" {
		return models.Item{}, models.Invalidf("item %d: expected_return_date is required for returnable items", line)
	}
	due, err := models.ParseDate(raw)
	if err != nil {
		return models.Item{}, models.Invalidf("item %d: expected_return_date must be a date (YYYY-MM-DD)", line)
	}
	item.ExpectedReturnDate = models.FormatDate(due)
	return item, nil
}

func matches(c models.Challan, q string) bool {
	fields := []string{c.DCNumber, c.Client, c.Location, c.ProjectName, c.PreparedBy, c.PONumber}
	for _, item := range c.Items {
		fields = append(fields, item.AssetName, item.SerialNumber)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func fill(current, fallback string) string {
	if current != "" {
		return current
	}
	return fallback
}

func (s *Service) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}
