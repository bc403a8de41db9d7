package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

// Store is the persistence the catalog service needs.
type Store interface {
	repository.ProjectRepository
	repository.ClientRepository
	repository.LocationRepository
}

// Service manages the projects, clients and locations used to fill challans.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a catalog service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// ListProjects returns every project.
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject fetches one project.
func (s *Service) GetProject(ctx context.Context, id string) (models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, fmt.Errorf("load project: %w", err)
	}
	return project, nil
}

// CreateProject stores a new project under a fresh id.
func (s *Service) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	if err := normalizeProject(&project); err != nil {
		return models.Project{}, err
	}
	project.ID = uuid.NewString()
	project.Meta = models.Meta{}

	saved, err := s.store.SaveProject(ctx, project)
	if err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// UpdateProject replaces the project stored under id. project.Version must match.
func (s *Service) UpdateProject(ctx context.Context, id string, project models.Project) (models.Project, error) {
	if err := normalizeProject(&project); err != nil {
		return models.Project{}, err
	}
	if err := requireVersion(project.Version); err != nil {
		return models.Project{}, err
	}
	project.ID = id

	saved, err := s.store.SaveProject(ctx, project)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	return saved, nil
}

// DeleteProject removes a project. Challans keep the copied project name.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.logger.Info("project deleted", zap.String("id", id))
	return nil
}

// ListClients returns every client.
func (s *Service) ListClients(ctx context.Context) ([]models.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// GetClient fetches one client.
func (s *Service) GetClient(ctx context.Context, id string) (models.Client, error) {
	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return models.Client{}, fmt.Errorf("load client: %w", err)
	}
	return client, nil
}

// CreateClient stores a new client. Names are unique regardless of case.
func (s *Service) CreateClient(ctx context.Context, client models.Client) (models.Client, error) {
	if err := s.checkClient(ctx, "", &client); err != nil {
		return models.Client{}, err
	}
	client.ID = uuid.NewString()
	client.Meta = models.Meta{}

	saved, err := s.store.SaveClient(ctx, client)
	if err != nil {
		return models.Client{}, fmt.Errorf("create client: %w", err)
	}
	s.logger.Info("client created", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// UpdateClient replaces the client stored under id.
func (s *Service) UpdateClient(ctx context.Context, id string, client models.Client) (models.Client, error) {
	if err := requireVersion(client.Version); err != nil {
		return models.Client{}, err
	}
	if err := s.checkClient(ctx, id, &client); err != nil {
		return models.Client{}, err
	}
	client.ID = id

	saved, err := s.store.SaveClient(ctx, client)
	if err != nil {
		return models.Client{}, fmt.Errorf("update client: %w", err)
	}
	return saved, nil
}

// DeleteClient removes a client.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	s.logger.Info("client deleted", zap.String("id", id))
	return nil
}

// ListLocations returns every location.
func (s *Service) ListLocations(ctx context.Context) ([]models.Location, error) {
	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// GetLocation fetches one location.
func (s *Service) GetLocation(ctx context.Context, id string) (models.Location, error) {
	location, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return models.Location{}, fmt.Errorf("load location: %w", err)
	}
	return location, nil
}

// CreateLocation stores a new location. Names are unique regardless of case.
func (s *Service) CreateLocation(ctx context.Context, location models.Location) (models.Location, error) {
	if err := s.checkLocation(ctx, "", &location); err != nil {
		return models.Location{}, err
	}
	location.ID = uuid.NewString()
	location.Meta = models.Meta{}

	saved, err := s.store.SaveLocation(ctx, location)
	if err != nil {
		return models.Location{}, fmt.Errorf("create location: %w", err)
	}
	s.logger.Info("location created", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// UpdateLocation replaces the location stored under id.
func (s *Service) UpdateLocation(ctx context.Context, id string, location models.Location) (models.Location, error) {
	if err := requireVersion(location.Version); err != nil {
		return models.Location{}, err
	}
	if err := s.checkLocation(ctx, id, &location); err != nil {
		return models.Location{}, err
	}
	location.ID = id

	saved, err := s.store.SaveLocation(ctx, location)
	if err != nil {
		return models.Location{}, fmt.Errorf("update location: %w", err)
	}
	return saved, nil
}

// DeleteLocation removes a location.
func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	if err := s.store.DeleteLocation(ctx, id); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	s.logger.Info("location deleted", zap.String("id", id))
	return nil
}

func normalizeProject(p *models.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Client = strings.TrimSpace(p.Client)
	p.Location = strings.TrimSpace(p.Location)
	p.PONumber = strings.TrimSpace(p.PONumber)
	if p.Name == "" {
		return models.Invalidf("project name is required")
	}

	persons := p.Persons[:0]
	for _, person := range p.Persons {
		if person = strings.TrimSpace(person); person != "" {
			persons = append(persons, person)
		}
	}
	p.Persons = persons
	return nil
}

func (s *Service) checkClient(ctx context.Context, id string, c *models.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	c.ContactPerson = strings.TrimSpace(c.ContactPerson)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	if c.Name == "" {
		return models.Invalidf("client name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return models.Invalidf("client email %q is not valid", c.Email)
	}

	existing, err := s.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	for _, other := range existing {
		if other.ID != id && strings.EqualFold(other.Name, c.Name) {
			return models.Invalidf("client %q already exists", c.Name)
		}
	}
	return nil
}

func (s *Service) checkLocation(ctx context.Context, id string, l *models.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	l.Address = strings.TrimSpace(l.Address)
	l.City = strings.TrimSpace(l.City)
	if l.Name == "" {
		return models.Invalidf("location name is required")
	}

	existing, err := s.store.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	for _, other := range existing {
		if other.ID != id && strings.EqualFold(other.Name, l.Name) {
			return models.Invalidf("location %q already exists", l.Name)
		}
	}
	return nil
}

func requireVersion(v int64) error {
	if v <= 0 {
		return models.Invalidf("version is required")
	}
	return nil
}
