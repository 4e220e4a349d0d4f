package engine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

// memStore is an in-memory Store for engine tests. It mimics the Mongo
// implementation's semantics: updates are applied whole, read receipts are
// deduplicated, and missing documents return ErrNotFound.
type memStore struct {
	projects map[primitive.ObjectID]*models.Project
	users    map[primitive.ObjectID]*models.User
	events   map[string]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		projects: make(map[primitive.ObjectID]*models.Project),
		users:    make(map[primitive.ObjectID]*models.User),
		events:   make(map[string]struct{}),
	}
}

func (m *memStore) addUser(name string, role models.Role) *models.User {
	u := &models.User{
		ID:   primitive.NewObjectID(),
		Name: name,
		Role: role,
	}
	m.users[u.ID] = u
	return u
}

func cloneProject(p *models.Project) *models.Project {
	cp := *p
	cp.Features = append([]models.Feature(nil), p.Features...)
	cp.Communication = make([]models.CommunicationEntry, len(p.Communication))
	for i, e := range p.Communication {
		e.ReadBy = append([]models.ReadReceipt(nil), e.ReadBy...)
		e.Attachments = append([]string(nil), e.Attachments...)
		cp.Communication[i] = e
	}
	return &cp
}

func (m *memStore) ProjectByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(p), nil
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) InsertProject(_ context.Context, p *models.Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func applyProjectFields(p *models.Project, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = v.(string)
		case "description":
			p.Description = v.(string)
		case "category":
			p.Category = v.(models.ProjectCategory)
		case "priority":
			p.Priority = v.(models.Priority)
		case "features":
			p.Features = v.([]models.Feature)
		case "budget":
			p.Budget = v.(models.Budget)
		case "timeline":
			p.Timeline = v.(models.Timeline)
		case "status":
			p.Status = v.(models.ProjectStatus)
		case "timeline.actual_end":
			t := v.(time.Time)
			p.Timeline.ActualEnd = &t
		case "assigned_developer":
			id := v.(primitive.ObjectID)
			p.AssignedDeveloper = &id
		case "ai_generated":
			p.AIGenerated = v.(models.AIGenerated)
		case "updated_at":
			p.UpdatedAt = v.(time.Time)
		}
	}
}

func (m *memStore) UpdateProjectFields(_ context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	applyProjectFields(p, fields)
	return nil
}

func (m *memStore) TransitionProject(_ context.Context, id primitive.ObjectID, fields map[string]interface{}, entry models.CommunicationEntry) error {
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	applyProjectFields(p, fields)
	p.Communication = append(p.Communication, entry)
	return nil
}

func (m *memStore) AppendCommunication(_ context.Context, id primitive.ObjectID, entry models.CommunicationEntry) error {
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.Communication = append(p.Communication, entry)
	return nil
}

func (m *memStore) MarkEntryRead(_ context.Context, projectID, entryID primitive.ObjectID, receipt models.ReadReceipt) error {
	p, ok := m.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	entry := p.EntryByID(entryID)
	if entry == nil {
		return nil
	}
	if entry.ReadByUser(receipt.User) {
		return nil
	}
	entry.ReadBy = append(entry.ReadBy, receipt)
	return nil
}

func (m *memStore) CreditProjectBudget(_ context.Context, id primitive.ObjectID, amount float64, entry models.CommunicationEntry) error {
	p, ok := m.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.Budget.Actual += amount
	p.Communication = append(p.Communication, entry)
	return nil
}

func (m *memStore) MarkPaymentEventProcessed(_ context.Context, eventID string) error {
	if _, ok := m.events[eventID]; ok {
		return ErrConflict
	}
	m.events[eventID] = struct{}{}
	return nil
}

func (m *memStore) DeleteProject(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// newTestEngine returns an engine whose clock advances one second per call,
// so appended entries get strictly increasing timestamps.
func newTestEngine(s *memStore) *Engine {
	e := New(s)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return e
}

// seedProject inserts a project directly into the store.
func seedProject(s *memStore, owner primitive.ObjectID, status models.ProjectStatus) *models.Project {
	p := &models.Project{
		ID:       primitive.NewObjectID(),
		Owner:    owner,
		Title:    "Fitness tracker app",
		Category: models.CategoryMobileApp,
		Status:   status,
		Priority: models.PriorityMedium,
	}
	s.projects[p.ID] = p
	return p
}
