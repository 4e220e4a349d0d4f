package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStatus is the lifecycle state of a project.
// deployed and cancelled are terminal.
type ProjectStatus string

const (
	StatusDraft         ProjectStatus = "draft"
	StatusPrototype     ProjectStatus = "prototype"
	StatusInDevelopment ProjectStatus = "in-development"
	StatusTesting       ProjectStatus = "testing"
	StatusDeployed      ProjectStatus = "deployed"
	StatusCancelled     ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPrototype, StatusInDevelopment, StatusTesting, StatusDeployed, StatusCancelled:
		return true
	}
	return false
}

func (s ProjectStatus) Terminal() bool {
	return s == StatusDeployed || s == StatusCancelled
}

type ProjectCategory string

const (
	CategoryMobileApp  ProjectCategory = "mobile-app"
	CategoryWebApp     ProjectCategory = "web-app"
	CategoryWebsite    ProjectCategory = "website"
	CategoryAutomation ProjectCategory = "automation"
	CategoryAITool     ProjectCategory = "ai-tool"
	CategoryOther      ProjectCategory = "other"
)

func (c ProjectCategory) Valid() bool {
	switch c {
	case CategoryMobileApp, CategoryWebApp, CategoryWebsite, CategoryAutomation, CategoryAITool, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Feature is one planned capability of a project. The features slice is
// always replaced as a whole, never merged element by element.
type Feature struct {
	Name           string     `bson:"name" json:"name"`
	Description    string     `bson:"description" json:"description"`
	Complexity     Complexity `bson:"complexity" json:"complexity"`
	EstimatedHours int        `bson:"estimated_hours" json:"estimated_hours"`
	Completed      bool       `bson:"completed" json:"completed"`
}

// AIGenerated records whether and how the feature list was produced by the
// suggestion engine.
type AIGenerated struct {
	Flag        bool       `bson:"flag" json:"flag"`
	Prompt      string     `bson:"prompt,omitempty" json:"prompt,omitempty"`
	GeneratedAt *time.Time `bson:"generated_at,omitempty" json:"generated_at,omitempty"`
	Confidence  float64    `bson:"confidence,omitempty" json:"confidence,omitempty"`
}

type Budget struct {
	Planned float64 `bson:"planned" json:"planned"`
	Actual  float64 `bson:"actual" json:"actual"`
}

type Timeline struct {
	PlannedStart *time.Time `bson:"planned_start,omitempty" json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `bson:"planned_end,omitempty" json:"planned_end,omitempty"`
	ActualStart  *time.Time `bson:"actual_start,omitempty" json:"actual_start,omitempty"`
	ActualEnd    *time.Time `bson:"actual_end,omitempty" json:"actual_end,omitempty"`
}

// EntryType is the kind of a communication thread entry.
type EntryType string

const (
	EntryMessage      EntryType = "message"
	EntryFile         EntryType = "file"
	EntryMilestone    EntryType = "milestone"
	EntryStatusUpdate EntryType = "status-update"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryMessage, EntryFile, EntryMilestone, EntryStatusUpdate:
		return true
	}
	return false
}

// ReadReceipt records that a user has seen an entry. A user appears at most
// once per entry.
type ReadReceipt struct {
	User   primitive.ObjectID `bson:"user" json:"user"`
	ReadAt time.Time          `bson:"read_at" json:"read_at"`
}

// CommunicationEntry is one item in a project's embedded thread. Entries are
// append-only: they are never removed or reordered, only annotated with read
// receipts.
type CommunicationEntry struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Type        EntryType          `bson:"type" json:"type"`
	Content     string             `bson:"content" json:"content"`
	Author      primitive.ObjectID `bson:"author" json:"author"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	Attachments []string           `bson:"attachments,omitempty" json:"attachments,omitempty"`
	ReadBy      []ReadReceipt      `bson:"read_by,omitempty" json:"read_by,omitempty"`
}

// ReadByUser reports whether the given user already has a read receipt.
func (e *CommunicationEntry) ReadByUser(userID primitive.ObjectID) bool {
	for _, r := range e.ReadBy {
		if r.User == userID {
			return true
		}
	}
	return false
}

// Project is stored as a single document so status transitions and thread
// appends can be applied atomically in one update.
type Project struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Owner             primitive.ObjectID  `bson:"owner" json:"owner"`
	AssignedDeveloper *primitive.ObjectID `bson:"assigned_developer,omitempty" json:"assigned_developer,omitempty"`

	Title       string          `bson:"title" json:"title"`
	Description string          `bson:"description" json:"description"`
	Category    ProjectCategory `bson:"category" json:"category"`
	Status      ProjectStatus   `bson:"status" json:"status"`
	Priority    Priority        `bson:"priority" json:"priority"`

	Features    []Feature   `bson:"features,omitempty" json:"features"`
	AIGenerated AIGenerated `bson:"ai_generated" json:"ai_generated"`
	Budget      Budget      `bson:"budget" json:"budget"`
	Timeline    Timeline    `bson:"timeline" json:"timeline"`

	Communication []CommunicationEntry `bson:"communication,omitempty" json:"communication"`
}

func (p *Project) IsOwner(userID primitive.ObjectID) bool {
	return p.Owner == userID
}

func (p *Project) IsAssignedDeveloper(userID primitive.ObjectID) bool {
	return p.AssignedDeveloper != nil && *p.AssignedDeveloper == userID
}

// EntryByID returns the thread entry with the given id, or nil.
func (p *Project) EntryByID(entryID primitive.ObjectID) *CommunicationEntry {
	for i := range p.Communication {
		if p.Communication[i].ID == entryID {
			return &p.Communication[i]
		}
	}
	return nil
}
