package engine

import (
	"context"
	"sort"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

const (
	maxContentLength    = 2000
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

// AppendCommunication is the single mutation path for the thread: chat
// messages, file notes, milestones and status updates all go through here.
func (e *Engine) AppendCommunication(ctx context.Context, actor Actor, projectID primitive.ObjectID, entryType models.EntryType, content string, attachments []string) (*models.CommunicationEntry, error) {
	p, err := e.store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanAccessThread(actor, p) {
		return nil, ErrAccessDenied
	}
	if !entryType.Valid() {
		return nil, invalid("type", "unknown entry type")
	}
	if content == "" {
		return nil, invalid("content", "content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, invalid("content", "content must be at most 2000 characters")
	}

	entry := models.CommunicationEntry{
		ID:          primitive.NewObjectID(),
		Type:        entryType,
		Content:     content,
		Author:      actor.ID,
		Timestamp:   e.now(),
		Attachments: attachments,
	}
	if err := e.store.AppendCommunication(ctx, projectID, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarkRead records that the actor has seen an entry. Idempotent: marking an
// already-read entry is a no-op, not an error.
func (e *Engine) MarkRead(ctx context.Context, actor Actor, projectID, entryID primitive.ObjectID) error {
	p, err := e.store.ProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !CanAccessThread(actor, p) {
		return ErrAccessDenied
	}
	entry := p.EntryByID(entryID)
	if entry == nil {
		return ErrNotFound
	}
	if entry.ReadByUser(actor.ID) {
		return nil
	}
	return e.store.MarkEntryRead(ctx, projectID, entryID, models.ReadReceipt{
		User:   actor.ID,
		ReadAt: e.now(),
	})
}

// ListMessages returns one page of message-type entries. Pagination walks
// backward from the most recent message, but entries within a page come back
// oldest-first so a client renders them top to bottom.
func (e *Engine) ListMessages(ctx context.Context, actor Actor, projectID primitive.ObjectID, page, limit int) ([]models.CommunicationEntry, int, error) {
	p, err := e.store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if !CanAccessThread(actor, p) {
		return nil, 0, ErrAccessDenied
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxMessageLimit {
		limit = defaultMessageLimit
	}

	var messages []models.CommunicationEntry
	for _, entry := range p.Communication {
		if entry.Type == models.EntryMessage {
			messages = append(messages, entry)
		}
	}

	// Newest first for pagination.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})

	total := len(messages)
	start := (page - 1) * limit
	if start >= total {
		return []models.CommunicationEntry{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageEntries := messages[start:end]

	// Back to oldest-first within the page.
	out := make([]models.CommunicationEntry, len(pageEntries))
	for i, entry := range pageEntries {
		out[len(pageEntries)-1-i] = entry
	}
	return out, total, nil
}

// UnreadCount counts message entries the viewer has no read receipt on.
func (e *Engine) UnreadCount(ctx context.Context, actor Actor, projectID primitive.ObjectID) (int, error) {
	p, err := e.store.ProjectByID(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if !CanAccessThread(actor, p) {
		return 0, ErrAccessDenied
	}

	count := 0
	for i := range p.Communication {
		entry := &p.Communication[i]
		if entry.Type == models.EntryMessage && !entry.ReadByUser(actor.ID) {
			count++
		}
	}
	return count, nil
}
