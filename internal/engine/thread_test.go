package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/models"
)

func TestAppendCommunication(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	dev := s.addUser("Lee Chen", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)
	devID := dev.ID
	p.AssignedDeveloper = &devID

	first, err := e.AppendCommunication(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID, models.EntryMessage, "How is it going?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.EntryMessage, first.Type)
	assert.Equal(t, owner.ID, first.Author)
	assert.False(t, first.ID.IsZero())

	second, err := e.AppendCommunication(context.Background(), Actor{ID: dev.ID, Role: dev.Role}, p.ID, models.EntryMessage, "Almost done with the API", nil)
	require.NoError(t, err)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Communication, 2)
	assert.Equal(t, "How is it going?", stored.Communication[0].Content)
	assert.Equal(t, "Almost done with the API", stored.Communication[1].Content)
}

func TestAppendCommunicationValidation(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusDraft)
	actor := Actor{ID: owner.ID, Role: owner.Role}

	var verr *ValidationError

	_, err := e.AppendCommunication(context.Background(), actor, p.ID, "shout", "hello", nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)

	_, err = e.AppendCommunication(context.Background(), actor, p.ID, models.EntryMessage, "", nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)

	_, err = e.AppendCommunication(context.Background(), actor, p.ID, models.EntryMessage, strings.Repeat("a", 2001), nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)

	// Exactly at the limit is fine.
	_, err = e.AppendCommunication(context.Background(), actor, p.ID, models.EntryMessage, strings.Repeat("a", 2000), nil)
	require.NoError(t, err)

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Communication, 1)
}

func TestThreadAccessExcludesAdminsAndStrangers(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	admin := s.addUser("Ada Ng", models.RoleAdmin)
	stranger := s.addUser("Sam Ortiz", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusDraft)

	// Admins read projects but do not take part in the conversation.
	_, err := e.AppendCommunication(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, models.EntryMessage, "hi", nil)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = e.AppendCommunication(context.Background(), Actor{ID: stranger.ID, Role: stranger.Role}, p.ID, models.EntryMessage, "hi", nil)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, _, err = e.ListMessages(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, p.ID, 1, 10)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = e.UnreadCount(context.Background(), Actor{ID: stranger.ID, Role: stranger.Role}, p.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	dev := s.addUser("Lee Chen", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)
	devID := dev.ID
	p.AssignedDeveloper = &devID

	entry, err := e.AppendCommunication(context.Background(), Actor{ID: owner.ID, Role: owner.Role}, p.ID, models.EntryMessage, "ping", nil)
	require.NoError(t, err)

	devActor := Actor{ID: dev.ID, Role: dev.Role}
	require.NoError(t, e.MarkRead(context.Background(), devActor, p.ID, entry.ID))
	require.NoError(t, e.MarkRead(context.Background(), devActor, p.ID, entry.ID))

	stored, err := s.ProjectByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Communication, 1)
	require.Len(t, stored.Communication[0].ReadBy, 1)
	assert.Equal(t, dev.ID, stored.Communication[0].ReadBy[0].User)

	err = e.MarkRead(context.Background(), devActor, p.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMessagesPagination(t *testing.T) {
	s := newMemStore()
	owner := s.addUser("Priya Shah", models.RoleUser)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p.Communication = append(p.Communication, models.CommunicationEntry{
			ID:        primitive.NewObjectID(),
			Type:      models.EntryMessage,
			Content:   "message " + string(rune('1'+i)),
			Author:    owner.ID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	// Non-message entries never show up in the message listing.
	p.Communication = append(p.Communication, models.CommunicationEntry{
		ID:        primitive.NewObjectID(),
		Type:      models.EntryStatusUpdate,
		Content:   "Status changed from draft to prototype",
		Author:    owner.ID,
		Timestamp: base.Add(10 * time.Minute),
	})

	e := newTestEngine(s)
	actor := Actor{ID: owner.ID, Role: owner.Role}

	// Page 1: the two most recent messages, oldest of the pair first.
	page1, total, err := e.ListMessages(context.Background(), actor, p.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "message 4", page1[0].Content)
	assert.Equal(t, "message 5", page1[1].Content)

	page2, _, err := e.ListMessages(context.Background(), actor, p.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "message 2", page2[0].Content)
	assert.Equal(t, "message 3", page2[1].Content)

	page3, _, err := e.ListMessages(context.Background(), actor, p.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "message 1", page3[0].Content)

	page4, total, err := e.ListMessages(context.Background(), actor, p.ID, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page4)

	// Out-of-range inputs fall back to defaults instead of erroring.
	all, _, err := e.ListMessages(context.Background(), actor, p.ID, 0, 500)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "message 1", all[0].Content)
	assert.Equal(t, "message 5", all[4].Content)
}

func TestUnreadCount(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)
	owner := s.addUser("Priya Shah", models.RoleUser)
	dev := s.addUser("Lee Chen", models.RoleDeveloper)
	p := seedProject(s, owner.ID, models.StatusInDevelopment)
	devID := dev.ID
	p.AssignedDeveloper = &devID

	ownerActor := Actor{ID: owner.ID, Role: owner.Role}
	devActor := Actor{ID: dev.ID, Role: dev.Role}

	var entries []primitive.ObjectID
	for _, content := range []string{"one", "two", "three"} {
		entry, err := e.AppendCommunication(context.Background(), ownerActor, p.ID, models.EntryMessage, content, nil)
		require.NoError(t, err)
		entries = append(entries, entry.ID)
	}
	// Milestones are not messages and never count as unread.
	_, err := e.AppendCommunication(context.Background(), ownerActor, p.ID, models.EntryMilestone, "Kickoff done", nil)
	require.NoError(t, err)

	count, err := e.UnreadCount(context.Background(), devActor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, e.MarkRead(context.Background(), devActor, p.ID, entries[0]))
	count, err = e.UnreadCount(context.Background(), devActor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, id := range entries[1:] {
		require.NoError(t, e.MarkRead(context.Background(), devActor, p.ID, id))
	}
	count, err = e.UnreadCount(context.Background(), devActor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
