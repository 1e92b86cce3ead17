package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-portal/internal/domain"
)

func TestMessage_SendAndRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.approvedUser(t, "a@x.io", domain.RoleIntern)
	b := e.approvedUser(t, "b@x.io", domain.RoleEmployer)
	c := e.approvedUser(t, "c@x.io", domain.RoleIntern)

	m, err := e.messages.Send(ctx, a.ID, SendInput{ReceiverID: b.ID, Subject: "Hi", Content: "About the post"})
	require.NoError(t, err)
	assert.False(t, m.IsRead)

	n, err := e.messages.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// 发件人查看不改变已读状态
	got, err := e.messages.Read(ctx, a.ID, m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRead)

	_, err = e.messages.Read(ctx, c.ID, m.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err = e.messages.Read(ctx, b.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	n, err = e.messages.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	inbox, err := e.messages.Inbox(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	sent, err := e.messages.Sent(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, m.ID, sent[0].ID)
}

func TestMessage_SendValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.approvedUser(t, "a@x.io", domain.RoleIntern)

	_, err := e.messages.Send(ctx, a.ID, SendInput{ReceiverID: a.ID, Content: "  "})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = e.messages.Send(ctx, a.ID, SendInput{ReceiverID: "missing", Content: "hi"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	r, err := e.messages.Recipient(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test User", r.FullName)
	assert.Equal(t, "a@x.io", r.Email)
}
