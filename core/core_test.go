package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.NotEmpty(t, id)
	assert.Len(t, id, 36) // UUID length
	assert.NotEqual(t, id, NewID())
}

func TestNewMessage(t *testing.T) {
	m := NewMessage(RoleRequester, "hello")

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, RoleRequester, m.Role)
	assert.Equal(t, "hello", m.Content)
	assert.False(t, m.Timestamp.IsZero())
	assert.Nil(t, m.Invocation)
}

func TestNewInvocationMessage(t *testing.T) {
	m := NewInvocationMessage("capability mail.send_email returned: ok", InvocationRef{
		Capability: "mail", Action: "send_email", Attempts: 2,
	})

	assert.Equal(t, RoleSystem, m.Role)
	require.NotNil(t, m.Invocation)
	assert.Equal(t, "mail", m.Invocation.Capability)
	assert.Equal(t, 2, m.Invocation.Attempts)
}

func TestNewRequestContext(t *testing.T) {
	rc := NewRequestContext("sess")

	assert.Equal(t, "sess", rc.SessionID)
	assert.NotEmpty(t, rc.RequestID)
	assert.False(t, rc.Now.IsZero())
	assert.NotEmpty(t, rc.Timezone)
}

func TestCallBudget(t *testing.T) {
	b := NewCallBudget(2)

	require.NoError(t, b.Acquire())
	require.NoError(t, b.Acquire())
	assert.Equal(t, 2, b.Count())
	assert.Equal(t, 0, b.Remaining())

	err := b.Acquire()
	var exceeded *BudgetExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 2, exceeded.Max)
}

func TestCallBudget_Unlimited(t *testing.T) {
	b := NewCallBudget(0)

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Acquire())
	}
	assert.Equal(t, -1, b.Remaining())
}

func TestDelegationResultConstructors(t *testing.T) {
	assert.Equal(t, OutcomeAnswered, Answered("hi").Outcome)
	assert.Equal(t, OutcomeInvoked, Invoked("done").Outcome)

	relayed := Relayed("child", "text")
	assert.Equal(t, OutcomeDelegated, relayed.Outcome)
	assert.Equal(t, "child", relayed.Worker)

	failed := Failed(assert.AnError)
	assert.Equal(t, OutcomeFailed, failed.Outcome)
	assert.ErrorIs(t, failed.Err, assert.AnError)
}
