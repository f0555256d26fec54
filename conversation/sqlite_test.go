package conversation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmesh/deskmesh/core"
)

// Interface compliance (compile-time assertion)
var _ Store = (*SQLiteStore)(nil)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStore_AppendRead(t *testing.T) {
	s, _ := openTestStore(t)
	appendN(t, s, "w1", "sess", 3, 10)

	msgs, err := s.Read(context.Background(), "w1", "sess", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-0", msgs[0].Content)
	assert.Equal(t, "msg-2", msgs[2].Content)
	assert.Equal(t, core.RoleRequester, msgs[0].Role)
	assert.NotEmpty(t, msgs[0].ID)
}

func TestSQLiteStore_WindowEviction(t *testing.T) {
	s, _ := openTestStore(t)
	appendN(t, s, "w1", "sess", 7, 3)

	msgs, err := s.Read(context.Background(), "w1", "sess", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-4", msgs[0].Content)
	assert.Equal(t, "msg-6", msgs[2].Content)

	// The trim happens inside the append transaction, so even an unbounded
	// read sees at most window rows.
	all, err := s.Read(context.Background(), "w1", "sess", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	appendN(t, s, "w1", "sess", 2, 10)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	msgs, err := reopened.Read(context.Background(), "w1", "sess", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "msg-0", msgs[0].Content)
}

func TestSQLiteStore_InvocationRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)

	msg := core.NewInvocationMessage("capability mail.send_email returned: ok", core.InvocationRef{
		Capability: "mail",
		Action:     "send_email",
		Attempts:   2,
	})
	require.NoError(t, s.Append(context.Background(), "w1", "sess", msg, 10))

	failed := core.NewInvocationMessage("capability mail.send_email failed", core.InvocationRef{
		Capability: "mail",
		Action:     "send_email",
		Attempts:   3,
		Error:      "mailbox full",
	})
	require.NoError(t, s.Append(context.Background(), "w1", "sess", failed, 10))

	msgs, err := s.Read(context.Background(), "w1", "sess", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.NotNil(t, msgs[0].Invocation)
	assert.Equal(t, "mail", msgs[0].Invocation.Capability)
	assert.Equal(t, 2, msgs[0].Invocation.Attempts)
	assert.Empty(t, msgs[0].Invocation.Error)

	require.NotNil(t, msgs[1].Invocation)
	assert.Equal(t, "mailbox full", msgs[1].Invocation.Error)
}

func TestSQLiteStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
}

func TestSQLiteStore_UnknownPairIsEmpty(t *testing.T) {
	s, _ := openTestStore(t)

	msgs, err := s.Read(context.Background(), "nobody", "nowhere", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
