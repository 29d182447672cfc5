package client

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gitlearn/backend/models"
	"gitlearn/backend/routes"
	"gitlearn/backend/testutil"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs the real API on a loopback port and returns its base URL.
func startServer(t *testing.T) string {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	testutil.SeedUser(t, db, "alice", models.RoleStudent)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler, DisableStartupMessage: true})
	routes.SetupRoutes(app, db, testutil.Config(), log, &utils.LogMailer{Logger: log})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func signedIn(t *testing.T, baseURL string) *Session {
	t.Helper()
	session := NewSession(filepath.Join(t.TempDir(), "session.json"))
	_, err := NewAuthClient(baseURL, session, time.Second).Login(context.Background(), "alice@example.com", "password")
	require.NoError(t, err)
	return session
}

func TestLoginStoresSession(t *testing.T) {
	baseURL := startServer(t)
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	session := NewSession(path)
	auth := NewAuthClient(baseURL, session, time.Second)

	user, err := auth.Login(context.Background(), "alice@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, session.Authenticated())

	// a fresh process picks the session up from disk
	restored := NewSession(path)
	require.NoError(t, restored.Load())
	assert.Equal(t, session.Token(), restored.Token())
	stored, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, user, stored)

	profile, err := NewAuthClient(baseURL, restored, time.Second).Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)

	require.NoError(t, auth.Logout())
	assert.False(t, session.Authenticated())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoginRejected(t *testing.T) {
	baseURL := startServer(t)
	session := NewSession("")

	_, err := NewAuthClient(baseURL, session, time.Second).Login(context.Background(), "alice@example.com", "nope")
	require.Error(t, err)
	assert.True(t, IsStatus(err, fiber.StatusUnauthorized))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.False(t, session.Authenticated())
}

func TestProgressClientRoundTrip(t *testing.T) {
	baseURL := startServer(t)
	pc := NewProgressClient(baseURL, signedIn(t, baseURL), time.Second)
	ctx := context.Background()

	all, err := pc.GetAllProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	record, err := pc.GetModuleProgress(ctx, "git-basics")
	require.NoError(t, err)
	assert.Equal(t, 0, record.Progress)
	assert.Empty(t, record.Exercises)

	done := true
	record, err = pc.UpdateExerciseProgress(ctx, "git-basics", "init-repo", models.ExerciseProgressUpdate{
		Completed:      &done,
		CompletedSteps: &[]int{0, 1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, record.Progress)

	steps := []int{0}
	record, err = pc.UpdateExerciseProgress(ctx, "git-basics", "first-commit", models.ExerciseProgressUpdate{CompletedSteps: &steps})
	require.NoError(t, err)
	assert.Equal(t, 50, record.Progress)
	assert.False(t, record.Completed)

	progress := 100
	record, err = pc.UpdateModuleProgress(ctx, "branching-basics", models.ModuleProgressUpdate{Completed: &done, Progress: &progress})
	require.NoError(t, err)
	assert.True(t, record.Completed)

	all, err = pc.GetAllProgress(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProgressClientErrors(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	_, err := NewProgressClient(baseURL, NewSession(""), time.Second).GetAllProgress(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	stale := NewSession("")
	require.NoError(t, stale.Save("not-a-jwt", models.PublicUser{Username: "alice"}))
	_, err = NewProgressClient(baseURL, stale, time.Second).GetAllProgress(ctx)
	assert.True(t, IsStatus(err, fiber.StatusUnauthorized))

	pc := NewProgressClient(baseURL, signedIn(t, baseURL), time.Second)
	tooMuch := 150
	_, err = pc.UpdateModuleProgress(ctx, "git-basics", models.ModuleProgressUpdate{Progress: &tooMuch})
	assert.True(t, IsStatus(err, fiber.StatusBadRequest))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = pc.GetAllProgress(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	session := NewSession("")
	require.NoError(t, session.Save("token", models.PublicUser{}))

	_, err = NewProgressClient("http://"+addr, session, 200*time.Millisecond).GetModuleProgress(context.Background(), "git-basics")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestSessionLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	missing := NewSession(filepath.Join(dir, "none.json"))
	require.NoError(t, missing.Load())
	assert.False(t, missing.Authenticated())

	corrupt := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{"), 0o600))
	assert.Error(t, NewSession(corrupt).Load())

	// clearing twice is fine
	s := NewSession(filepath.Join(dir, "s.json"))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
}
