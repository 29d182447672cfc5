package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"gitlearn/backend/config"
	"gitlearn/backend/models"
	"gitlearn/backend/routes"
	"gitlearn/backend/testutil"
	"gitlearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	cfg    *config.Config
	mailer *captureMailer
}

// captureMailer keeps sent messages for inspection.
type captureMailer struct {
	mu   sync.Mutex
	sent []utils.Message
	err  error
}

func (m *captureMailer) Send(msg utils.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last() utils.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return utils.Message{}
	}
	return m.sent[len(m.sent)-1]
}

func setup(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		db:     testutil.DB(t),
		cfg:    testutil.Config(),
		mailer: &captureMailer{},
	}
	for _, opt := range opts {
		opt(env.cfg)
	}
	env.app = fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	routes.SetupRoutes(env.app, env.db, env.cfg, testutil.Logger(t), env.mailer)
	return env
}

func (e *testEnv) seed(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()
	u := testutil.SeedUser(t, e.db, username, role)
	return u, testutil.Token(t, e.cfg, u)
}

// do sends a request and decodes the JSON body into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonData, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := setup(t)

	var result map[string]interface{}
	status := env.do(t, fiber.MethodGet, "/api/test", "", nil, &result)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "Server is running successfully!", result["message"])
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
