package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"gitlearn/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "testsecret", JWTTTL: time.Hour}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateJWTToken(42, "lecturer", cfg)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "lecturer", claims.Role)
}

func TestParseJWTTokenRejectsForeignSecret(t *testing.T) {
	token, err := GenerateJWTToken(1, "student", &config.Config{JWTSecret: "other", JWTTTL: time.Hour})
	require.NoError(t, err)

	_, err = ParseJWTToken(token, testConfig())
	assert.Error(t, err)

	_, err = ParseJWTToken("", testConfig())
	assert.Error(t, err)
}

func TestParseJWTTokenRejectsExpired(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret", JWTTTL: -time.Minute}
	token, err := GenerateJWTToken(1, "student", cfg)
	require.NoError(t, err)

	_, err = ParseJWTToken(token, cfg)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})

	for header, want := range map[string]string{
		"Bearer abc.def": "abc.def",
		"bearer abc":     "abc",
		"abc":            "abc",
		"":               "",
	} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		assert.Equal(t, want, string(buf[:n]), "header %q", header)
	}
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `json:"email" validate:"required,email"`
		Age   *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=100"`
	}

	assert.Nil(t, ValidateStruct(input{Email: "a@b.co"}))

	bad := 200
	errs := ValidateStruct(input{Email: "nope", Age: &bad})
	require.Len(t, errs, 2)
	assert.Equal(t, "failed email", errs["email"])
	assert.Equal(t, "failed lte=100", errs["age"])
}

func TestInitLogger(t *testing.T) {
	logger, err := InitLogger(LoggerConfig{Format: "json", Level: "debug", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	logger.Debugw("hello", "k", "v")

	logger, err = InitLogger(LoggerConfig{Level: "loud"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
