package integration

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ai-toolkit-be/internal/bootstrap"
	"ai-toolkit-be/internal/config"
	"ai-toolkit-be/internal/dto"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/pkg/serverutils"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/internal/server"
	"ai-toolkit-be/pkg/database"
	"ai-toolkit-be/pkg/energy/engine"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the HTTP surface end to end against a real database. Needs
// DB_CONNECTION_STRING and JWT_SECRET; skipped otherwise.
func TestEnergyAPI(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	uowFactory := unitofwork.NewRepositoryFactory(db)
	eng := engine.New(uowFactory, testLogger{})

	// Seed a user with a known balance.
	userId := uuid.New()
	email := "energy-api-" + userId.String()[:8] + "@example.com"
	uow := uowFactory.NewUnitOfWork(t.Context())
	require.NoError(t, uow.UserRepository().Create(t.Context(), &entity.User{
		Id:        userId,
		Email:     email,
		FullName:  "Integration User",
		Role:      entity.UserRoleUser,
		Status:    entity.UserStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))
	_, err = eng.Provision(t.Context(), userId, 100)
	require.NoError(t, err)

	t.Cleanup(func() {
		cleanupUow := uowFactory.NewUnitOfWork(t.Context())
		_ = cleanupUow.EnergyBalanceRepository().Delete(t.Context(), userId)
		_ = cleanupUow.UserRepository().Delete(t.Context(), userId)
	})

	token := signToken(t, userId, "user")

	t.Run("get stats", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/energy", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var body serverutils.BaseResponse[dto.EnergyStatsResponse]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(100), body.Data.Balance)
		assert.Equal(t, body.Data.Balance, body.Data.TotalEarned-body.Data.TotalSpent)
	})

	t.Run("debit known tool", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.DebitRequest{ToolName: "summarizer"})
		req := httptest.NewRequest("POST", "/api/energy/debit", strings.NewReader(string(reqBody)))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var body serverutils.BaseResponse[dto.DebitResponse]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(3), body.Data.Amount)
		assert.Equal(t, int64(97), body.Data.NewBalance)
	})

	t.Run("insufficient funds carries shortfall", func(t *testing.T) {
		// Drain the balance with developer_tool debits, then one more.
		for {
			reqBody, _ := json.Marshal(dto.DebitRequest{ToolName: "developer_tool"})
			req := httptest.NewRequest("POST", "/api/energy/debit", strings.NewReader(string(reqBody)))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			if resp.StatusCode == fiber.StatusPaymentRequired {
				var body serverutils.BaseResponse[dto.InsufficientEnergyResponse]
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.False(t, body.Success)
				assert.Equal(t, int64(10), body.Data.Required)
				assert.Equal(t, body.Data.Required-body.Data.Balance, body.Data.Shortfall)
				break
			}
			require.Equal(t, 200, resp.StatusCode)
		}
	})

	t.Run("non-admin cannot grant", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.GrantRequest{TargetUserId: userId, Amount: 50, Reason: "self serve"})
		req := httptest.NewRequest("POST", "/api/admin/energy/grant", strings.NewReader(string(reqBody)))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("tool catalog is public", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/tools", nil)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var body serverutils.BaseResponse[[]dto.ToolResponse]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Data)
	})
}

func signToken(t *testing.T, userId uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	require.NoError(t, err)
	return signed
}

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }
