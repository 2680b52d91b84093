package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aidar/member-crm/internal/app"
	"github.com/aidar/member-crm/internal/config"
	"github.com/aidar/member-crm/internal/domain"
	repo "github.com/aidar/member-crm/internal/repository/postgres"
	"github.com/aidar/member-crm/internal/service"
	"github.com/aidar/member-crm/migrations"
)

const (
	testJWTSecret     = "test-jwt-secret-key-for-integration-tests"
	testStaffEmail    = "ops@example.com"
	testStaffPassword = "integration-pass"
)

// TestEnvironment содержит все ресурсы необходимые для интеграционных тестов
type TestEnvironment struct {
	PostgresContainer *postgres.PostgresContainer
	App               *app.App
	BaseURL           string
	DB                *pgxpool.Pool
	ctx               context.Context
}

// SetupTestEnvironment создает и инициализирует полное тестовое окружение
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	ctx := context.Background()

	// Запускаем PostgreSQL контейнер
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("member_crm_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	// Подключение для миграций, сидов и прямых запросов в тестах
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	applyMigrations(t, pool)
	seedStaff(t, pool)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	// Используем высокий порт для тестов чтобы избежать конфликтов.
	// Redis, Slack и SES не настроены: claim'ы хранятся в PostgreSQL, уведомления отключены
	testPort := "18080"
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         testPort,
			Host:         "127.0.0.1",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:     host,
			Port:     port.Port(),
			User:     "test_user",
			Password: "test_password",
			Name:     "member_crm_test",
			SSLMode:  "disable",
			MaxConns: 10,
			MinConns: 2,
		},
		JWT: config.JWTConfig{
			Secret:          testJWTSecret,
			ExpirationHours: 24,
		},
		Redis: config.RedisConfig{
			ClaimTTL: time.Hour,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
		},
		Webhooks: config.WebhookConfig{
			MaxBodyBytes: 1 << 20,
		},
	}

	application, err := app.New(cfg)
	require.NoError(t, err, "Failed to create application")

	err = application.Initialize(ctx)
	require.NoError(t, err, "Failed to initialize application")

	// Запускаем сервер в фоне
	go func() {
		if err := application.Run(); err != nil && err != http.ErrServerClosed {
			t.Logf("Server error: %v", err)
		}
	}()

	return &TestEnvironment{
		PostgresContainer: pgContainer,
		App:               application,
		BaseURL:           fmt.Sprintf("http://%s:%s", cfg.Server.Host, testPort),
		DB:                pool,
		ctx:               ctx,
	}
}

// Cleanup очищает все тестовые ресурсы
func (te *TestEnvironment) Cleanup(t *testing.T) {
	t.Helper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if te.App != nil {
		_ = te.App.Shutdown(shutdownCtx)
	}

	if te.DB != nil {
		te.DB.Close()
	}

	if te.PostgresContainer != nil {
		_ = te.PostgresContainer.Terminate(te.ctx)
	}
}

// applyMigrations применяет встроенную схему БД
func applyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	migrationSQL, err := migrations.FS.ReadFile(migrations.InitUp)
	require.NoError(t, err, "Failed to read migration file")

	_, err = pool.Exec(context.Background(), string(migrationSQL))
	require.NoError(t, err, "Failed to apply migration")
}

// seedStaff создает сотрудника для логина
func seedStaff(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	auth := service.NewAuthService(repo.NewStaffRepository(pool), testJWTSecret, time.Hour)
	_, err := auth.CreateStaff(context.Background(), testStaffEmail, "Ops", testStaffPassword, domain.RoleAdmin)
	require.NoError(t, err, "Failed to seed staff user")
}

// MakeRequest вспомогательная функция для HTTP запросов в тестах
func (te *TestEnvironment) MakeRequest(t *testing.T, method, path string, body io.Reader, token string) *http.Response {
	t.Helper()
	return te.do(t, method, path, body, "application/json", token)
}

// PostJSON сериализует тело и отправляет запрос
func (te *TestEnvironment) PostJSON(t *testing.T, path string, payload any, token string) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return te.MakeRequest(t, http.MethodPost, path, bytes.NewReader(body), token)
}

// UploadCSV отправляет CSV как multipart поле file
func (te *TestEnvironment) UploadCSV(t *testing.T, path, filename, content, token string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return te.do(t, http.MethodPost, path, &buf, mw.FormDataContentType(), token)
}

func (te *TestEnvironment) do(t *testing.T, method, path string, body io.Reader, contentType, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, te.BaseURL+path, body)
	require.NoError(t, err, "Failed to create request")

	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "Failed to make request")

	return resp
}

// Login возвращает токен тестового сотрудника
func (te *TestEnvironment) Login(t *testing.T) string {
	t.Helper()

	resp := te.PostJSON(t, "/auth/login", map[string]string{
		"email":    testStaffEmail,
		"password": testStaffPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	DecodeBody(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// DecodeBody читает JSON ответ и закрывает тело
func DecodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// WaitForHealthCheck ждет пока приложение станет доступным
func (te *TestEnvironment) WaitForHealthCheck(t *testing.T) {
	t.Helper()

	for i := 0; i < 30; i++ {
		resp, err := http.Get(te.BaseURL + "/health")
		if err == nil {
			ok := resp.StatusCode == http.StatusOK
			resp.Body.Close()
			if ok {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("Application did not become healthy in time")
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(body)
}
