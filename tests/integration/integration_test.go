package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "github.com/aidar/member-crm/internal/repository/postgres"
)

// Тестовые структуры данных соответствующие API
type Application struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Status            string  `json:"status"`
	ConvertedMemberID *string `json:"converted_member_id"`
}

type Member struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status"`
	SamCartOrderID string `json:"samcart_order_id"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type ApplicationPage struct {
	Data       []Application `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type ActivityEntry struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
}

type WebhookResult struct {
	Status    string `json:"status"`
	EntityID  string `json:"entity_id"`
	MatchedBy string `json:"matched_by"`
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)

	var body ErrorResponse
	DecodeBody(t, resp, &body)
	assert.Equal(t, code, body.Error.Code)
}

// TestE2E_CompleteWorkflow проходит путь от заявки до отмены членства
func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	env.WaitForHealthCheck(t)

	var (
		token         string
		applicationID string
		memberID      string
	)

	t.Run("Login with wrong password", func(t *testing.T) {
		resp := env.PostJSON(t, "/auth/login", map[string]string{
			"email":    testStaffEmail,
			"password": "wrong-password",
		}, "")
		expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("Login", func(t *testing.T) {
		token = env.Login(t)
	})

	t.Run("Protected routes require token", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/applications", nil, "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Create application", func(t *testing.T) {
		resp := env.PostJSON(t, "/applications", map[string]string{
			"first_name":    "Jane",
			"last_name":     "Doe",
			"email":         "Jane.Doe@Example.com",
			"phone":         "+1 (555) 010-2000",
			"business_name": "Doe Bakery",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var app Application
		DecodeBody(t, resp, &app)
		assert.Equal(t, "new", app.Status)
		assert.Equal(t, "jane.doe@example.com", app.Email)
		applicationID = app.ID
	})

	t.Run("Create application without email", func(t *testing.T) {
		resp := env.PostJSON(t, "/applications", map[string]string{
			"first_name": "No",
			"last_name":  "Email",
		}, token)
		expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("Invalid status", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodPatch, "/applications/"+applicationID+"/status",
			jsonBody(t, map[string]string{"status": "archived"}), token)
		expectError(t, resp, http.StatusBadRequest, "INVALID_STATUS")
	})

	t.Run("Unknown application", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/applications/00000000-0000-0000-0000-000000000000", nil, token)
		expectError(t, resp, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("Malformed ids are not found", func(t *testing.T) {
		for _, path := range []string{"/applications/abc", "/members/abc", "/members/abc/onboarding"} {
			resp := env.MakeRequest(t, http.MethodGet, path, nil, token)
			expectError(t, resp, http.StatusNotFound, "NOT_FOUND")
		}

		resp := env.MakeRequest(t, http.MethodDelete, "/notes/abc", nil, token)
		expectError(t, resp, http.StatusNotFound, "NOT_FOUND")

		resp = env.MakeRequest(t, http.MethodPatch, "/team-members/abc",
			jsonBody(t, map[string]string{"role": "ops"}), token)
		expectError(t, resp, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("Convert application", func(t *testing.T) {
		resp := env.PostJSON(t, "/applications/"+applicationID+"/convert", nil, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var out struct {
			Member      Member      `json:"member"`
			Application Application `json:"application"`
		}
		DecodeBody(t, resp, &out)
		assert.Equal(t, "onboarding", out.Member.Status)
		assert.Equal(t, "converted", out.Application.Status)
		require.NotNil(t, out.Application.ConvertedMemberID)
		assert.Equal(t, out.Member.ID, *out.Application.ConvertedMemberID)
		memberID = out.Member.ID
	})

	t.Run("Convert twice", func(t *testing.T) {
		resp := env.PostJSON(t, "/applications/"+applicationID+"/convert", nil, token)
		expectError(t, resp, http.StatusBadRequest, "ALREADY_CONVERTED")
	})

	t.Run("Duplicate member email", func(t *testing.T) {
		resp := env.PostJSON(t, "/members", map[string]string{
			"first_name": "Jane",
			"last_name":  "Again",
			"email":      "jane.doe@example.com",
		}, token)
		expectError(t, resp, http.StatusBadRequest, "EMAIL_EXISTS")
	})

	t.Run("Add note to member", func(t *testing.T) {
		resp := env.PostJSON(t, "/notes", map[string]string{
			"member_id": memberID,
			"content":   "Prefers WhatsApp over email",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = env.MakeRequest(t, http.MethodGet, "/notes?member_id="+memberID, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data []struct {
				Content string `json:"content"`
				Author  string `json:"author"`
			} `json:"data"`
		}
		DecodeBody(t, resp, &out)
		require.Len(t, out.Data, 1)
		assert.Equal(t, "Prefers WhatsApp over email", out.Data[0].Content)
	})

	t.Run("Note needs exactly one target", func(t *testing.T) {
		resp := env.PostJSON(t, "/notes", map[string]string{"content": "orphan"}, token)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("SamCart order marks member paid", func(t *testing.T) {
		resp := env.PostJSON(t, "/webhooks/samcart", samcartEvent("Order", 5001, "jane.doe@example.com"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res WebhookResult
		DecodeBody(t, resp, &res)
		assert.Equal(t, "processed", res.Status)
		assert.Equal(t, memberID, res.EntityID)
		assert.Equal(t, "email", res.MatchedBy)

		resp = env.MakeRequest(t, http.MethodGet, "/members/"+memberID, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var m Member
		DecodeBody(t, resp, &m)
		assert.Equal(t, "paid", m.PaymentStatus)
		assert.Equal(t, "5001", m.SamCartOrderID)
	})

	t.Run("SamCart redelivery is a duplicate", func(t *testing.T) {
		resp := env.PostJSON(t, "/webhooks/samcart", samcartEvent("Order", 5001, "jane.doe@example.com"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res WebhookResult
		DecodeBody(t, resp, &res)
		assert.Equal(t, "duplicate", res.Status)
	})

	t.Run("Webhook schema violation", func(t *testing.T) {
		resp := env.PostJSON(t, "/webhooks/calendly", map[string]string{"event": "invitee.created"}, "")
		expectError(t, resp, http.StatusBadRequest, "INVALID_PAYLOAD")
	})

	t.Run("Unknown webhook provider", func(t *testing.T) {
		resp := env.PostJSON(t, "/webhooks/stripe", map[string]string{"type": "x"}, "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Calendly booking for unknown invitee", func(t *testing.T) {
		resp := env.PostJSON(t, "/webhooks/calendly", map[string]any{
			"event": "invitee.created",
			"payload": map[string]any{
				"uri":   "https://api.calendly.com/invitees/unknown-1",
				"email": "stranger@example.com",
				"name":  "Total Stranger",
			},
		}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res WebhookResult
		DecodeBody(t, resp, &res)
		assert.Equal(t, "unmatched", res.Status)
	})

	t.Run("Cancel member", func(t *testing.T) {
		resp := env.PostJSON(t, "/members/"+memberID+"/cancel", map[string]string{
			"reason": "Too expensive",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = env.PostJSON(t, "/members/"+memberID+"/cancel", map[string]string{}, token)
		expectError(t, resp, http.StatusBadRequest, "ALREADY_CANCELLED")

		resp = env.MakeRequest(t, http.MethodGet, "/cancellations", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data       []map[string]any `json:"data"`
			Pagination Pagination       `json:"pagination"`
		}
		DecodeBody(t, resp, &out)
		assert.Equal(t, 1, out.Pagination.Total)
	})

	t.Run("Activity is filtered by entity", func(t *testing.T) {
		actions := func(query string) []ActivityEntry {
			resp := env.MakeRequest(t, http.MethodGet, "/activity?"+query, nil, token)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out struct {
				Data []ActivityEntry `json:"data"`
			}
			DecodeBody(t, resp, &out)
			return out.Data
		}

		memberRows := actions("entity_type=member&entity_id=" + memberID)
		seen := make(map[string]bool)
		for _, row := range memberRows {
			assert.Equal(t, "member", row.EntityType)
			assert.Equal(t, memberID, row.EntityID)
			seen[row.Action] = true
		}
		assert.True(t, seen["created"], "conversion records the member")
		assert.True(t, seen["cancelled"], "cancellation is recorded")

		appRows := actions("entity_type=application&entity_id=" + applicationID)
		seen = make(map[string]bool)
		for _, row := range appRows {
			assert.Equal(t, applicationID, row.EntityID)
			seen[row.Action] = true
		}
		assert.True(t, seen["created"])
		assert.True(t, seen["converted"])
		assert.False(t, seen["cancelled"])

		assert.Len(t, actions("entity_type=member&entity_id=00000000-0000-0000-0000-000000000000"), 0)
	})

	t.Run("SamCart order creates member when nothing matches", func(t *testing.T) {
		resp := env.PostJSON(t, "/webhooks/samcart", samcartEvent("Order", 5002, "walkin@example.com"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res WebhookResult
		DecodeBody(t, resp, &res)
		assert.Equal(t, "processed", res.Status)
		assert.Equal(t, "created", res.MatchedBy)
		assert.NotEmpty(t, res.EntityID)
	})

	t.Run("Stats", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/stats", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stats struct {
			ApplicationsByStatus map[string]int `json:"applications_by_status"`
			MembersByStatus      map[string]int `json:"members_by_status"`
		}
		DecodeBody(t, resp, &stats)
		assert.Equal(t, 1, stats.ApplicationsByStatus["converted"])
		assert.Equal(t, 1, stats.MembersByStatus["cancelled"])
	})
}

// TestE2E_ImportAndPagination загружает CSV и листает результат
func TestE2E_ImportAndPagination(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	env.WaitForHealthCheck(t)
	token := env.Login(t)

	csv := "first_name,last_name,email,phone,business_name\n"
	for i := 1; i <= 5; i++ {
		csv += fmt.Sprintf("Lead,%d,lead%d@example.com,,Shop %d\n", i, i, i)
	}
	csv += "No,Email,,,\n"
	csv += "Lead,Dup,LEAD1@example.com,,\n"

	t.Run("Upload applications", func(t *testing.T) {
		resp := env.UploadCSV(t, "/import/applications", "leads.csv", csv, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var history struct {
			TotalRows int `json:"total_rows"`
			Imported  int `json:"imported"`
			Skipped   int `json:"skipped"`
			Failed    int `json:"failed"`
		}
		DecodeBody(t, resp, &history)
		assert.Equal(t, 7, history.TotalRows)
		assert.Equal(t, 5, history.Imported)
		assert.Equal(t, 1, history.Skipped)
		assert.Equal(t, 1, history.Failed)
	})

	t.Run("Unknown import kind", func(t *testing.T) {
		resp := env.UploadCSV(t, "/import/invoices", "x.csv", csv, token)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Paginate applications", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/applications?page=2&limit=2", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page ApplicationPage
		DecodeBody(t, resp, &page)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, 2, page.Pagination.Page)
		assert.Equal(t, 5, page.Pagination.Total)
		assert.Equal(t, 3, page.Pagination.TotalPages)
	})

	t.Run("Search applications", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/applications?search=lead3", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page ApplicationPage
		DecodeBody(t, resp, &page)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "lead3@example.com", page.Data[0].Email)
	})

	t.Run("Import history", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/import/history", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data []struct {
				Filename   string `json:"filename"`
				ImportedBy string `json:"imported_by"`
			} `json:"data"`
		}
		DecodeBody(t, resp, &out)
		require.Len(t, out.Data, 1)
		assert.Equal(t, "leads.csv", out.Data[0].Filename)
		assert.Equal(t, testStaffEmail, out.Data[0].ImportedBy)
	})
}

// TestClaimStore_Postgres проверяет claim'ы доставок в таблице webhook_deliveries
func TestClaimStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	store := repo.NewClaimStore(env.DB)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "typeform", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "typeform", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "typeform", "tok-1"))

	ok, err = store.Claim(ctx, "typeform", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released delivery can be claimed again")
}

func samcartEvent(kind string, orderID int, email string) map[string]any {
	return map[string]any{
		"type":  kind,
		"order": map[string]any{"id": orderID},
		"customer": map[string]any{
			"email":      email,
			"first_name": "Walk",
			"last_name":  "In",
		},
	}
}
