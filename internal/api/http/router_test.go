package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/kiosk-service/internal/api/http/handlers"
	"github.com/spec-kit/kiosk-service/internal/auth"
	"github.com/spec-kit/kiosk-service/internal/events"
	"github.com/spec-kit/kiosk-service/internal/observability"
	"github.com/spec-kit/kiosk-service/internal/persistence"
	"github.com/spec-kit/kiosk-service/internal/repository"
	"github.com/spec-kit/kiosk-service/internal/service"
	"github.com/spec-kit/kiosk-service/internal/storage"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	blobs, err := storage.NewLocalBlobStore(t.TempDir(), "/uploads", 1<<20)
	require.NoError(t, err)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewMemoryTicketRepository(),
		BlobStore:  blobs,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	})
	signer := auth.NewLinkSigner("test-secret", 0)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:        handlers.NewHealthHandler("kiosk-service", "test", map[string]persistence.Pinger{}, metrics),
		Kiosk:         handlers.NewKioskHandler(ticketService, signer, "https://kiosk.example.com"),
		Visitor:       handlers.NewVisitorHandler(ticketService),
		Admin:         handlers.NewAdminHandler(ticketService),
		LinkSigner:    signer,
		UploadsPrefix: blobs.PublicPrefix(),
		UploadsDir:    blobs.Dir(),
	})
	return app
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func send(t *testing.T, app *fiber.App, req *nethttp.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func sendJSON(t *testing.T, app *fiber.App, method, target string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return send(t, app, req)
}

func multipartRequest(t *testing.T, target string, fields map[string]string, image []byte) *nethttp.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="badge.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(nethttp.MethodPost, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

type checkinData struct {
	Ticket struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Requester struct {
			Attachment string `json:"attachment"`
		} `json:"requester"`
	} `json:"ticket"`
	StatusURL string `json:"status_url"`
	QR        string `json:"qr"`
}

type statusData struct {
	Ticket struct {
		Status        string  `json:"status"`
		DeclineReason *string `json:"decline_reason"`
		Conversation  []struct {
			Origin string `json:"origin"`
			Text   string `json:"text"`
		} `json:"conversation"`
	} `json:"ticket"`
	FollowUp struct {
		Allowed         bool `json:"allowed"`
		AllowAttachment bool `json:"allow_attachment"`
	} `json:"follow_up"`
}

func checkin(t *testing.T, app *fiber.App) (checkinData, string) {
	t.Helper()
	status, env := sendJSON(t, app, nethttp.MethodPost, "/checkin", map[string]string{"name": "Ada", "request": "visitor badge"})
	require.Equal(t, nethttp.StatusCreated, status)
	var data checkinData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	link, err := url.Parse(data.StatusURL)
	require.NoError(t, err)
	return data, link.RequestURI()
}

func TestKioskToAdminRoundTrip(t *testing.T) {
	app := newTestApp(t)
	data, statusPath := checkin(t, app)

	assert.Equal(t, "opened", data.Ticket.Status)
	assert.True(t, strings.HasPrefix(data.StatusURL, "https://kiosk.example.com/status/"+data.Ticket.ID+"?t="))
	assert.True(t, strings.HasPrefix(data.QR, "data:image/png;base64,"))

	status, env := sendJSON(t, app, nethttp.MethodGet, statusPath, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var view statusData
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.False(t, view.FollowUp.Allowed)

	followPath := strings.Replace(statusPath, "?", "/followups?", 1)
	status, env = sendJSON(t, app, nethttp.MethodPost, followPath, map[string]string{"message": "any news?"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = sendJSON(t, app, nethttp.MethodPost, "/admin/tickets/"+data.Ticket.ID+"/respond", map[string]string{
		"action":         "decline",
		"decline_reason": "Not eligible",
	})
	require.Equal(t, nethttp.StatusOK, status)

	status, env = sendJSON(t, app, nethttp.MethodPost, followPath, map[string]string{"message": "please reconsider"})
	require.Equal(t, nethttp.StatusCreated, status)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "opened", view.Ticket.Status)
	require.NotNil(t, view.Ticket.DeclineReason)
	assert.Equal(t, "Not eligible", *view.Ticket.DeclineReason)
	require.Len(t, view.Ticket.Conversation, 2)
	assert.Equal(t, "admin", view.Ticket.Conversation[0].Origin)
	assert.Equal(t, "Declined: Not eligible", view.Ticket.Conversation[0].Text)
	assert.Equal(t, "visitor", view.Ticket.Conversation[1].Origin)

	status, env = sendJSON(t, app, nethttp.MethodGet, "/admin/tickets?status=opened", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var rows []struct {
		ID                string `json:"id"`
		HasUnseenActivity bool   `json:"has_unseen_activity"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].HasUnseenActivity)
}

func TestStatusLinkRequired(t *testing.T) {
	app := newTestApp(t)
	data, _ := checkin(t, app)

	status, env := sendJSON(t, app, nethttp.MethodGet, "/status/"+data.Ticket.ID, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	require.NotNil(t, env.Error)

	other, otherPath := checkin(t, app)
	require.NotEqual(t, data.Ticket.ID, other.Ticket.ID)
	foreign := strings.Replace(otherPath, other.Ticket.ID, data.Ticket.ID, 1)
	status, _ = sendJSON(t, app, nethttp.MethodGet, foreign, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
}

func TestRespondErrors(t *testing.T) {
	app := newTestApp(t)
	data, _ := checkin(t, app)

	status, env := sendJSON(t, app, nethttp.MethodPost, "/admin/tickets/"+data.Ticket.ID+"/respond", map[string]string{"action": "archive"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_ACTION", env.Error.Code)

	status, env = sendJSON(t, app, nethttp.MethodGet, "/admin/tickets/missing", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestAdminGetMarksSeen(t *testing.T) {
	app := newTestApp(t)
	data, _ := checkin(t, app)

	status, env := sendJSON(t, app, nethttp.MethodGet, "/admin/tickets/"+data.Ticket.ID, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var detail struct {
		Ticket struct {
			LastAdminSeenAt *string `json:"last_admin_seen_at"`
		} `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.NotNil(t, detail.Ticket.LastAdminSeenAt)
}

func TestMultipartCheckinServesAttachment(t *testing.T) {
	app := newTestApp(t)
	req := multipartRequest(t, "/checkin", map[string]string{"name": "Ada", "request": "badge"}, []byte("\x89PNG fake"))

	status, env := send(t, app, req)
	require.Equal(t, nethttp.StatusCreated, status)
	var data checkinData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, strings.HasPrefix(data.Ticket.Requester.Attachment, "/uploads/checkins/"))

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, data.Ticket.Requester.Attachment, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake", string(body))
}

func TestDeclineReasonsAndHealth(t *testing.T) {
	app := newTestApp(t)

	status, env := sendJSON(t, app, nethttp.MethodGet, "/admin/decline-reasons", nil)
	require.Equal(t, nethttp.StatusOK, status)
	var reasons []string
	require.NoError(t, json.Unmarshal(env.Data, &reasons))
	assert.Contains(t, reasons, "Other")

	status, _ = sendJSON(t, app, nethttp.MethodGet, "/health/ready", nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, env = sendJSON(t, app, nethttp.MethodGet, "/health/metrics", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, string(env.Data), "/admin/decline-reasons")
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	app := newTestApp(t)
	status, env := sendJSON(t, app, nethttp.MethodGet, "/nope", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
