package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windykator/internal/clientflags"
	"windykator/internal/common"
	"windykator/internal/logging"
	"windykator/internal/models"
	"windykator/internal/services"
	"windykator/internal/syncer"
)

type fakeAuth struct{}

func (fakeAuth) Login(login, password string) (string, error) {
	if login == "operator" && password == "secret" {
		return "token-ok", nil
	}
	return "", common.ErrInvalidCredentials
}

func (fakeAuth) Verify(token string) (string, error) {
	if token == "token-ok" {
		return "operator", nil
	}
	return "", common.ErrInvalidToken
}

type fakeFlags struct {
	flags   map[int64]clientflags.Flags
	clients []*models.Client
}

func (f *fakeFlags) ListClients(ctx context.Context) ([]*models.Client, error) {
	return f.clients, nil
}

func (f *fakeFlags) GetFlags(ctx context.Context, clientID int64) (clientflags.Flags, error) {
	fl, ok := f.flags[clientID]
	if !ok {
		return clientflags.Flags{}, common.ErrorNotFound
	}
	return fl, nil
}

func (f *fakeFlags) SetFlags(ctx context.Context, clientID int64, upd clientflags.Update) (clientflags.Flags, error) {
	fl := f.flags[clientID]
	if upd.Windykacja != nil {
		fl.Windykacja = *upd.Windykacja
	}
	if upd.ListPolecony != nil {
		fl.ListPolecony = *upd.ListPolecony
	}
	if upd.ListPoleconyIgnored != nil {
		fl.ListPoleconyIgnored = *upd.ListPoleconyIgnored
	}
	f.flags[clientID] = fl
	return fl, nil
}

type fakeReminders struct {
	lastDryRun bool
	stops      map[int64]bool
}

func (f *fakeReminders) Run(ctx context.Context, now time.Time, dryRun bool) (*services.ReminderReport, error) {
	f.lastDryRun = dryRun
	return &services.ReminderReport{DryRun: dryRun, Planned: 2, Sent: 2}, nil
}

func (f *fakeReminders) SetStop(ctx context.Context, invoiceID int64, stop bool) error {
	if f.stops == nil {
		f.stops = map[int64]bool{}
	}
	f.stops[invoiceID] = stop
	return nil
}

type fakeLetters struct {
	sentClient int64
	sentIDs    []int64
	sentDate   time.Time
	ignored    []int64
	restored   []int64
}

func (f *fakeLetters) Candidates(ctx context.Context) ([]*services.LetterCandidate, error) {
	return []*services.LetterCandidate{}, nil
}

func (f *fakeLetters) MarkSent(ctx context.Context, clientID int64, invoiceIDs []int64, date time.Time, doc []byte, contentType string) (string, error) {
	f.sentClient = clientID
	f.sentIDs = invoiceIDs
	f.sentDate = date
	if len(doc) > 0 {
		return "letters/key", nil
	}
	return "", nil
}

func (f *fakeLetters) MarkIgnored(ctx context.Context, invoiceID int64, now time.Time) error {
	f.ignored = append(f.ignored, invoiceID)
	return nil
}

func (f *fakeLetters) Restore(ctx context.Context, invoiceID int64) error {
	f.restored = append(f.restored, invoiceID)
	return nil
}

func (f *fakeLetters) DocumentURL(ctx context.Context, key string) (string, error) {
	return "http://signed/" + key, nil
}

type fakeCollections struct{}

func (fakeCollections) Candidates(ctx context.Context, now time.Time) ([]*services.CollectionsCandidate, error) {
	return []*services.CollectionsCandidate{}, nil
}

type fakeSyncer struct{ calls int }

func (f *fakeSyncer) Sync(ctx context.Context, now time.Time) (*syncer.Report, error) {
	f.calls++
	return &syncer.Report{Clients: 3, Invoices: 5}, nil
}

type fixture struct {
	api       *API
	handler   http.Handler
	flags     *fakeFlags
	reminders *fakeReminders
	letters   *fakeLetters
	syncer    *fakeSyncer
}

func newFixture() *fixture {
	f := &fixture{
		flags:     &fakeFlags{flags: map[int64]clientflags.Flags{}},
		reminders: &fakeReminders{},
		letters:   &fakeLetters{},
		syncer:    &fakeSyncer{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.api = New(fakeAuth{}, f.flags, f.reminders, f.letters, fakeCollections{}, f.syncer, logger)
	f.api.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	f.handler = f.api.Router()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "POST", "/api/v1/login", loginRequest{Login: "operator", Password: "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token-ok", resp.Token)

	rec = f.do(t, "POST", "/api/v1/login", loginRequest{Login: "operator", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "POST", "/api/v1/sync", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, "POST", "/api/v1/sync", nil, "bad-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, "POST", "/api/v1/sync", nil, "token-ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.syncer.calls)
}

func TestFlagsRoundTrip(t *testing.T) {
	f := newFixture()

	yes := true
	rec := f.do(t, "PUT", "/api/v1/clients/7/flags", clientflags.Update{Windykacja: &yes}, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, "GET", "/api/v1/clients/7/flags", nil, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)
	var flags clientflags.Flags
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flags))
	assert.True(t, flags.Windykacja)
}

func TestListClients(t *testing.T) {
	f := newFixture()
	f.flags.clients = []*models.Client{
		{ID: 7, Name: "Jan Kowalski", Email: "jan@example.com"},
		{ID: 8, Name: "Anna Nowak"},
	}

	rec := f.do(t, "GET", "/api/v1/clients", nil, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []*models.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Jan Kowalski", got[0].Name)
}

func TestFlagsNotFound(t *testing.T) {
	f := newFixture()
	rec := f.do(t, "GET", "/api/v1/clients/404/flags", nil, "token-ok")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReminderRun_DryRunFlag(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "POST", "/api/v1/reminders/run", reminderRunRequest{DryRun: true}, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.reminders.lastDryRun)

	rec = f.do(t, "POST", "/api/v1/reminders/run", reminderRunRequest{}, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.reminders.lastDryRun)
}

func TestSetStop(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "POST", "/api/v1/invoices/11/stop", setStopRequest{Stop: true}, "token-ok")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.reminders.stops[11])
}

func TestLetterSent(t *testing.T) {
	f := newFixture()

	req := letterSentRequest{ClientID: 7, InvoiceIDs: []int64{11, 12}, Date: "2026-02-20"}
	rec := f.do(t, "POST", "/api/v1/letters/sent", req, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), f.letters.sentClient)
	assert.Equal(t, []int64{11, 12}, f.letters.sentIDs)
	assert.Equal(t, "2026-02-20", f.letters.sentDate.Format("2006-01-02"))
}

func TestLetterSent_Validation(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "POST", "/api/v1/letters/sent", letterSentRequest{ClientID: 7}, "token-ok")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, "POST", "/api/v1/letters/sent",
		letterSentRequest{ClientID: 7, InvoiceIDs: []int64{11}, Date: "20.02.2026"}, "token-ok")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLetterIgnoreAndRestore(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "POST", "/api/v1/invoices/11/letter/ignore", nil, "token-ok")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, "POST", "/api/v1/invoices/11/letter/restore", nil, "token-ok")
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []int64{11}, f.letters.ignored)
	assert.Equal(t, []int64{11}, f.letters.restored)
}

func TestLetterDocument(t *testing.T) {
	f := newFixture()

	rec := f.do(t, "GET", "/api/v1/letters/document?key=letters/x", nil, "token-ok")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "http://signed/letters/x", resp["url"])

	rec = f.do(t, "GET", "/api/v1/letters/document", nil, "token-ok")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectionsCandidates(t *testing.T) {
	f := newFixture()
	rec := f.do(t, "GET", "/api/v1/collections/candidates", nil, "token-ok")
	assert.Equal(t, http.StatusOK, rec.Code)
}
