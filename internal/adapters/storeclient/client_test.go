package storeclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/cadence/internal/adapters/storeclient"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

type recorded struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newClient(srv *httptest.Server, opts ...storeclient.Option) *storeclient.Client {
	base := []storeclient.Option{
		storeclient.WithHTTPClient(srv.Client()),
		storeclient.WithToken("tok"),
		storeclient.WithEmployerID("emp-1"),
		storeclient.WithRequestIDFunc(func() string { return "req-1" }),
	}
	return storeclient.New(srv.URL+"/api/", append(base, opts...)...)
}

func TestList(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success":true,"data":[
		{"id":1,"title":"Screen","start":"2024-01-01T10:00:00Z","end":"2024-01-01T11:00:00Z","type":"interview","status":"scheduled","candidate_name":"Ada"},
		{"id":"2","title":"Sync","start":"2024-01-02T10:00:00Z","end":"2024-01-02T11:00:00Z","type":"meeting","status":"completed","job_id":9}
	]}`)

	events, err := newClient(srv).List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.FlexID("1"), events[0].ID)
	assert.Equal(t, "Ada", events[0].CandidateName)
	assert.Equal(t, model.FlexID("9"), events[1].JobID)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/calendar/events", rec.path)
	assert.Equal(t, "Bearer tok", rec.header.Get("Authorization"))
	assert.Equal(t, "emp-1", rec.header.Get("X-Employer-ID"))
	assert.Equal(t, "req-1", rec.header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", rec.header.Get("Accept"))
}

func TestListBareArrayAndNullData(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[{"id":"7","title":"x","start":"2024-01-01T10:00:00Z","end":"2024-01-01T11:00:00Z","type":"other","status":"scheduled"}]`)
	events, err := newClient(srv).List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	srv2, _ := newServer(t, http.StatusOK, `{"success":true,"data":null}`)
	events, err = newClient(srv2).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListUnsuccessfulEnvelope(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"success":false,"message":"employer suspended"}`)

	_, err := newClient(srv).List(context.Background())
	require.Error(t, err)

	var appErr *storeclient.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "employer suspended", appErr.Message)
	assert.ErrorIs(t, err, storeclient.ErrApplication)
}

func TestCreate(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"success":true,"data":{"id":"55","title":"Onsite","start":"2024-06-10T09:30:00Z","end":"2024-06-10T10:30:00Z","type":"meeting","status":"scheduled"}}`)

	payload := model.CreatePayload{
		EventDraft: model.EventDraft{Title: "Onsite", StartDate: "2024-06-10", StartTime: "09:30", EndDate: "2024-06-10", EndTime: "10:30", Type: "meeting"},
		Start:      "2024-06-10T09:30:00Z",
		End:        "2024-06-10T10:30:00Z",
		Status:     types.EventStatusScheduled,
	}
	ev, err := newClient(srv).Create(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, model.FlexID("55"), ev.ID)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, "Onsite", sent["title"])
	assert.Equal(t, "2024-06-10", sent["start_date"])
	assert.Equal(t, "2024-06-10T09:30:00Z", sent["start"])
	assert.Equal(t, "scheduled", sent["status"])
}

func TestUpdateStatusBareRecord(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"id":"3","title":"x","start":"2024-01-01T10:00:00Z","end":"2024-01-01T11:00:00Z","type":"meeting","status":"cancelled"}`)

	ev, err := newClient(srv).UpdateStatus(context.Background(), "3", types.EventStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", ev.Status)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/calendar/events/3", rec.path)
	assert.JSONEq(t, `{"status":"cancelled"}`, string(rec.body))
}

func TestNotFound(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"success":false,"message":"Event not found"}`)

	err := newClient(srv).Delete(context.Background(), "404")
	require.Error(t, err)

	var nf *storeclient.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "404", nf.ID)
	assert.Equal(t, "Event not found", nf.Message)
	assert.ErrorIs(t, err, storeclient.ErrNotFound)
	assert.NotErrorIs(t, err, storeclient.ErrApplication)
}

func TestApplicationErrorCarriesServerMessage(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnprocessableEntity, `{"success":false,"error":"start must be in the future"}`)

	_, err := newClient(srv).UpdateStatus(context.Background(), "1", types.EventStatusScheduled)

	var appErr *storeclient.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
	assert.Equal(t, "start must be in the future", appErr.Message)
	assert.True(t, appErr.ClientError())
	assert.NotErrorIs(t, err, storeclient.ErrTransport)
}

func TestServerErrorWithoutPayload(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, ``)

	_, err := newClient(srv).List(context.Background())

	var appErr *storeclient.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Internal Server Error", appErr.Message)
	assert.False(t, appErr.ClientError())
}

func TestDeleteEmptyBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusNoContent, ``)

	require.NoError(t, newClient(srv).Delete(context.Background(), "a/b"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/calendar/events/a/b", rec.path)
}

func TestExportAll(t *testing.T) {
	blob := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"
	srv, rec := newServer(t, http.StatusOK, blob)

	got, err := newClient(srv).ExportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, blob, string(got))
	assert.Equal(t, "/api/calendar/export", rec.path)
	assert.Contains(t, rec.header.Get("Accept"), "text/calendar")
}

func TestOversizedExportFails(t *testing.T) {
	blob := strings.Repeat("X", 9<<20)
	srv, _ := newServer(t, http.StatusOK, blob)

	got, err := newClient(srv).ExportAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)

	var ae *storeclient.ApplicationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, storeclient.OpExport, ae.Op)
	assert.Contains(t, ae.Message, "response exceeds 8388608 bytes")
	assert.NotErrorIs(t, err, storeclient.ErrTransport)
}

func TestBodyLimitOption(t *testing.T) {
	body := `{"success":true,"data":[]}`
	srv, _ := newServer(t, http.StatusOK, body)

	_, err := newClient(srv, storeclient.WithMaxBodyBytes(int64(len(body)))).List(context.Background())
	require.NoError(t, err, "a body of exactly the limit is accepted")

	_, err = newClient(srv, storeclient.WithMaxBodyBytes(int64(len(body)-1))).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storeclient.ErrApplication)
	assert.Contains(t, err.Error(), "response exceeds")
	assert.NotContains(t, err.Error(), "undecodable")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := storeclient.New(url, storeclient.WithTimeout(time.Second))
	_, err := c.List(context.Background())
	require.Error(t, err)

	var te *storeclient.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, storeclient.OpList, te.Op)
	assert.True(t, te.Retryable())
	assert.ErrorIs(t, err, storeclient.ErrTransport)
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := storeclient.New(srv.URL, storeclient.WithHTTPClient(srv.Client()), storeclient.WithTimeout(50*time.Millisecond))
	_, err := c.ExportAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, storeclient.ErrTransport)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNoAuthHeadersWhenUnset(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success":true,"data":[]}`)

	c := storeclient.New(srv.URL, storeclient.WithHTTPClient(srv.Client()))
	_, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.header.Get("Authorization"))
	assert.Empty(t, rec.header.Get("X-Employer-ID"))
	assert.NotEmpty(t, rec.header.Get("X-Request-ID"))
}
