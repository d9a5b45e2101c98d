package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/api"
	"github.com/mattwrdg/snoozydozy/internal/reminder"
	"github.com/mattwrdg/snoozydozy/internal/storage"
	"github.com/mattwrdg/snoozydozy/internal/suntimes"
)

type testApp struct {
	logger internal.Logger
	store  storage.Store
	rem    *reminder.Scheduler
	sun    *suntimes.Client
}

func (a *testApp) Logger() internal.Logger       { return a.logger }
func (a *testApp) Store() storage.Store          { return a.store }
func (a *testApp) Reminder() *reminder.Scheduler { return a.rem }
func (a *testApp) Sun() *suntimes.Client         { return a.sun }

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Meta  map[string]any     `json:"meta"`
	Error *internal.AppError `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	store, err := storage.NewFileStorage(dir+"/sleep_data.json", dir+"/app_state.json", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	app := &testApp{
		logger: logger,
		store:  store,
		rem:    reminder.NewScheduler(logger),
		sun:    suntimes.NewClient(49.0, 8.1, "Europe/Berlin", logger),
	}
	t.Cleanup(app.rem.Cancel)

	return api.NewRouter(app, nil), store
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestSleepStartEndFlow(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := do(t, r, "POST", "/api/sleep/start", "")
	require.Equal(t, 200, w.Code)
	var iv internal.SleepInterval
	require.NoError(t, json.Unmarshal(env.Data, &iv))
	assert.NotEmpty(t, iv.ID)
	assert.Nil(t, iv.EndTime)

	// Starting twice conflicts.
	w, _ = do(t, r, "POST", "/api/sleep/start", "")
	assert.Equal(t, 409, w.Code)

	w, env = do(t, r, "POST", "/api/sleep/end", "")
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &iv))
	assert.NotNil(t, iv.EndTime)

	// Ending without a running sleep conflicts.
	w, _ = do(t, r, "POST", "/api/sleep/end", "")
	assert.Equal(t, 409, w.Code)
}

func TestManualEntrySplit(t *testing.T) {
	r, _ := setupRouter(t)

	body := `{"date":"2026-08-20T00:00:00Z","start_hour":20,"start_minute":0,"end_hour":7,"end_minute":0}`
	w, env := do(t, r, "POST", "/api/sleep", body)
	require.Equal(t, 200, w.Code)
	assert.EqualValues(t, 2, env.Meta["created"])

	w, env = do(t, r, "GET", "/api/sleep", "")
	require.Equal(t, 200, w.Code)
	var ivs []internal.SleepInterval
	require.NoError(t, json.Unmarshal(env.Data, &ivs))
	assert.Len(t, ivs, 2)
}

func TestManualEntryValidation(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := do(t, r, "POST", "/api/sleep", `{"start_hour":25}`)
	assert.Equal(t, 400, w.Code)

	w, _ = do(t, r, "POST", "/api/sleep", `not json`)
	assert.Equal(t, 400, w.Code)
}

func TestPutSleepUnknownID(t *testing.T) {
	r, _ := setupRouter(t)

	body := `{"start_time":"2026-08-20T10:00:00Z"}`
	w, _ := do(t, r, "PUT", "/api/sleep/nope", body)
	assert.Equal(t, 404, w.Code)
}

func TestDeleteSleep(t *testing.T) {
	r, _ := setupRouter(t)

	_, env := do(t, r, "POST", "/api/sleep/start", "")
	var iv internal.SleepInterval
	require.NoError(t, json.Unmarshal(env.Data, &iv))

	w, _ := do(t, r, "DELETE", "/api/sleep/"+iv.ID, "")
	assert.Equal(t, 200, w.Code)

	_, env = do(t, r, "GET", "/api/sleep", "")
	var ivs []internal.SleepInterval
	require.NoError(t, json.Unmarshal(env.Data, &ivs))
	assert.Empty(t, ivs)
}

func TestSleepStatsEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := do(t, r, "GET", "/api/sleep/stats?period=week", "")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "week", env.Meta["period"])
	assert.Equal(t, false, env.Meta["has_data"])
}

func TestSleepChartPeriods(t *testing.T) {
	r, _ := setupRouter(t)

	_, env := do(t, r, "GET", "/api/sleep/chart", "")
	var totals []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.Len(t, totals, 7)

	_, env = do(t, r, "GET", "/api/sleep/chart?period=month", "")
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.Len(t, totals, 30)
}

func TestSleepTimesShape(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := do(t, r, "GET", "/api/sleep/times", "")
	require.Equal(t, 200, w.Code)
	var data struct {
		SleepTimes []map[string]any `json:"sleep_times"`
		WakeTimes  []map[string]any `json:"wake_times"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.SleepTimes, 7)
	assert.Len(t, data.WakeTimes, 7)
}

func TestBedtimeEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := do(t, r, "GET", "/api/sleep/bedtime", "")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, false, env.Meta["has_data"])
}

func TestProfileRoundTrip(t *testing.T) {
	r, _ := setupRouter(t)

	body := `{"name":"Anna","birthday":"2026-03-01T00:00:00Z","height":"60","weight":"5500"}`
	w, env := do(t, r, "PUT", "/api/profile", body)
	require.Equal(t, 200, w.Code)

	var p internal.BabyProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "Anna", p.Name)

	_, env = do(t, r, "GET", "/api/profile", "")
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "60", p.Height)
}

func TestSettingsRoundTrip(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := do(t, r, "PUT", "/api/settings", `{"notifications_enabled":true,"reminder_minutes_before":45}`)
	require.Equal(t, 200, w.Code)

	var s internal.AppSettings
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.True(t, s.NotificationsEnabled)

	_, env = do(t, r, "GET", "/api/settings", "")
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, 45, s.ReminderMinutesBefore)
}

func TestSettingsValidation(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := do(t, r, "PUT", "/api/settings", `{"reminder_minutes_before":-5}`)
	assert.Equal(t, 400, w.Code)
}

func TestExportImportEndpoints(t *testing.T) {
	r, _ := setupRouter(t)

	_, _ = do(t, r, "POST", "/api/sleep/start", "")
	_, _ = do(t, r, "POST", "/api/sleep/end", "")

	w, _ := do(t, r, "GET", "/api/export", "")
	require.Equal(t, 200, w.Code)
	exported := w.Body.String()
	assert.Contains(t, exported, "sleepEntries")

	// Import the export into a fresh instance.
	r2, store2 := setupRouter(t)
	w, env := do(t, r2, "POST", "/api/import", exported)
	require.Equal(t, 200, w.Code)
	assert.EqualValues(t, 1, env.Meta["imported_entries"])

	ivs, err := store2.ListIntervals(t.Context())
	require.NoError(t, err)
	assert.Len(t, ivs, 1)
}

func TestImportMalformed(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := do(t, r, "POST", "/api/import", `{broken`)
	assert.Equal(t, 400, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := do(t, r, "GET", "/api/sleep", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req, _ := http.NewRequest("GET", "/api/sleep", strings.NewReader(""))
	req.Header.Set("X-Request-ID", "fixed-id")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, "fixed-id", w2.Header().Get("X-Request-ID"))
}
