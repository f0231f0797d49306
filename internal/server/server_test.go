package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeil/stashd/internal/config"
	"github.com/akeil/stashd/internal/database"
	"github.com/akeil/stashd/internal/di"
	"github.com/akeil/stashd/internal/modules/distribution"
	"github.com/akeil/stashd/internal/modules/ledger"
	"github.com/akeil/stashd/internal/modules/moneybox"
	"github.com/akeil/stashd/internal/modules/settings"
	"github.com/akeil/stashd/internal/modules/users"
	testingpkg "github.com/akeil/stashd/internal/testing"
)

type e2e struct {
	t      *testing.T
	router http.Handler
	db     *database.DB
}

func newTestServer(t *testing.T) *e2e {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	container := &di.Container{Store: db}
	require.NoError(t, di.InitializeRepositories(container, log))

	cfg := &config.Config{Port: 8000, Timezone: "UTC", WakeSchedule: "@hourly"}
	require.NoError(t, di.InitializeServices(container, cfg, log))

	srv := New(Config{
		Log:       log,
		Store:     db,
		Config:    cfg,
		Port:      cfg.Port,
		DevMode:   true,
		Container: container,
	})
	return &e2e{t: t, router: srv.Router(), db: db}
}

func (e *e2e) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *e2e) decode(rec *httptest.ResponseRecorder, into interface{}) {
	e.t.Helper()
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), into))
}

// createMoneybox creates a moneybox over the API and returns it.
func (e *e2e) createMoneybox(name string, savingsAmount int64, savingsTarget *int64) moneybox.Moneybox {
	e.t.Helper()

	rec := e.do(http.MethodPost, "/moneybox", map[string]interface{}{
		"name":           name,
		"savings_amount": savingsAmount,
		"savings_target": savingsTarget,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	var box moneybox.Moneybox
	e.decode(rec, &box)
	return box
}

func (e *e2e) deposit(id, amount int64, description string) {
	e.t.Helper()

	rec := e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/deposit", id), map[string]interface{}{
		"amount":      amount,
		"description": description,
	})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
}

type moneyboxList struct {
	Moneyboxes []moneybox.Moneybox `json:"moneyboxes"`
	Total      int                 `json:"total"`
}

type transactionList struct {
	Transactions []ledger.TransactionWithCounterparty `json:"transactions"`
	Total        int                                  `json:"total"`
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := e.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	e.decode(rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "stashd", body["service"])
}

func TestMetadataEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := e.do(http.MethodGet, "/app/metadata", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	e.decode(rec, &body)
	assert.Equal(t, "stashd", body["app_name"])
	assert.NotEmpty(t, body["go_version"])
	assert.Greater(t, body["store_size_bytes"], float64(0), "a provisioned store is never empty")
}

func TestMoneyboxEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := e.do(http.MethodGet, "/moneyboxes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list moneyboxList
	e.decode(rec, &list)
	require.Equal(t, 1, list.Total, "a fresh store holds only the overflow moneybox")
	require.NotNil(t, list.Moneyboxes[0].Priority)
	assert.Zero(t, *list.Moneyboxes[0].Priority)
	overflowID := list.Moneyboxes[0].ID

	box := e.createMoneybox("Vacation", 50, nil)
	assert.Equal(t, "Vacation", box.Name)
	require.NotNil(t, box.Priority)
	assert.Equal(t, int64(1), *box.Priority)
	assert.Zero(t, box.Balance)

	rec = e.do(http.MethodPost, "/moneybox", map[string]interface{}{"name": "Vacation"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/moneybox/%d", box.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/moneybox/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodPatch, fmt.Sprintf("/moneybox/%d", box.ID), map[string]interface{}{
		"name":        "Holidays",
		"description": "Summer trip",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated moneybox.Moneybox
	e.decode(rec, &updated)
	assert.Equal(t, "Holidays", updated.Name)
	assert.Equal(t, "Summer trip", updated.Description)

	// The overflow moneybox refuses renames and deletion.
	rec = e.do(http.MethodPatch, fmt.Sprintf("/moneybox/%d", overflowID), map[string]interface{}{"name": "Stash"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	rec = e.do(http.MethodDelete, fmt.Sprintf("/moneybox/%d", overflowID), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	e.deposit(box.ID, 100, "Paycheck")
	rec = e.do(http.MethodDelete, fmt.Sprintf("/moneybox/%d", box.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "a funded moneybox refuses deletion")

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/withdraw", box.ID), map[string]interface{}{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(http.MethodDelete, fmt.Sprintf("/moneybox/%d", box.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/moneybox/%d", box.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoneyMovementEndpoints(t *testing.T) {
	e := newTestServer(t)

	vacation := e.createMoneybox("Vacation", 50, nil)
	reserve := e.createMoneybox("Reserve", 30, nil)

	rec := e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/deposit", vacation.ID), map[string]interface{}{
		"amount":      100,
		"description": "Paycheck",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var box moneybox.Moneybox
	e.decode(rec, &box)
	assert.Equal(t, int64(100), box.Balance)

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/deposit", vacation.ID), map[string]interface{}{"amount": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/withdraw", vacation.ID), map[string]interface{}{"amount": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &box)
	assert.Equal(t, int64(70), box.Balance)

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/withdraw", vacation.ID), map[string]interface{}{"amount": 1000})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient balance")

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/transfer", vacation.ID), map[string]interface{}{
		"to_moneybox_id": reserve.ID,
		"amount":         20,
		"description":    "Safety cushion",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/transfer", vacation.ID), map[string]interface{}{
		"to_moneybox_id": vacation.ID,
		"amount":         10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/moneybox/%d", reserve.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &box)
	assert.Equal(t, int64(20), box.Balance)

	rec = e.do(http.MethodGet, fmt.Sprintf("/moneybox/%d/transactions", vacation.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trail transactionList
	e.decode(rec, &trail)
	require.Equal(t, 3, trail.Total)

	// Newest first: transfer leg, withdrawal, deposit.
	assert.Equal(t, int64(-20), trail.Transactions[0].Amount)
	require.NotNil(t, trail.Transactions[0].CounterpartyMoneyboxID)
	assert.Equal(t, reserve.ID, *trail.Transactions[0].CounterpartyMoneyboxID)
	require.NotNil(t, trail.Transactions[0].CounterpartyMoneyboxName)
	assert.Equal(t, "Reserve", *trail.Transactions[0].CounterpartyMoneyboxName)
	assert.Equal(t, int64(-30), trail.Transactions[1].Amount)
	assert.Equal(t, int64(100), trail.Transactions[2].Amount)
	assert.Equal(t, int64(100), trail.Transactions[2].Balance)

	rec = e.do(http.MethodGet, "/moneybox/999/transactions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestTransactionsKeepHistoricalNames tests that a transaction row
// keeps showing the counterparty name from the time of the movement,
// even after the counterparty was renamed.
func TestTransactionsKeepHistoricalNames(t *testing.T) {
	e := newTestServer(t)

	holiday := e.createMoneybox("Holiday", 50, nil)
	reserve := e.createMoneybox("Reserve", 30, nil)
	e.deposit(holiday.ID, 100, "Paycheck")

	rec := e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/transfer", holiday.ID), map[string]interface{}{
		"to_moneybox_id": reserve.ID,
		"amount":         40,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodPatch, fmt.Sprintf("/moneybox/%d", holiday.ID), map[string]interface{}{"name": "Summer Trip"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodPost, fmt.Sprintf("/moneybox/%d/transfer", holiday.ID), map[string]interface{}{
		"to_moneybox_id": reserve.ID,
		"amount":         10,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/moneybox/%d/transactions", reserve.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trail transactionList
	e.decode(rec, &trail)
	require.Equal(t, 2, trail.Total)

	require.NotNil(t, trail.Transactions[0].CounterpartyMoneyboxName)
	assert.Equal(t, "Summer Trip", *trail.Transactions[0].CounterpartyMoneyboxName)
	require.NotNil(t, trail.Transactions[1].CounterpartyMoneyboxName)
	assert.Equal(t, "Holiday", *trail.Transactions[1].CounterpartyMoneyboxName,
		"the old row shows the name from before the rename")
}

func TestPriorityListEndpoints(t *testing.T) {
	e := newTestServer(t)

	a := e.createMoneybox("Vacation", 0, nil)
	b := e.createMoneybox("Reserve", 0, nil)
	c := e.createMoneybox("New Car", 0, nil)

	rec := e.do(http.MethodGet, "/prioritylist", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Priorities []moneybox.PriorityEntry `json:"priorities"`
	}
	e.decode(rec, &list)
	require.Len(t, list.Priorities, 3, "the overflow moneybox is not part of the priority list")
	assert.Equal(t, a.ID, list.Priorities[0].MoneyboxID)
	assert.Equal(t, c.ID, list.Priorities[2].MoneyboxID)

	rec = e.do(http.MethodPatch, "/prioritylist", map[string]interface{}{
		"priorities": []map[string]int64{
			{"moneybox_id": c.ID, "priority": 1},
			{"moneybox_id": a.ID, "priority": 2},
			{"moneybox_id": b.ID, "priority": 3},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &list)
	require.Len(t, list.Priorities, 3)
	assert.Equal(t, c.ID, list.Priorities[0].MoneyboxID)
	assert.Equal(t, a.ID, list.Priorities[1].MoneyboxID)
	assert.Equal(t, b.ID, list.Priorities[2].MoneyboxID)

	rec = e.do(http.MethodPatch, "/prioritylist", map[string]interface{}{
		"priorities": []map[string]int64{
			{"moneybox_id": a.ID, "priority": 0},
			{"moneybox_id": b.ID, "priority": 1},
			{"moneybox_id": c.ID, "priority": 2},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "priority 0 is reserved for the overflow moneybox")

	rec = e.do(http.MethodPatch, "/prioritylist", map[string]interface{}{
		"priorities": []map[string]int64{
			{"moneybox_id": 1, "priority": 1},
			{"moneybox_id": a.ID, "priority": 2},
			{"moneybox_id": b.ID, "priority": 3},
		},
	})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "the overflow moneybox cannot be reordered")
}

func TestSettingsEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := e.do(http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var current settings.AppSettings
	e.decode(rec, &current)
	assert.False(t, current.IsAutomatedSavingActive)
	assert.Zero(t, current.SavingsAmount)
	assert.Equal(t, "COLLECT", string(current.OverflowMode))
	assert.Equal(t, "FIRST_OF_MONTH", string(current.AutomatedSavingTriggerDay))

	rec = e.do(http.MethodPatch, "/settings", map[string]interface{}{
		"savings_amount": 2500,
		"overflow_moneybox_automated_savings_mode": "RATIO",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &current)
	assert.Equal(t, int64(2500), current.SavingsAmount)
	assert.Equal(t, "RATIO", string(current.OverflowMode))

	rec = e.do(http.MethodPatch, "/settings", map[string]interface{}{"savings_amount": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodPatch, "/settings", map[string]interface{}{
		"overflow_moneybox_automated_savings_mode": "SOMETHING_ELSE",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodPatch, "/settings", map[string]interface{}{"send_reports_via_email": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "reports need a mail address")

	rec = e.do(http.MethodPatch, "/settings", map[string]interface{}{
		"send_reports_via_email": true,
		"user_email_address":     "zoe@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &current)
	assert.True(t, current.SendReportsViaEmail)
	require.NotNil(t, current.UserEmailAddress)
	assert.Equal(t, "zoe@example.com", *current.UserEmailAddress)

	rec = e.do(http.MethodPatch, "/settings", map[string]interface{}{"user_email_address": nil})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "the address cannot be cleared while reports are on")
}

func TestSavingsForecastEndpoint(t *testing.T) {
	e := newTestServer(t)

	box := e.createMoneybox("Vacation", 50, int64Ptr(100))
	rec := e.do(http.MethodPatch, "/settings", map[string]interface{}{
		"is_automated_saving_active": true,
		"savings_amount":             100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/savings_forecast", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Forecasts []distribution.TargetForecast `json:"forecasts"`
		Total     int                           `json:"total"`
	}
	e.decode(rec, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, box.ID, body.Forecasts[0].MoneyboxID)
	assert.Equal(t, "Vacation", body.Forecasts[0].Name)
	assert.Equal(t, int64(2), body.Forecasts[0].ReachedInMonths)
}

func TestUserEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := e.do(http.MethodPost, "/user", map[string]interface{}{
		"user_login": "zoe",
		"password":   "hunter2secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password", "hashes never leave the server")

	var user users.User
	e.decode(rec, &user)
	assert.Equal(t, "zoe", user.Login)
	assert.Equal(t, "USER", string(user.Role))

	rec = e.do(http.MethodPost, "/user/login", map[string]interface{}{
		"user_login": "zoe",
		"password":   "hunter2secret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodPost, "/user/login", map[string]interface{}{
		"user_login": "zoe",
		"password":   "wrong",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "a wrong password is indistinguishable from an unknown login")

	rec = e.do(http.MethodPatch, fmt.Sprintf("/user/%d", user.ID), map[string]interface{}{"user_login": "zoe.m"})
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &user)
	assert.Equal(t, "zoe.m", user.Login)

	rec = e.do(http.MethodDelete, fmt.Sprintf("/user/%d", user.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(http.MethodPost, "/user/login", map[string]interface{}{
		"user_login": "zoe.m",
		"password":   "hunter2secret",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetEndpoint(t *testing.T) {
	e := newTestServer(t)

	box := e.createMoneybox("Vacation", 50, nil)
	e.deposit(box.ID, 100, "Paycheck")
	rec := e.do(http.MethodPatch, "/settings", map[string]interface{}{"savings_amount": 2500})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodPost, "/app/reset?keep_settings=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list moneyboxList
	rec = e.do(http.MethodGet, "/moneyboxes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &list)
	assert.Equal(t, 1, list.Total, "only the overflow moneybox survives a reset")

	var current settings.AppSettings
	rec = e.do(http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &current)
	assert.Equal(t, int64(2500), current.SavingsAmount, "keep_settings preserved the configuration")

	rec = e.do(http.MethodPost, "/app/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	e.decode(rec, &current)
	assert.Zero(t, current.SavingsAmount, "a full reset restores default settings")

	rec = e.do(http.MethodPost, "/app/reset?keep_settings=banana", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvalidRequests(t *testing.T) {
	e := newTestServer(t)

	rec := e.do(http.MethodGet, "/moneybox/abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodGet, "/moneybox/0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func int64Ptr(v int64) *int64 {
	return &v
}
