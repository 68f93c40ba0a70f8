package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/store"
	"github.com/i474232898/coffee-machine/internal/weather"
)

type fakeBrewer struct {
	outcome coffee.BrewOutcome
	err     error
	status  coffee.MachineStatus
	days    []time.Time
}

func (f *fakeBrewer) Brew(_ context.Context, today time.Time) (coffee.BrewOutcome, error) {
	f.days = append(f.days, today)
	return f.outcome, f.err
}

func (f *fakeBrewer) Status(context.Context) (coffee.MachineStatus, error) {
	return f.status, f.err
}

var fixedNow = time.Date(2024, time.March, 3, 9, 30, 0, 0, time.FixedZone("NZDT", 13*3600))

func newApp(b Brewer) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, b, func() time.Time { return fixedNow })
	return app
}

func doGet(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	b := &fakeBrewer{}
	app := newApp(b)

	code, body := doGet(t, app, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","service":"coffee-machine"}`, string(body))
	assert.Empty(t, b.days)
}

func TestBrewCoffeeOK(t *testing.T) {
	b := &fakeBrewer{outcome: coffee.BrewOutcome{Message: coffee.HotCoffeeMessage, Prepared: fixedNow}}
	app := newApp(b)

	for _, path := range []string{"/brew-coffee", "/api/v1/brew-coffee"} {
		code, body := doGet(t, app, path)
		assert.Equal(t, http.StatusOK, code, path)

		var got brewResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, coffee.HotCoffeeMessage, got.Message)
		assert.Equal(t, "2024-03-03T09:30:00+1300", got.Prepared)
	}
	require.Len(t, b.days, 2)
	assert.True(t, b.days[0].Equal(fixedNow))
}

func TestBrewCoffeeOutOfCoffee(t *testing.T) {
	app := newApp(&fakeBrewer{outcome: coffee.BrewOutcome{OutOfCoffee: true, Prepared: fixedNow}})

	code, body := doGet(t, app, "/brew-coffee")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Empty(t, body)
}

func TestBrewCoffeeErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "teapot",
			err:     &coffee.RefusedError{Status: http.StatusServiceUnavailable, Message: "I'm a teapot"},
			code:    http.StatusServiceUnavailable,
			message: "I'm a teapot",
		},
		{
			name:    "weather down",
			err:     fmt.Errorf("%w: status 500", weather.ErrUpstreamFailure),
			code:    http.StatusBadGateway,
			message: "weather service unavailable",
		},
		{
			name:    "store broken",
			err:     errors.New("disk on fire"),
			code:    http.StatusInternalServerError,
			message: "failed to brew coffee",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp(&fakeBrewer{err: tc.err})

			code, body := doGet(t, app, "/api/v1/brew-coffee")
			assert.Equal(t, tc.code, code)

			var got struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(body, &got))
			assert.True(t, got.Error)
			assert.Equal(t, tc.message, got.Message)
		})
	}
}

func TestStatus(t *testing.T) {
	app := newApp(&fakeBrewer{status: coffee.MachineStatus{
		RequestCount:     7,
		LastRequestDate:  time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
		BrewsUntilRefill: 2,
	}})

	code, body := doGet(t, app, "/api/v1/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"requestCount":7,"lastRequestDate":"2024-03-02","brewsUntilRefill":2}`, string(body))
}

func TestStatusFreshMachine(t *testing.T) {
	app := newApp(&fakeBrewer{status: coffee.MachineStatus{BrewsUntilRefill: 4}})

	code, body := doGet(t, app, "/api/v1/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"requestCount":0,"brewsUntilRefill":4}`, string(body))
}

// Runs the real engine against a stub weather API to check the wiring end to end.
func TestBrewCoffeeWithEngine(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"main":{"temp":31.5}}`))
	}))
	defer api.Close()

	client, err := weather.NewClient(api.Client(), weather.Config{URLTemplate: api.URL + "/weather?q={city}"})
	require.NoError(t, err)

	engine := coffee.NewEngine(store.NewMemoryStore("default"), client, coffee.Settings{Threshold: 30})
	app := newApp(engine)

	for i := 1; i <= 4; i++ {
		code, body := doGet(t, app, "/brew-coffee")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, string(body), coffee.IcedCoffeeMessage)
	}

	code, body := doGet(t, app, "/brew-coffee")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Empty(t, body)

	code, body = doGet(t, app, "/api/v1/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"requestCount":5,"lastRequestDate":"2024-03-03","brewsUntilRefill":4}`, string(body))
}

func TestBrewCoffeeAprilFirstWithEngine(t *testing.T) {
	engine := coffee.NewEngine(store.NewMemoryStore("default"), nil, coffee.Settings{Threshold: 30})
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, engine, func() time.Time {
		return time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)
	})

	code, body := doGet(t, app, "/brew-coffee")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"error":true,"message":"I'm a teapot"}`, string(body))
}
