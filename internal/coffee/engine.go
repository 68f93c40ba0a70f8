package coffee

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/coffee-machine/internal/common"
)

// Settings holds the immutable decision parameters of the engine.
type Settings struct {
	// Threshold is the temperature above which iced coffee is served.
	Threshold float64
	// City is looked up for every brew; DefaultCity when empty.
	City string
}

// Engine decides the outcome of brew requests from the stored counter and the weather.
// It performs no locking: concurrent brews on the same record race and the last
// Update wins.
type Engine struct {
	store    RequestStore
	weather  WeatherProvider
	settings Settings
	now      func() time.Time
}

// NewEngine creates a new Engine.
func NewEngine(store RequestStore, weather WeatherProvider, settings Settings) *Engine {
	if settings.City == "" {
		settings.City = DefaultCity
	}
	return &Engine{
		store:    store,
		weather:  weather,
		settings: settings,
		now:      time.Now,
	}
}

// Brew handles one coffee request made on the calendar day of today.
//
// On April 1st it returns a *RefusedError without touching the store. Every
// RefillEvery-th request is persisted and reported as OutOfCoffee; the stored
// date is left as it was. Otherwise the weather decides between iced and hot
// coffee, and the record is persisted with today's date. Weather failures are
// returned as-is and nothing is written.
func (e *Engine) Brew(ctx context.Context, today time.Time) (BrewOutcome, error) {
	if common.IsMonthDay(today, time.April, 1) {
		return BrewOutcome{}, errTeapot()
	}

	record, err := e.store.Get(ctx)
	if err != nil {
		return BrewOutcome{}, fmt.Errorf("load brew record: %w", err)
	}
	if record == nil {
		record = &BrewRecord{RequestCount: 0, LastRequestDate: common.DateOf(today)}
	}

	record.RequestCount++

	if record.RequestCount%RefillEvery == 0 {
		if err := e.store.Update(ctx, *record); err != nil {
			return BrewOutcome{}, fmt.Errorf("save brew record: %w", err)
		}
		log.WithField("count", record.RequestCount).Debug("coffee: out of coffee")
		return BrewOutcome{OutOfCoffee: true, Prepared: e.now()}, nil
	}

	temperature, err := e.weather.Temperature(ctx, e.settings.City)
	if err != nil {
		return BrewOutcome{}, err
	}

	message := HotCoffeeMessage
	if temperature > e.settings.Threshold {
		message = IcedCoffeeMessage
	}

	record.LastRequestDate = common.DateOf(today)
	if err := e.store.Update(ctx, *record); err != nil {
		return BrewOutcome{}, fmt.Errorf("save brew record: %w", err)
	}

	log.WithFields(log.Fields{
		"count":       record.RequestCount,
		"temperature": temperature,
		"threshold":   e.settings.Threshold,
	}).Debug("coffee: brewed")

	return BrewOutcome{Message: message, Prepared: e.now()}, nil
}

// Status reports the stored counter without changing it.
func (e *Engine) Status(ctx context.Context) (MachineStatus, error) {
	record, err := e.store.Get(ctx)
	if err != nil {
		return MachineStatus{}, fmt.Errorf("load brew record: %w", err)
	}
	if record == nil {
		return MachineStatus{BrewsUntilRefill: RefillEvery - 1}, nil
	}
	return MachineStatus{
		RequestCount:     record.RequestCount,
		LastRequestDate:  record.LastRequestDate,
		BrewsUntilRefill: RefillEvery - 1 - record.RequestCount%RefillEvery,
	}, nil
}
