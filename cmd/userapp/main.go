// Command userapp wires a small application with grove: log sinks exposed
// under interface keys, an engine built on demand through a factory, and a
// car assembled from both. Run it with:
//
//	go run ./cmd/userapp
//
// Settings are read from ./cmd/userapp/config.yml, ./config.yml or
// USERAPP_* environment variables (USERAPP_LOGGING_LEVEL=debug shows the
// container's own events).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ARTM2000/grove"
	"github.com/ARTM2000/grove/config"
	"github.com/ARTM2000/grove/logger"
)

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

type Log interface {
	Write(message string)
}

type Console interface {
	Color() string
}

type ConsoleLog struct{ color string }

func NewConsoleLog() *ConsoleLog { return &ConsoleLog{color: "green"} }

func (l *ConsoleLog) Write(message string) { fmt.Println(message) }
func (l *ConsoleLog) Color() string        { return l.color }

type SMSLog struct{ phoneNumber string }

func NewSMSLog(phoneNumber string) *SMSLog { return &SMSLog{phoneNumber: phoneNumber} }

func (l *SMSLog) Write(message string) {
	fmt.Printf("SMS to %s : %s\n", l.phoneNumber, message)
}

type Engine struct {
	log Log
	id  int
}

func NewEngine(log Log, id int) *Engine { return &Engine{log: log, id: id} }

func (e *Engine) Ahead(power int) {
	e.log.Write(fmt.Sprintf("Engine [%d] ahead %d", e.id, power))
}

type Car struct {
	engine *Engine
	log    Log
}

func NewCar(engine *Engine, log Log) *Car { return &Car{engine: engine, log: log} }

func (c *Car) Go() {
	c.engine.Ahead(100)
	c.log.Write("Car going forward...")
}

// Garage builds cars with a chosen engine id.
type Garage struct {
	newEngine func(int) (*Engine, error)
	log       Log
}

func NewGarage(newEngine func(int) (*Engine, error), log Log) *Garage {
	return &Garage{newEngine: newEngine, log: log}
}

func (g *Garage) Build(engineID int) (*Car, error) {
	e, err := g.newEngine(engineID)
	if err != nil {
		return nil, err
	}
	return NewCar(e, g.log), nil
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("userapp")
	if err != nil {
		return err
	}
	log := logger.New(&cfg.Logging, cfg.Name)

	b := grove.NewBuilder(grove.WithConfig(cfg.Container), grove.WithLogger(log))

	// Registration order does not matter.
	if err := b.RegisterInstance(NewConsoleLog(), grove.As[Log](), grove.As[Console]()); err != nil {
		return err
	}
	if err := b.Register(NewSMSLog, grove.AsNamed[Log]("sms"), grove.WithParameterNames("phoneNumber")); err != nil {
		return err
	}
	if err := b.Register(NewEngine, grove.WithDefault(1, 123)); err != nil {
		return err
	}
	if err := b.Register(NewCar); err != nil {
		return err
	}
	if err := b.Register(NewGarage, grove.WithLifetime(grove.Singleton)); err != nil {
		return err
	}

	c, err := b.Build()
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}()

	car, err := grove.Resolve[*Car](c)
	if err != nil {
		return err
	}
	car.Go()

	// A typed parameter replaces the default engine id for this call only.
	car, err = grove.Resolve[*Car](c, grove.TypedAs[*Engine](NewEngine(grove.MustResolve[Log](c), 7)))
	if err != nil {
		return err
	}
	car.Go()

	sms, err := grove.ResolveNamed[Log](c, "sms", grove.Named("phoneNumber", "+123456789"))
	if err != nil {
		return err
	}
	sms.Write("Hello, world!")

	garage, err := grove.Resolve[*Garage](c)
	if err != nil {
		return err
	}
	for _, id := range []int{1, 2} {
		car, err := garage.Build(id)
		if err != nil {
			return err
		}
		car.Go()
	}

	newEngine, err := grove.Factory1[int, *Engine](c)
	if err != nil {
		return err
	}
	engine, err := newEngine(42)
	if err != nil {
		return err
	}
	engine.Ahead(50)

	console := grove.MustResolve[Console](c)
	log.Info("demo finished", logger.Fields("console_color", console.Color()))
	return nil
}
