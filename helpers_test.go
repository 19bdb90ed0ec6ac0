package grove

import (
	"errors"
	"fmt"
	"testing"
)

// Shared test types and constructors used across test files.

// mustRegister calls t.Fatal if registration fails.
func mustRegister(t *testing.T, b *Builder, constructor interface{}, opts ...RegistrationOption) {
	t.Helper()
	if err := b.Register(constructor, opts...); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

// mustRegisterNamed calls t.Fatal if named registration fails.
func mustRegisterNamed(t *testing.T, b *Builder, name string, constructor interface{}, opts ...RegistrationOption) {
	t.Helper()
	if err := b.RegisterNamed(name, constructor, opts...); err != nil {
		t.Fatalf("RegisterNamed(%q): %v", name, err)
	}
}

// mustBuild calls t.Fatal if build fails.
func mustBuild(t *testing.T, b *Builder) *Container {
	t.Helper()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

type testLogger struct{ Prefix string }
type testConfig struct{ DSN string }

type testDatabase struct {
	Config *testConfig
	Logger *testLogger
}

type testUserRepo struct {
	DB     *testDatabase
	Logger *testLogger
}

type testService interface {
	Name() string
}

type testUserService struct {
	Repo   *testUserRepo
	Logger *testLogger
}

func (s *testUserService) Name() string { return "user" }

type testOrderService struct{ Logger *testLogger }

func (s *testOrderService) Name() string { return "order" }

type testCircA struct{ B *testCircB }
type testCircB struct{ C *testCircC }
type testCircC struct{ A *testCircA }

func newTestLogger() *testLogger           { return &testLogger{Prefix: "app"} }
func newTestConfig() *testConfig           { return &testConfig{DSN: "postgres://localhost"} }
func newTestCircA(b *testCircB) *testCircA { return &testCircA{B: b} }
func newTestCircB(c *testCircC) *testCircB { return &testCircB{C: c} }
func newTestCircC(a *testCircA) *testCircC { return &testCircC{A: a} }

func newTestDatabase(cfg *testConfig, log *testLogger) *testDatabase {
	return &testDatabase{Config: cfg, Logger: log}
}

func newTestUserRepo(db *testDatabase, log *testLogger) *testUserRepo {
	return &testUserRepo{DB: db, Logger: log}
}

func newTestUserService(repo *testUserRepo, log *testLogger) *testUserService {
	return &testUserService{Repo: repo, Logger: log}
}

func newTestOrderService(log *testLogger) *testOrderService {
	return &testOrderService{Logger: log}
}

// Log sinks mirroring the classic ConsoleLog/EmailLog/SMSLog examples.

type testLog interface {
	Write(message string) string
}

type testConsole interface {
	Columns() int
}

// testConsoleLog has a field so that separate allocations have distinct
// addresses.
type testConsoleLog struct{ columns int }

func (l *testConsoleLog) Write(message string) string { return message }
func (l *testConsoleLog) Columns() int                { return l.columns }

func newTestConsoleLog() *testConsoleLog { return &testConsoleLog{columns: 80} }

type testSMSLog struct{ Phone string }

func (l *testSMSLog) Write(message string) string {
	return fmt.Sprintf("SMS to %s : %s", l.Phone, message)
}

func newTestSMSLog(phoneNumber string) *testSMSLog { return &testSMSLog{Phone: phoneNumber} }

type testEngine struct {
	Log testLog
	ID  int
}

func newTestEngine(log testLog, id int) *testEngine { return &testEngine{Log: log, ID: id} }

type testCar struct {
	Engine *testEngine
	Log    testLog
}

func newTestCar(engine *testEngine, log testLog) *testCar { return &testCar{Engine: engine, Log: log} }

// testClosable is a singleton that implements io.Closer for shutdown tests.
type testClosable struct {
	Name   string
	Closed bool
	Order  *[]string // shared slice to record close order
}

func (c *testClosable) Close() error {
	c.Closed = true
	if c.Order != nil {
		*c.Order = append(*c.Order, c.Name)
	}
	return nil
}

// testFailCloser implements io.Closer but returns an error.
type testFailCloser struct{}

func (f *testFailCloser) Close() error {
	return errors.New("close failed")
}
