package grove_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARTM2000/grove"
)

type ILog interface {
	Write(message string) string
}

type IConsole interface {
	Color() string
}

type ConsoleLog struct{ color string }

func NewConsoleLog() *ConsoleLog { return &ConsoleLog{color: "green"} }

func (l *ConsoleLog) Write(message string) string { return message }
func (l *ConsoleLog) Color() string               { return l.color }

type SMSLog struct{ phoneNumber string }

func NewSMSLog(phoneNumber string) *SMSLog { return &SMSLog{phoneNumber: phoneNumber} }

func (l *SMSLog) Write(message string) string {
	return fmt.Sprintf("SMS to %s : %s", l.phoneNumber, message)
}

func TestScenario_InstanceSharedAcrossKeys(t *testing.T) {
	t.Parallel()

	b := grove.NewBuilder()
	require.NoError(t, b.RegisterInstance(NewConsoleLog(), grove.As[ILog](), grove.As[IConsole]()))
	c, err := b.Build()
	require.NoError(t, err)

	log, err := grove.Resolve[ILog](c)
	require.NoError(t, err)
	console, err := grove.Resolve[IConsole](c)
	require.NoError(t, err)

	assert.Same(t, log.(*ConsoleLog), console.(*ConsoleLog))
	assert.Equal(t, "green", console.Color())
}

func TestScenario_TypeRegistrationGivesDistinctInstances(t *testing.T) {
	t.Parallel()

	b := grove.NewBuilder()
	require.NoError(t, b.Register(NewConsoleLog, grove.As[ILog](), grove.As[IConsole]()))
	c, err := b.Build()
	require.NoError(t, err)

	log, err := grove.Resolve[ILog](c)
	require.NoError(t, err)
	console, err := grove.Resolve[IConsole](c)
	require.NoError(t, err)

	assert.NotSame(t, log.(*ConsoleLog), console.(*ConsoleLog))
}

func TestScenario_SingletonSharedAcrossKeys(t *testing.T) {
	t.Parallel()

	b := grove.NewBuilder()
	require.NoError(t, b.Register(NewConsoleLog,
		grove.As[ILog](), grove.As[IConsole](), grove.WithLifetime(grove.Singleton)))
	c, err := b.Build()
	require.NoError(t, err)

	log := grove.MustResolve[ILog](c)
	console := grove.MustResolve[IConsole](c)
	assert.Same(t, log.(*ConsoleLog), console.(*ConsoleLog))
}

func TestScenario_NamedStringParameter(t *testing.T) {
	t.Parallel()

	b := grove.NewBuilder()
	require.NoError(t, b.Register(NewSMSLog, grove.As[ILog](), grove.WithParameterNames("phoneNumber")))
	c, err := b.Build()
	require.NoError(t, err)

	_, err = grove.Resolve[ILog](c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, grove.ErrUnresolvedParameter))
	assert.Contains(t, err.Error(), "phoneNumber")

	log, err := grove.Resolve[ILog](c, grove.Named("phoneNumber", "+123456789"))
	require.NoError(t, err)
	assert.Equal(t, "SMS to +123456789 : hello", log.Write("hello"))
}

func TestScenario_PredicateParameter(t *testing.T) {
	t.Parallel()

	b := grove.NewBuilder()
	require.NoError(t, b.Register(NewSMSLog,
		grove.As[ILog](),
		grove.WithParameterNames("phoneNumber"),
		grove.WithParameter(grove.ResolvedBy(
			func(p grove.ParamInfo) bool { return p.Name == "phoneNumber" },
			func(grove.ParamInfo, grove.Resolver) (any, error) { return "+12345678", nil },
		)),
	))
	c, err := b.Build()
	require.NoError(t, err)

	log, err := grove.Resolve[ILog](c)
	require.NoError(t, err)
	assert.Equal(t, "SMS to +12345678 : hi", log.Write("hi"))

	// call-site parameters of a higher precedence still win
	log, err = grove.Resolve[ILog](c, grove.Named("phoneNumber", "+1"))
	require.NoError(t, err)
	assert.Equal(t, "SMS to +1 : hi", log.Write("hi"))
}

func TestScenario_DelegateRegistration(t *testing.T) {
	t.Parallel()

	b := grove.NewBuilder()
	require.NoError(t, grove.RegisterDelegate(b, func(_ grove.Resolver, p grove.Parameters) (*SMSLog, error) {
		phone, err := grove.NamedValue[string](p, "phoneNumber")
		if err != nil {
			return nil, err
		}
		return NewSMSLog(phone), nil
	}, grove.As[ILog](), grove.WithParameter(grove.Named("phoneNumber", "+555"))))
	c, err := b.Build()
	require.NoError(t, err)

	log, err := grove.Resolve[ILog](c)
	require.NoError(t, err)
	assert.Equal(t, "SMS to +555 : x", log.Write("x"))

	log, err = grove.Resolve[ILog](c, grove.Named("phoneNumber", "+777"))
	require.NoError(t, err)
	assert.Equal(t, "SMS to +777 : x", log.Write("x"))
}

func TestScenario_UnknownService(t *testing.T) {
	t.Parallel()

	c, err := grove.NewBuilder().Build()
	require.NoError(t, err)

	_, err = grove.Resolve[ILog](c)
	assert.ErrorIs(t, err, grove.ErrUnknownService)
	assert.False(t, c.IsRegistered(grove.TypeKey[ILog]()))
}
