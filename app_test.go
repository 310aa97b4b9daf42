package morphfx

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	// Test changing state
	app.changeState(2)
	if app.nextState != State(2) {
		t.Errorf("The nextState should be set correctly.")
	}
	if !app.stateTransitioning {
		t.Errorf("The stateTransitioning flag should be true.")
	}

	// Test executing state change
	app.executeChangeState(2)
	if app.state != State(2) {
		t.Errorf("The app state should change correctly.")
	}
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)

	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	// Expect panic when trying to add the same type of resource again
	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)

	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")
}

func TestApp_callSystem_injectsResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}
	app.addResources(NewMockResource1("injected"))

	var got string
	app.callSystem(func(r *MockResource1) {
		got = r.name
	})
	assert.Equal(t, "injected", got)

	var sawCommands bool
	app.callSystem(func(cmd *Commands) {
		sawCommands = cmd != nil && cmd.app == app
	})
	assert.True(t, sawCommands, "Commands should be injected with the owning app.")
}

func TestApp_callSystem_unresolvableDependencyPanics(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	require.Panics(t, func() {
		app.callSystem(func(r *MockResource2) {})
	})
}

type countingModule struct {
	installs *int
}

func (m countingModule) Install(app *App, cmd *Commands) {
	*m.installs++
	cmd.AddResources(NewMockResource1("from module"))
}

func TestAppBuilder_Build(t *testing.T) {
	installs := 0
	app := NewAppBuilder().
		UseStates(StateLoading, StateShutdown).
		UseModule(countingModule{installs: &installs}).
		Build()

	assert.Equal(t, 1, installs)
	assert.True(t, app.stateful)
	assert.Contains(t, app.resources, reflect.TypeOf(MockResource1{}))

	// All default stages must accept stateless systems after Build.
	for _, stage := range app.stages {
		if _, ok := app.systemsStateless[stage.Name]; !ok {
			t.Errorf("stage %s not initialized", stage.Name)
		}
	}
}

func TestApp_statePhaseOrdering(t *testing.T) {
	app := NewAppBuilder().
		UseStates(StateLoading, StateShutdown).
		Build()

	var calls []string
	record := func(name string) func() {
		return func() { calls = append(calls, name) }
	}

	app.UseSystem(System(record("loading-enter")).InStage(Update).InState(OnEnter(StateLoading)))
	app.UseSystem(System(record("loading-execute")).InStage(Update).InState(OnExecute(StateLoading)))
	app.UseSystem(System(record("loading-exit")).InStage(Update).InState(OnExit(StateLoading)))
	app.UseSystem(System(record("shutdown-enter")).InStage(Update).InState(OnEnter(StateShutdown)))
	app.UseSystem(System(record("shutdown-exit")).InStage(Update).InState(OnExit(StateShutdown)))
	app.UseSystem(System(record("every-tick")).InStage(Prelude).InState(Always()))

	// One loading tick, then a transition to the final state, then the final
	// exit phase. This is the order App.Run drives.
	app.state = StateLoading
	app.callSystems(app.state, enter)
	app.callSystems(app.state, execute)
	app.executeChangeState(StateShutdown)
	app.callSystems(app.state, execute)
	app.callSystems(app.state, exit)

	want := []string{
		"loading-enter",
		"every-tick", "loading-execute",
		"loading-exit",
		"shutdown-enter",
		"every-tick",
		"shutdown-exit",
	}
	assert.Equal(t, want, calls)
}

func TestLoggingModule_DefaultPrefix(t *testing.T) {
	app := NewAppBuilder().
		UseModule(LoggingModule{}).
		Build()

	logger, ok := app.Logger().(*DefaultLogger)
	require.True(t, ok)
	assert.Equal(t, "morphfx", logger.prefix)

	app = NewAppBuilder().
		UseModule(LoggingModule{Prefix: "tool"}).
		Build()
	assert.Equal(t, "tool", app.Logger().(*DefaultLogger).prefix)
}

func TestApp_LoggerFallback(t *testing.T) {
	var app *App
	assert.NotNil(t, app.Logger(), "nil app must still return a logger")

	app = &App{resources: make(map[reflect.Type]any)}
	assert.NotNil(t, app.Logger())

	logger := NewDefaultLogger("test", false)
	app.addResources(logger)
	assert.Equal(t, Logger(logger), app.Logger())
}
