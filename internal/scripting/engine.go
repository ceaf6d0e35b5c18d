package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/runicrealm/engine/internal/input"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

var ErrNoModule = errors.New("lua module not found")

// Engine wraps a single gopher-lua VM for behavior scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	in  *input.State
}

// NewEngine creates a Lua engine and loads every .lua file in scriptsDir.
// An empty or missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, log: log}
	e.registerAPI()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// SetInput lets scripts query keys through engine.is_pressed and friends.
func (e *Engine) SetInput(in *input.State) { e.in = in }

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs src, usually a chunk defining a module table.
func (e *Engine) LoadString(name, src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

// HasModule reports whether a global table named module exists.
func (e *Engine) HasModule(module string) bool {
	_, ok := e.vm.GetGlobal(module).(*lua.LTable)
	return ok
}

// call invokes module.fn(args...). A missing function is not an error and
// reports called == false.
func (e *Engine) call(module, fn string, args ...lua.LValue) (called bool, err error) {
	tbl, ok := e.vm.GetGlobal(module).(*lua.LTable)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoModule, module)
	}
	f := tbl.RawGetString(fn)
	if f == lua.LNil {
		return false, nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		return true, fmt.Errorf("%s.%s: %w", module, fn, err)
	}
	return true, nil
}

// registerAPI installs the engine table scripts call back into.
func (e *Engine) registerAPI() {
	api := e.vm.NewTable()
	e.vm.SetFuncs(api, map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			e.log.Info("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
		"is_pressed": func(L *lua.LState) int {
			sym := L.CheckString(1)
			L.Push(lua.LBool(e.in != nil && e.in.IsPressed(sym)))
			return 1
		},
		"went_down": func(L *lua.LState) int {
			sym := L.CheckString(1)
			L.Push(lua.LBool(e.in != nil && e.in.WentDown(sym)))
			return 1
		},
	})
	e.vm.SetGlobal("engine", api)
}

// lNum reads a number field from a Lua table; non-numbers read as fallback.
func lNum(t *lua.LTable, key string, fallback float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return fallback
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
