package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoParamFunction is returned when a script defines no global param function.
var ErrNoParamFunction = errors.New("scripting: script defines no param function")

// ScriptStore resolves parameters by calling the script's param(name)
// function. It satisfies params.Store and is safe for concurrent use; calls
// into the VM are serialized.
type ScriptStore struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
}

// LoadScriptFile creates a ScriptStore from the Lua file at path.
//
// Precondition: path must be readable; instLimit <= 0 uses DefaultInstructionLimit.
// Postcondition: Returns a ready ScriptStore or a non-nil error.
func LoadScriptFile(ctx context.Context, path string, instLimit int, logger *zap.Logger) (*ScriptStore, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return LoadScript(ctx, string(src), instLimit, logger)
}

// LoadScript creates a ScriptStore from Lua source. Running the top level of
// the script is bounded by the same instruction limit as each lookup.
//
// Postcondition: Returns a ready ScriptStore, ErrNoParamFunction, or a Lua error.
func LoadScript(ctx context.Context, src string, instLimit int, logger *zap.Logger) (*ScriptStore, error) {
	L := NewSandboxedState()
	RegisterModules(L)

	if err := runLimited(ctx, L, instLimit, func() error { return L.DoString(src) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading script: %w", err)
	}
	if _, ok := L.GetGlobal("param").(*lua.LFunction); !ok {
		L.Close()
		return nil, ErrNoParamFunction
	}
	return &ScriptStore{L: L, instLimit: instLimit, logger: logger}, nil
}

// Lookup calls param(name). A nil or non-string result is empty text; a
// number result is not converted.
//
// Postcondition: Returns the text, or a non-nil error on a Lua runtime error
// or an exceeded instruction limit.
func (s *ScriptStore) Lookup(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ret lua.LValue = lua.LNil
	err := runLimited(ctx, s.L, s.instLimit, func() error {
		if err := s.L.CallByParam(lua.P{
			Fn:      s.L.GetGlobal("param"),
			NRet:    1,
			Protect: true,
		}, lua.LString(name)); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scripting: param(%q): %w", name, err)
	}

	str, ok := ret.(lua.LString)
	if !ok {
		if ret != lua.LNil {
			s.logger.Debug("scripting: non-string parameter value",
				zap.String("name", name),
				zap.String("type", ret.Type().String()),
			)
		}
		return "", nil
	}
	return string(str), nil
}

// Close releases the VM.
func (s *ScriptStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}
