package scripting

import (
	"fmt"
	"math"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// RegisterModules registers the dice.* helper table into L:
//
//	dice.term(count, sides [, mods])  -> "4d6kh3"
//	dice.signed(n)                    -> "+3", "-1", "+0"
//	dice.ability(score)               -> signed ability modifier, floor((score-10)/2)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: dice global is defined in L.
func RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"term":    luaTerm,
		"signed":  luaSigned,
		"ability": luaAbility,
	})
	L.SetGlobal("dice", mod)
}

func luaTerm(L *lua.LState) int {
	count := L.CheckInt(1)
	sides := L.CheckInt(2)
	mods := L.OptString(3, "")
	if count < 0 {
		L.ArgError(1, "count must not be negative")
		return 0
	}
	if sides <= 0 {
		L.ArgError(2, "sides must be positive")
		return 0
	}
	L.Push(lua.LString(fmt.Sprintf("%dd%d%s", count, sides, mods)))
	return 1
}

func luaSigned(L *lua.LState) int {
	L.Push(lua.LString(signed(L.CheckInt(1))))
	return 1
}

func luaAbility(L *lua.LState) int {
	score := L.CheckInt(1)
	L.Push(lua.LString(signed(int(math.Floor(float64(score-10) / 2)))))
	return 1
}

func signed(n int) string {
	if n < 0 {
		return strconv.Itoa(n)
	}
	return "+" + strconv.Itoa(n)
}
