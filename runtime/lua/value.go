package lua

import (
	"fmt"

	glua "github.com/yuin/gopher-lua"
)

// goToLua converts a JSON-shaped Go value into a Lua value. Unsupported
// kinds are an error rather than a silent best-effort conversion.
func goToLua(L *glua.LState, v any) (glua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return glua.LNil, nil
	case bool:
		return glua.LBool(x), nil
	case string:
		return glua.LString(x), nil
	case int:
		return glua.LNumber(x), nil
	case int64:
		return glua.LNumber(x), nil
	case float64:
		return glua.LNumber(x), nil
	case []any:
		tbl := L.NewTable()
		for _, item := range x {
			lv, err := goToLua(L, item)
			if err != nil {
				return nil, err
			}
			tbl.Append(lv)
		}
		return tbl, nil
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range x {
			lv, err := goToLua(L, item)
			if err != nil {
				return nil, err
			}
			tbl.RawSetString(k, lv)
		}
		return tbl, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func sliceToTable(L *glua.LState, items []any) (*glua.LTable, error) {
	tbl := L.NewTable()
	for _, item := range items {
		lv, err := goToLua(L, item)
		if err != nil {
			return nil, err
		}
		tbl.Append(lv)
	}
	return tbl, nil
}

// luaToGo converts a Lua value into its JSON-shaped Go form. Tables with
// consecutive integer keys become slices, everything else becomes a map
// keyed by the string form of the key.
func luaToGo(v glua.LValue) any {
	switch x := v.(type) {
	case *glua.LNilType:
		return nil
	case glua.LBool:
		return bool(x)
	case glua.LNumber:
		return float64(x)
	case glua.LString:
		return string(x)
	case *glua.LTable:
		return tableToGo(x)
	default:
		return x.String()
	}
}

func tableToGo(tbl *glua.LTable) any {
	if n := tbl.MaxN(); n > 0 {
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, luaToGo(tbl.RawGetInt(i)))
		}
		return out
	}
	out := make(map[string]any)
	tbl.ForEach(func(k, v glua.LValue) {
		out[k.String()] = luaToGo(v)
	})
	return out
}

func tableToSlice(tbl *glua.LTable) []any {
	n := tbl.MaxN()
	out := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, luaToGo(tbl.RawGetInt(i)))
	}
	return out
}
