package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable simulation policy.
// Single-goroutine access only: boss decisions run inside store
// transactions, which are already serialized.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "ai"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

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

// AttackOption is one boss attack slot offered to the Lua policy.
type AttackOption struct {
	Slot    int
	Kind    string // "area", "directional", "summon"
	Damage  int
	Range   float64
	Ready   bool // cooldown elapsed
	InRange bool // target within this slot's range
}

// BossAttackContext holds pre-packed data for an attack-slot decision.
type BossAttackContext struct {
	BossType   string
	HPPct      float64 // 0.0-1.0
	TargetDist float64 // horizontal distance to the chosen target
	Options    []AttackOption
}

// PickBossAttack calls Lua pick_boss_attack(ctx) and returns the chosen slot.
// Returns 0 when the script is missing, errors, or declines; the caller then
// applies its own fallback policy. The caller always re-validates readiness,
// so a misbehaving script can never bypass cooldown gating.
func (e *Engine) PickBossAttack(ctx BossAttackContext) int {
	fn := e.vm.GetGlobal("pick_boss_attack")
	if fn == lua.LNil {
		return 0
	}

	t := e.vm.NewTable()
	t.RawSetString("boss_type", lua.LString(ctx.BossType))
	t.RawSetString("hp_pct", lua.LNumber(ctx.HPPct))
	t.RawSetString("target_dist", lua.LNumber(ctx.TargetDist))

	opts := e.vm.NewTable()
	for i, opt := range ctx.Options {
		row := e.vm.NewTable()
		row.RawSetString("slot", lua.LNumber(opt.Slot))
		row.RawSetString("kind", lua.LString(opt.Kind))
		row.RawSetString("damage", lua.LNumber(opt.Damage))
		row.RawSetString("range", lua.LNumber(opt.Range))
		if opt.Ready {
			row.RawSetString("ready", lua.LTrue)
		} else {
			row.RawSetString("ready", lua.LFalse)
		}
		if opt.InRange {
			row.RawSetString("in_range", lua.LTrue)
		} else {
			row.RawSetString("in_range", lua.LFalse)
		}
		opts.RawSetInt(i+1, row)
	}
	t.RawSetString("options", opts)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua pick_boss_attack error", zap.Error(err),
			zap.String("boss_type", ctx.BossType))
		return 0
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	return int(lua.LVAsNumber(result))
}

// PlayerAttackContext holds pre-packed data for a player melee swing.
type PlayerAttackContext struct {
	PlayerLevel int
	PlayerJob   int
	TargetLevel int
	TargetHP    int
	TargetMaxHP int
	TargetBoss  bool
}

// DefaultPlayerDamage is the Go fallback when no script defines the damage
// formula. Deterministic on purpose.
func DefaultPlayerDamage(level int) int {
	return 4 + level
}

// CalcPlayerAttack calls Lua calc_player_attack(ctx) and returns the damage.
// Falls back to DefaultPlayerDamage when the script is missing, errors, or
// returns a non-positive number.
func (e *Engine) CalcPlayerAttack(ctx PlayerAttackContext) int {
	fn := e.vm.GetGlobal("calc_player_attack")
	if fn == lua.LNil {
		return DefaultPlayerDamage(ctx.PlayerLevel)
	}

	t := e.vm.NewTable()

	atk := e.vm.NewTable()
	atk.RawSetString("level", lua.LNumber(ctx.PlayerLevel))
	atk.RawSetString("job", lua.LNumber(ctx.PlayerJob))
	t.RawSetString("attacker", atk)

	tgt := e.vm.NewTable()
	tgt.RawSetString("level", lua.LNumber(ctx.TargetLevel))
	tgt.RawSetString("hp", lua.LNumber(ctx.TargetHP))
	tgt.RawSetString("max_hp", lua.LNumber(ctx.TargetMaxHP))
	if ctx.TargetBoss {
		tgt.RawSetString("boss", lua.LTrue)
	} else {
		tgt.RawSetString("boss", lua.LFalse)
	}
	t.RawSetString("target", tgt)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_player_attack error", zap.Error(err))
		return DefaultPlayerDamage(ctx.PlayerLevel)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	dmg := int(lua.LVAsNumber(result))
	if dmg <= 0 {
		return DefaultPlayerDamage(ctx.PlayerLevel)
	}
	return dmg
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
