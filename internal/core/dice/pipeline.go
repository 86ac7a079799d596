package dice

import (
	"slices"
	"sort"
)

// Source supplies unbiased die faces. *random.Sampler implements it.
type Source interface {
	// Uniform returns an integer in [1, sides].
	Uniform(sides int) (int, error)
	// Fate returns -1, 0 or +1.
	Fate() (int, error)
}

// ResultType says whether a value is a sum or a success count.
type ResultType string

const (
	TypeSum          ResultType = "sum"
	TypeSuccessCount ResultType = "success_count"
)

// RerollStep records one redraw of a die.
type RerollStep struct {
	From    int
	To      int
	Trigger string
}

// DieRoll is one die and its history. Explosion children are owned by the
// die that triggered them.
type DieRoll struct {
	Base       int
	Rerolls    []RerollStep
	Explosions []DieRoll
	// Value is the die's contribution: the last reroll, minus one for a
	// penetrating child, plus every compounded draw.
	Value         int
	Explodes      bool
	FromExplosion bool
	Compound      bool
	Dropped       bool
	Success       *bool
}

// TermTrace is the record of one evaluated dice term.
type TermTrace struct {
	Term       string
	Type       ResultType
	Rolls      []DieRoll // flattened pool entries in display order
	KeptValues []int
	Sum        *int
	Successes  *int
	Threshold  string
}

// Value returns the term's numeric contribution.
func (t TermTrace) Value() int {
	if t.Successes != nil {
		return *t.Successes
	}
	if t.Sum != nil {
		return *t.Sum
	}
	return 0
}

// termModifiers is the fixed-order view of a term's modifier list.
type termModifiers struct {
	reroll    *Reroll
	explode   *Explode
	keepDrop  *KeepDrop
	threshold *Threshold
	sort      *Sort
}

func collectModifiers(term *DiceTerm) termModifiers {
	var mods termModifiers
	for _, mod := range term.Modifiers {
		switch m := mod.(type) {
		case Reroll:
			mods.reroll = &m
		case Explode:
			mods.explode = &m
		case KeepDrop:
			mods.keepDrop = &m
		case Threshold:
			mods.threshold = &m
		case Sort:
			mods.sort = &m
		}
	}
	return mods
}

type pipeline struct {
	term   *DiceTerm
	source Source
	limits Limits
	input  string
}

func (p *pipeline) draw() (int, error) {
	var (
		value int
		err   error
	)
	if p.term.Kind == SidesFate {
		value, err = p.source.Fate()
	} else {
		value, err = p.source.Uniform(p.term.Sides)
	}
	if err != nil {
		return 0, runtimeErrorf(p.input, p.term.Pos, "draw random value: %v", err)
	}
	return value, nil
}

// evaluateTerm runs the modifier pipeline for one term: base roll, reroll,
// explosion, keep/drop, threshold, sum, display sort.
func evaluateTerm(term *DiceTerm, source Source, limits Limits, input string) (TermTrace, error) {
	p := &pipeline{term: term, source: source, limits: limits, input: input}
	mods := collectModifiers(term)

	dice := make([]DieRoll, term.Count)
	for i := range dice {
		value, err := p.draw()
		if err != nil {
			return TermTrace{}, err
		}
		dice[i] = DieRoll{Base: value, Value: value}
	}

	if mods.reroll != nil {
		if err := p.applyReroll(dice, *mods.reroll); err != nil {
			return TermTrace{}, err
		}
	}
	if mods.explode != nil {
		if err := p.applyExplode(dice, *mods.explode); err != nil {
			return TermTrace{}, err
		}
	}

	pool := flatten(dice)
	trace := TermTrace{Term: term.Source, Type: TypeSum}

	if mods.keepDrop != nil {
		kept, err := p.applyKeepDrop(pool, *mods.keepDrop)
		if err != nil {
			return TermTrace{}, err
		}
		trace.KeptValues = kept
	}

	// A comparator cannot serve as both explosion trigger and success test,
	// so a term that explodes is always summed.
	if mods.threshold != nil && mods.explode == nil {
		successes := 0
		for i := range pool {
			if pool[i].Dropped {
				continue
			}
			hit := mods.threshold.When.Match(pool[i].Value)
			pool[i].Success = &hit
			if hit {
				successes++
			}
		}
		trace.Type = TypeSuccessCount
		trace.Successes = &successes
		trace.Threshold = mods.threshold.When.String()
	} else {
		sum := 0
		for _, die := range pool {
			if !die.Dropped {
				sum += die.Value
			}
		}
		trace.Sum = &sum
	}

	if mods.sort != nil {
		descending := mods.sort.Direction == SortDescending
		sort.SliceStable(pool, func(i, j int) bool {
			if descending {
				return pool[i].Value > pool[j].Value
			}
			return pool[i].Value < pool[j].Value
		})
	}
	trace.Rolls = pool
	return trace, nil
}

// applyReroll redraws matching base dice. The redraw budget is shared by
// the whole term; needing a redraw once it is spent is a LimitError.
func (p *pipeline) applyReroll(dice []DieRoll, mod Reroll) error {
	redraws := 0
	trigger := mod.When.String()
	for i := range dice {
		die := &dice[i]
		for mod.When.Match(die.Value) {
			if mod.Once && len(die.Rerolls) > 0 {
				break
			}
			if redraws >= p.limits.MaxRerolls {
				return limitErrorf(p.input, mod.Pos, "exceeded maximum rerolls of %d", p.limits.MaxRerolls)
			}
			value, err := p.draw()
			if err != nil {
				return err
			}
			redraws++
			die.Rerolls = append(die.Rerolls, RerollStep{From: die.Value, To: value, Trigger: trigger})
			die.Value = value
		}
	}
	return nil
}

// applyExplode chains extra dice from every die whose newest value matches.
// A penetrating child is tested after its one point penalty. Explosion
// events per term stop silently at MaxExplosions.
func (p *pipeline) applyExplode(dice []DieRoll, mod Explode) error {
	when := Predicate{Op: CompareEQ, Value: p.term.MaxFace()}
	if mod.When != nil {
		when = *mod.When
	}

	events := 0
	for i := range dice {
		root := &dice[i]
		current := root
		raw := root.Value
		for when.Match(raw) && events < p.limits.MaxExplosions {
			value, err := p.draw()
			if err != nil {
				return err
			}
			events++
			current.Explodes = true
			child := DieRoll{Base: value, Value: value, FromExplosion: true}
			raw = value

			switch mod.Mode {
			case ExplodeCompound:
				root.Compound = true
				root.Value += value
				root.Explosions = append(root.Explosions, child)
				continue
			case ExplodePenetrating:
				child.Value = value - 1
				raw = child.Value
			}
			current.Explosions = append(current.Explosions, child)
			current = &current.Explosions[len(current.Explosions)-1]
		}
	}
	return nil
}

// flatten lists the pool entries of the die trees in roll order: each die
// followed by the dice its explosions produced. Compounded children are
// already folded into their root and are not separate entries.
func flatten(dice []DieRoll) []DieRoll {
	pool := make([]DieRoll, 0, len(dice))
	var walk func(die DieRoll)
	walk = func(die DieRoll) {
		pool = append(pool, die)
		if die.Compound {
			return
		}
		for _, child := range die.Explosions {
			walk(child)
		}
	}
	for _, die := range dice {
		walk(die)
	}
	return pool
}

// applyKeepDrop marks unselected entries as dropped and returns the kept
// values highest first. Ties keep roll order.
func (p *pipeline) applyKeepDrop(pool []DieRoll, mod KeepDrop) ([]int, error) {
	if mod.Count > len(pool) {
		return nil, semanticErrorf(p.input, mod.Pos, "cannot %s %d from %d dice", keepDropVerb(mod.Kind), mod.Count, len(pool))
	}

	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pool[order[a]].Value > pool[order[b]].Value
	})

	var kept []int
	switch mod.Kind {
	case KeepHigh:
		kept = order[:mod.Count]
	case KeepLow:
		kept = order[len(order)-mod.Count:]
	case DropHigh:
		kept = order[mod.Count:]
	case DropLow:
		kept = order[:len(order)-mod.Count]
	}

	keep := make([]bool, len(pool))
	values := make([]int, 0, len(kept))
	for _, idx := range kept {
		keep[idx] = true
		values = append(values, pool[idx].Value)
	}
	for i := range pool {
		pool[i].Dropped = !keep[i]
	}
	return slices.Clip(values), nil
}

func keepDropVerb(kind KeepDropKind) string {
	switch kind {
	case KeepHigh, KeepLow:
		return "keep"
	default:
		return "drop"
	}
}
