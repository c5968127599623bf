package engine

import "go.uber.org/zap"

// giveDragon makes seat the holder unless someone already holds the dragon
func (e *GameEngine) giveDragon(seat *Seat) {
	if e.dragon == nil {
		e.dragon = seat
		e.logger.Debug("dragon tile taken", zap.Stringer("color", seat.Color))
	}
}

// drawAndPassDragon feeds the pile to the dragon holder one tile at a time,
// passing the dragon after every draw to the next active seat short of a full
// hand. On the final turn each holder fills its hand before passing.
func (e *GameEngine) drawAndPassDragon(final bool) {
	for e.dragon != nil && !e.deck.IsEmpty() {
		for !e.dragon.Hand.Full() {
			t, err := e.deck.Draw()
			if err != nil {
				break
			}
			e.dragon.Hand.Add(t)
			if !final {
				break
			}
		}
		e.dragon = e.nextHolder(e.dragon)
	}
}

// nextHolder returns the first active seat after from, wrapping, whose hand
// is not full. from itself is never chosen.
func (e *GameEngine) nextHolder(from *Seat) *Seat {
	start := -1
	for i, s := range e.active {
		if s == from {
			start = i
			break
		}
	}
	n := len(e.active)
	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		if start < 0 {
			idx = step - 1
		}
		s := e.active[idx]
		if s != from && !s.Hand.Full() {
			return s
		}
	}
	return nil
}
