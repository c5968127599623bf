package engine

// maxTraceSteps bounds a trace: each of the four paths of every cell can be
// walked at most once by a single token.
const maxTraceSteps = 4 * BoardSize * BoardSize

// TraceMove follows connected paths from tok until the cell ahead is empty or
// off the grid, and returns the resting token. The board is never modified;
// callers decide whether to commit the result.
//
// Tokens are not checked for collisions while they travel: in any state the
// engine can reach, two tokens never converge on the same point.
func TraceMove(b *Board, tok Token) Token {
	path := TracePath(b, tok)
	return path[len(path)-1]
}

// TracePath is TraceMove returning every intermediate stop, starting with tok
func TracePath(b *Board, tok Token) []Token {
	path := []Token{tok}
	for step := 0; step < maxTraceSteps; step++ {
		next := b.AdjacentCell(tok)
		tile, ok := b.TileAt(next)
		if !ok {
			break
		}
		entry, err := FacingPoint(tok.Index)
		if err != nil {
			break
		}
		exit, err := tile.PathEndpoint(entry)
		if err != nil {
			break
		}
		tok = Token{Color: tok.Color, Pos: next, Index: exit}
		path = append(path, tok)
	}
	return path
}
