package engine

import "strings"

// CountCellState counts the cells of a grid in the given state
func CountCellState(grid [][]Cell, state CellState) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell.State == state {
				count++
			}
		}
	}
	return count
}

// RenderGrid draws the grid as text: '#' for blocked cells, '.' for empty
// cells and a letter per placed instance. Letters are assigned in the order
// of placements, so the same snapshot always renders the same way.
func RenderGrid(grid [][]Cell, placements []Placement) string {
	letters := make(map[string]byte, len(placements))
	for i, p := range placements {
		letters[p.InstanceID] = PlacementLetter(i)
	}

	var b strings.Builder
	for _, row := range grid {
		for _, cell := range row {
			switch cell.State {
			case Blocked:
				b.WriteByte('#')
			case Occupied:
				if letter, ok := letters[cell.InstanceID]; ok {
					b.WriteByte(letter)
				} else {
					b.WriteByte('?')
				}
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PlacementLetter returns the letter RenderGrid draws for the i-th placement
func PlacementLetter(i int) byte {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	return alphabet[i%len(alphabet)]
}
