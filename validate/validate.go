// Command validate checks the puzzle JSON files in a config directory
// (../configs unless a directory is given as the first argument). It checks:
//   - JSON structure and required fields
//   - Board size, blocked cells and start pieces against the piece catalog
//   - Tray pieces exist in the catalog and are not listed twice
//   - Cell balance: blocked + start pieces + tray against the board area
//   - Regions: no isolated empty area is smaller than the smallest tray piece
//     when the puzzle is meant to be filled exactly
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/polytile/game/config"
	"github.com/wricardo/mcp-training/polytile/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validatePuzzle loads and validates a single puzzle file against catalog
func validatePuzzle(filePath string, catalog *engine.Catalog) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var puzzle engine.Puzzle
	if err := json.Unmarshal(data, &puzzle); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidatePuzzle(&puzzle, catalog); err != nil {
		result.fail("%v", err)
		return result
	}

	rows, cols := puzzle.Dimensions()
	result.info("✓ %s (level %d), %dx%d board", puzzle.Name, puzzle.Level, rows, cols)
	result.info("✓ %d blocked cells, %d start pieces, %d tray pieces",
		len(puzzle.BlockedCells), len(puzzle.StartPieces), len(puzzle.PiecesLeft))

	blocked, fixed, tray, area, err := engine.CellBalance(&puzzle, catalog)
	if err != nil {
		result.fail("Cell balance: %v", err)
		return result
	}
	used := blocked + fixed + tray
	switch {
	case used == area:
		result.info("✓ Cell balance exact: %d/%d", used, area)
	case used < area:
		result.info("⚠ %d cells will remain empty (%d/%d)", area-used, used, area)
	default:
		result.fail("Tray needs %d cells but only %d are free", tray, area-blocked-fixed)
		return result
	}

	regions := validateRegions(&puzzle, catalog, used == area)
	if !regions.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, regions.Errors...)

	return result
}

// validateRegions flood-fills the empty cells of the starting board. When the
// puzzle must be filled exactly, a region smaller than the smallest tray
// piece can never be covered.
func validateRegions(puzzle *engine.Puzzle, catalog *engine.Catalog, exact bool) ValidationResult {
	result := ValidationResult{Valid: true}

	eng, err := engine.NewEngine(catalog, puzzle)
	if err != nil {
		result.fail("Failed to build board: %v", err)
		return result
	}
	grid := eng.GetState().Grid

	smallest := 0
	for _, id := range puzzle.PiecesLeft {
		f, err := catalog.Footprint(id, 0)
		if err != nil {
			continue
		}
		if n := f.CellCount(); smallest == 0 || n < smallest {
			smallest = n
		}
	}

	sizes := regionSizes(grid)
	result.info("✓ %d empty region(s)", len(sizes))

	if !exact {
		return result
	}
	for _, size := range sizes {
		if size < smallest {
			result.fail("Empty region of %d cells is smaller than the smallest piece (%d cells)", size, smallest)
		}
	}
	return result
}

// regionSizes returns the size of every 4-connected group of empty cells
func regionSizes(grid [][]engine.Cell) []int {
	visited := make([][]bool, len(grid))
	for r := range grid {
		visited[r] = make([]bool, len(grid[r]))
	}

	var sizes []int
	directions := [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

	for r := range grid {
		for c := range grid[r] {
			if visited[r][c] || grid[r][c].State != engine.Empty {
				continue
			}

			size := 0
			queue := []engine.Coord{{Row: r, Col: c}}
			visited[r][c] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				size++

				for _, d := range directions {
					nr, nc := cur.Row+d[0], cur.Col+d[1]
					if nr < 0 || nr >= len(grid) || nc < 0 || nc >= len(grid[nr]) {
						continue
					}
					if visited[nr][nc] || grid[nr][nc].State != engine.Empty {
						continue
					}
					visited[nr][nc] = true
					queue = append(queue, engine.Coord{Row: nr, Col: nc})
				}
			}
			sizes = append(sizes, size)
		}
	}

	return sizes
}

// puzzleFiles lists the puzzle JSON files in dir, skipping the piece catalog
func puzzleFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	puzzles := files[:0]
	for _, file := range files {
		if filepath.Base(file) == config.PiecesFile {
			continue
		}
		puzzles = append(puzzles, file)
	}
	return puzzles, nil
}

// main validates every puzzle file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	catalog, err := config.LoadCatalog(configDir)
	if err != nil {
		fmt.Printf("Error loading pieces: %v\n", err)
		os.Exit(1)
	}

	files, err := puzzleFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding puzzle files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validatePuzzle(file, catalog)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All puzzles are valid!")
	} else {
		fmt.Println("❌ Some puzzles have errors")
		os.Exit(1)
	}
}
