// Command analyze prints quick, human-readable facts about the piece
// catalog and the puzzle files in a config directory: orientation counts
// per piece, and for each puzzle whether blocked cells, start pieces and
// tray pieces add up to the board area.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/polytile/game/config"
	"github.com/wricardo/mcp-training/polytile/game/engine"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "inspect the piece catalog and puzzle files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Aliases: []string{"d"},
				Value:   "configs",
				Usage:   "directory containing pieces.json and puzzle files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "pieces",
				Usage: "list every piece with its cell and orientation counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shapes", Usage: "draw every orientation"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					catalog, err := config.LoadCatalog(cmd.String("config-dir"))
					if err != nil {
						return err
					}
					analyzePieces(cmd.Root().Writer, catalog, cmd.Bool("shapes"))
					return nil
				},
			},
			{
				Name:  "puzzles",
				Usage: "report the cell balance of every puzzle",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					manager, err := config.NewManager(cmd.String("config-dir"))
					if err != nil {
						return err
					}
					return analyzePuzzles(cmd.Root().Writer, manager)
				},
			},
			{
				Name:      "show",
				Usage:     "draw the starting board of a puzzle",
				ArgsUsage: "<puzzle-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one puzzle id")
					}
					manager, err := config.NewManager(cmd.String("config-dir"))
					if err != nil {
						return err
					}
					return showPuzzle(cmd.Root().Writer, manager, cmd.Args().First())
				},
			},
		},
	}
}

func analyzePieces(w io.Writer, catalog *engine.Catalog, shapes bool) {
	total := 0
	for _, id := range catalog.IDs() {
		piece, err := catalog.Get(id)
		if err != nil {
			continue
		}
		cells := piece.Definition.BaseShape.CellCount()
		total += cells
		fmt.Fprintf(w, "%-12s %-16s cells=%d orientations=%d\n",
			id, piece.Definition.Color, cells, piece.Orientations.Len())

		if shapes {
			for i, shape := range piece.Orientations.All() {
				fmt.Fprintf(w, "  [%d]\n", i)
				for _, line := range strings.Split(shape.String(), "\n") {
					fmt.Fprintf(w, "    %s\n", line)
				}
			}
		}
	}
	fmt.Fprintf(w, "\n%d pieces, %d cells in total\n", catalog.Len(), total)
}

func analyzePuzzles(w io.Writer, manager *config.Manager) error {
	puzzles, err := manager.ListPuzzles()
	if err != nil {
		return err
	}

	for _, info := range puzzles {
		puzzle, err := manager.LoadPuzzle(info.PuzzleID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError: %v\n", info.PuzzleID, err)
			continue
		}

		blocked, fixed, tray, area, err := engine.CellBalance(puzzle, manager.Catalog())
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError: %v\n", info.PuzzleID, err)
			continue
		}

		fmt.Fprintf(w, "\n=== %s ===\n", info.PuzzleID)
		fmt.Fprintf(w, "Name: %s (level %d)\n", puzzle.Name, puzzle.Level)
		fmt.Fprintf(w, "Board: %dx%d = %d cells\n", info.Rows, info.Cols, area)
		fmt.Fprintf(w, "Blocked: %d, start pieces: %d cells, tray: %d cells\n", blocked, fixed, tray)
		fmt.Fprintf(w, "%s\n", balanceVerdict(blocked+fixed+tray, area))
	}

	return nil
}

// balanceVerdict compares the cells a puzzle accounts for with its area
func balanceVerdict(used, area int) string {
	switch {
	case used == area:
		return "✅ Exact fill possible"
	case used < area:
		return fmt.Sprintf("⚠️  %d cells will stay empty", area-used)
	default:
		return fmt.Sprintf("❌ Tray needs %d more cells than the board has", used-area)
	}
}

func showPuzzle(w io.Writer, manager *config.Manager, id string) error {
	puzzle, err := manager.LoadPuzzle(id)
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(manager.Catalog(), puzzle)
	if err != nil {
		return err
	}

	state := eng.GetState()
	fmt.Fprintf(w, "%s (level %d)\n\n", state.PuzzleName, state.Level)
	fmt.Fprint(w, engine.RenderGrid(state.Grid, state.Placements))
	fmt.Fprintf(w, "\nEmpty cells: %d\nTray:", state.EmptyCells)
	for _, tp := range state.Tray {
		fmt.Fprintf(w, " %s", tp.PieceID)
	}
	fmt.Fprintln(w)
	return nil
}
