// Command validate checks the table presets in a directory (../presets by
// default). For every yaml or json file it checks:
//   - the file parses and has a name
//   - the roster has 2 to 8 seats with known kinds and strategies
//   - seat names are unique
//   - no two files resolve to the same preset ID
//   - an all-automated run of the roster plays to completion
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/service"
	"github.com/wricardo/tsuro-game/game/session"
)

// ValidationResult captures the outcome of validating a single file.
// Info holds report lines for valid files, Errors the problems found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func validatePreset(ctx context.Context, path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	preset, err := config.ReadPresetFile(path)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	seen := make(map[string]int)
	kinds := make(map[engine.SeatKind]int)
	for i, p := range preset.Players {
		if p.Name != "" {
			if first, dup := seen[p.Name]; dup {
				result.fail("Player %d reuses the name %q of player %d", i+1, p.Name, first)
			} else {
				seen[p.Name] = i + 1
			}
		}
		kind, _ := engine.ParseSeatKind(p.Kind)
		kinds[kind]++
	}
	if !result.Valid {
		return result
	}

	turns, winners, err := smokeTest(ctx, preset)
	if err != nil {
		result.fail("Automated run failed: %v", err)
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", preset.Name),
		fmt.Sprintf("✓ Seats: %d (%d interactive, %d automated, %d remote)",
			len(preset.Players), kinds[engine.SeatInteractive], kinds[engine.SeatAutomated], kinds[engine.SeatRemote]),
		fmt.Sprintf("✓ Automated run: %d turns, %d winner(s)", turns, winners),
	)
	if preset.Seed != 0 {
		result.Info = append(result.Info, fmt.Sprintf("✓ Fixed seed: %d", preset.Seed))
	}
	return result
}

// smokeTest plays the roster with every seat automated and reports the
// number of turns and winners
func smokeTest(ctx context.Context, preset *config.Preset) (int, int, error) {
	logger := zap.NewNop()
	presets, err := config.NewManager("", logger)
	if err != nil {
		return 0, 0, err
	}
	svc := service.NewGameService(session.NewManager(logger), presets, service.Options{Logger: logger})

	seed := preset.Seed
	if seed == 0 {
		seed = 1
	}
	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Seed: seed, Players: config.AutomatedRoster(preset.Players)})
	if err != nil {
		return 0, 0, err
	}
	defer svc.DeleteGame(ctx, info.ID)

	report, err := svc.StartGame(ctx, info.ID)
	if err != nil {
		return 0, 0, err
	}
	if report.State.Phase != engine.PhaseGameOver {
		return 0, 0, fmt.Errorf("game stopped in phase %s", report.State.Phase)
	}
	if len(report.State.Winners) == 0 {
		return 0, 0, fmt.Errorf("game ended without winners")
	}
	return report.State.Turn, len(report.State.Winners), nil
}

// validateDir validates every preset file in dir, sorted by name. Files
// that resolve to an already seen preset ID are rejected.
func validateDir(ctx context.Context, dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			if !e.IsDir() {
				files = append(files, e.Name())
			}
		}
	}
	sort.Strings(files)

	ids := make(map[string]string)
	results := make([]ValidationResult, 0, len(files))
	for _, name := range files {
		id := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if other, dup := ids[id]; dup {
			r := ValidationResult{File: name}
			r.fail("Preset ID %q is already defined by %s", id, other)
			results = append(results, r)
			continue
		}
		ids[id] = name
		results = append(results, validatePreset(ctx, filepath.Join(dir, name)))
	}
	return results, nil
}

// main validates ../presets, or the directory given as the first argument,
// and exits non-zero if any preset is invalid.
func main() {
	dir := "../presets"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	results, err := validateDir(context.Background(), dir)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Printf("No preset files found in %s\n", dir)
		return
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
			continue
		}
		fmt.Println("❌ INVALID")
		allValid = false
		for _, e := range result.Errors {
			fmt.Println("  ❌ " + e)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
	fmt.Println("✅ All presets are valid!")
}
