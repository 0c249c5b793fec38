package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/santos/internal/audit"
	"github.com/mrlokans/santos/internal/catalog"
	"github.com/mrlokans/santos/internal/config"
	"github.com/mrlokans/santos/internal/database"
	auditrepo "github.com/mrlokans/santos/internal/database/audit"
	"github.com/mrlokans/santos/internal/database/categories"
	"github.com/mrlokans/santos/internal/database/saints"
	"github.com/mrlokans/santos/internal/entities"
)

// ImportSaintsCommand loads a JSON array of saints through the catalog
// batch insert, applying the same defaults as POST /api/santos/lote.
type ImportSaintsCommand struct {
	FilePath string
	Verbose  bool
	DryRun   bool

	config *config.Config
}

func NewImportSaintsCommand(cfg *config.Config) *ImportSaintsCommand {
	return &ImportSaintsCommand{config: cfg}
}

func (cmd *ImportSaintsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-saints", flag.ContinueOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON file containing an array of saints (required)")
	fs.StringVar(&cmd.config.Database.Path, "db", cmd.config.Database.Path, "Path to the SQLite database (sqlite driver only)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every saint as it is read")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Validate the file without writing to the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-saints -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import saints from a JSON array using the API wire format\n")
		fmt.Fprintf(os.Stderr, "(nome, titulo, historia, categoriaId, milagres, locais, imagens...).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-saints -file seed/santos.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-saints -file seed/santos.json -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportSaintsCommand) Run() error {
	fmt.Println("Saints Import")
	fmt.Println("=============")

	batch, err := readSaints(cmd.FilePath)
	if err != nil {
		return err
	}
	fmt.Printf("Read %d saints from %s\n", len(batch), cmd.FilePath)

	if cmd.Verbose {
		for i := range batch {
			fmt.Printf("  - %s (category %d)\n", batch[i].Name, batch[i].CategoryID)
		}
	}

	if cmd.DryRun {
		if len(batch) == 0 {
			return catalog.ErrEmptyBatch
		}
		fmt.Println("DRY RUN MODE - No changes were made")
		return nil
	}

	db, err := database.NewDatabase(cmd.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := catalog.NewService(saints.NewRepository(db.DB), categories.NewRepository(db.DB))
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	defer auditService.Wait()

	count, err := service.CreateBatch(context.Background(), batch)
	auditService.LogImport("", "cli", count, err)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d saints\n", count)
	return nil
}

func readSaints(path string) ([]entities.Saint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var batch []entities.Saint
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return batch, nil
}
