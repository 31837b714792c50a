// Package cli implements the signdoc command-line interface.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	signdoc "github.com/dassagnik123/signdoc-easy-upload"
	"github.com/dassagnik123/signdoc-easy-upload/config"
	"github.com/dassagnik123/signdoc-easy-upload/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var osExit = os.Exit

// Run dispatches os.Args to the selected command.
func Run() {
	if len(os.Args) < 2 {
		Usage()
		return
	}

	switch os.Args[1] {
	case "place":
		PlaceCommand()
	case "sign":
		SignCommand()
	case "recipients":
		RecipientsCommand()
	case "finalize":
		FinalizeCommand()
	case "inspect":
		InspectCommand()
	case "version":
		fmt.Println(Version)
	case "help", "-h", "--help":
		Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		Usage()
	}
}

func Usage() {
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  place       Place a signature or text field on a document")
	fmt.Println("  sign        Record a signature image, optionally placing it")
	fmt.Println("  recipients  Manage recipients and their signing order")
	fmt.Println("  finalize    Render all placed fields into a signed artifact")
	fmt.Println("  inspect     Summarize the saved session for a document")
	fmt.Println("  version     Print the version")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}

// addCommonFlags registers the store and config flags every command takes.
func addCommonFlags(fs *flag.FlagSet) (storeDir, configPath *string) {
	storeDir = fs.String("store", ".signdoc", "Directory of the session store")
	configPath = fs.String("config", "", "Path to a TOML config file")
	return storeDir, configPath
}

// openSession builds a session on a file-backed store and restores the
// saved state for the given document, attaching its bytes fresh when no
// record exists yet.
func openSession(storeDir, configPath, docPath string) (*signdoc.Session, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Read(configPath); err != nil {
			return nil, err
		}
	}

	kv, err := storage.NewFileStore(storeDir, cfg.StorageQuota)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	s := signdoc.NewSession(cfg, kv)

	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	name := filepath.Base(docPath)
	if err := s.Load(signdoc.DocumentID(name, len(data))); err != nil {
		s.AttachDocument(name, data)
	}
	return s, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	osExit(1)
}
