package cli

import (
	"flag"
	"fmt"
	"os"
)

// FinalizeCommand renders the saved placement state into a signed
// artifact and writes it out.
func FinalizeCommand() {
	finFlags := flag.NewFlagSet("finalize", flag.ExitOnError)
	storeDir, configPath := addCommonFlags(finFlags)

	out := finFlags.String("out", "", "Output path (default: derived artifact name)")

	finFlags.Usage = func() {
		fmt.Printf("Usage: %s finalize [options] <document>\n\n", os.Args[0])
		fmt.Println("Render all placed signatures and text fields into a signed artifact")
		fmt.Println("\nOptions:")
		finFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s finalize contract.pdf\n", os.Args[0])
		fmt.Printf("  %s finalize -out signed/contract.pdf contract.pdf\n", os.Args[0])
	}

	if err := finFlags.Parse(os.Args[2:]); err != nil {
		fail(err)
	}
	if finFlags.NArg() < 1 {
		finFlags.Usage()
		osExit(1)
		return
	}

	s, err := openSession(*storeDir, *configPath, finFlags.Arg(0))
	if err != nil {
		fail(err)
		return
	}

	res, err := s.Finalize()
	if err != nil {
		fail(err)
		return
	}

	path := *out
	if path == "" {
		path = res.Name
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		fail(fmt.Errorf("failed to write artifact: %w", err))
		return
	}
	fmt.Printf("wrote %s (%s, %d bytes)\n", path, res.MIME, len(res.Data))
}
