package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

// InspectCommand summarizes the saved session for a document: fields per
// page and recipients per signing round.
func InspectCommand() {
	insFlags := flag.NewFlagSet("inspect", flag.ExitOnError)
	storeDir, configPath := addCommonFlags(insFlags)

	insFlags.Usage = func() {
		fmt.Printf("Usage: %s inspect [options] <document>\n\n", os.Args[0])
		fmt.Println("Summarize the saved session for a document")
		fmt.Println("\nOptions:")
		insFlags.PrintDefaults()
	}

	if err := insFlags.Parse(os.Args[2:]); err != nil {
		fail(err)
	}
	if insFlags.NArg() < 1 {
		insFlags.Usage()
		osExit(1)
		return
	}

	s, err := openSession(*storeDir, *configPath, insFlags.Arg(0))
	if err != nil {
		fail(err)
		return
	}

	doc := s.Document()
	fmt.Printf("%s (%s, %d bytes)\n", doc.Name, doc.Media, len(doc.Data))
	fmt.Printf("signature image: %v\n", s.SignatureImage() != "")

	byPage := make(map[int][]*placeholder.Placeholder)
	for _, p := range s.Fields().All() {
		byPage[p.Page] = append(byPage[p.Page], p)
	}
	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	for _, page := range pages {
		fmt.Printf("page %d:\n", page)
		for _, p := range byPage[page] {
			filled := "empty"
			if p.Value != "" {
				filled = "filled"
			}
			fmt.Printf("  %s %q at (%.0f, %.0f) [%s]\n", p.Kind, p.Label, p.X, p.Y, filled)
		}
	}
	fmt.Printf("overlays: %d\n", s.Overlays().Len())

	if s.Recipients().Len() > 0 {
		for _, round := range s.Recipients().GroupedByRound() {
			fmt.Printf("round %d:\n", round.Order)
			for _, r := range round.Recipients {
				fmt.Printf("  %s <%s> [%s]\n", r.Name, r.Email, r.Status)
			}
		}
	}
}
