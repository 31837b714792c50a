package cli

import (
	"flag"
	"fmt"
	"os"

	signdoc "github.com/dassagnik123/signdoc-easy-upload"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

// PlaceCommand places a signature or text field at a document-space
// position and saves the session.
func PlaceCommand() {
	placeFlags := flag.NewFlagSet("place", flag.ExitOnError)
	storeDir, configPath := addCommonFlags(placeFlags)

	kind := placeFlags.String("kind", "signature", "Field kind (signature, text)")
	label := placeFlags.String("label", "", "Field label")
	x := placeFlags.Float64("x", 0, "Document-space x position")
	y := placeFlags.Float64("y", 0, "Document-space y position")
	page := placeFlags.Int("page", 0, "Zero-based page index")
	owner := placeFlags.String("owner", signdoc.OwnerSender, "Owning role (sender, or a recipient id)")
	value := placeFlags.String("value", "", "Initial field value (text fields)")

	placeFlags.Usage = func() {
		fmt.Printf("Usage: %s place [options] <document>\n\n", os.Args[0])
		fmt.Println("Place a signature or text field on a document")
		fmt.Println("\nOptions:")
		placeFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s place -kind signature -label \"Sign here\" -x 100 -y 50 contract.pdf\n", os.Args[0])
		fmt.Printf("  %s place -kind text -label Date -value 2026-08-29 -x 380 -y 80 contract.pdf\n", os.Args[0])
	}

	if err := placeFlags.Parse(os.Args[2:]); err != nil {
		fail(err)
	}
	if placeFlags.NArg() < 1 {
		placeFlags.Usage()
		osExit(1)
		return
	}

	var k placeholder.Kind
	switch *kind {
	case "signature":
		k = placeholder.KindSignature
	case "text":
		k = placeholder.KindText
	default:
		fail(fmt.Errorf("invalid kind %q (signature, text)", *kind))
		return
	}

	s, err := openSession(*storeDir, *configPath, placeFlags.Arg(0))
	if err != nil {
		fail(err)
		return
	}

	p := s.PlaceField(k, *label, *x, *y, *page, *owner)
	if *value != "" {
		s.FillField(p.ID, *value)
	}
	if err := s.Save(); err != nil {
		fail(err)
		return
	}
	fmt.Printf("placed %s field %s at (%.0f, %.0f) on page %d\n", p.Kind, p.ID, p.X, p.Y, p.Page)
}
