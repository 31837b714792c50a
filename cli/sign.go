package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/vincent-petithory/dataurl"

	signdoc "github.com/dassagnik123/signdoc-easy-upload"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

// SignCommand records a signature image for the session and optionally
// places it directly as an overlay.
func SignCommand() {
	signFlags := flag.NewFlagSet("sign", flag.ExitOnError)
	storeDir, configPath := addCommonFlags(signFlags)

	imagePath := signFlags.String("image", "", "Path to the signature image (PNG or JPEG)")
	place := signFlags.Bool("place", false, "Also place the signature at -x/-y/-page")
	x := signFlags.Float64("x", 0, "Document-space x position")
	y := signFlags.Float64("y", 0, "Document-space y position")
	page := signFlags.Int("page", 0, "Zero-based page index")

	signFlags.Usage = func() {
		fmt.Printf("Usage: %s sign [options] <document>\n\n", os.Args[0])
		fmt.Println("Record a signature image; empty sender signature fields are filled with it")
		fmt.Println("\nOptions:")
		signFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s sign -image signature.png contract.pdf\n", os.Args[0])
		fmt.Printf("  %s sign -image signature.png -place -x 100 -y 650 contract.pdf\n", os.Args[0])
	}

	if err := signFlags.Parse(os.Args[2:]); err != nil {
		fail(err)
	}
	if signFlags.NArg() < 1 || *imagePath == "" {
		signFlags.Usage()
		osExit(1)
		return
	}

	img, err := os.ReadFile(*imagePath)
	if err != nil {
		fail(fmt.Errorf("failed to read signature image: %w", err))
		return
	}

	s, err := openSession(*storeDir, *configPath, signFlags.Arg(0))
	if err != nil {
		fail(err)
		return
	}

	s.SetSignatureImage(dataurl.EncodeBytes(img))
	if *place {
		// A sender signature field persists across invocations; its overlay
		// is regenerated from the record on load.
		s.PlaceField(placeholder.KindSignature, "Signature", *x, *y, *page, signdoc.OwnerSender)
	}
	if err := s.Save(); err != nil {
		fail(err)
		return
	}
	fmt.Printf("recorded signature image (%d bytes), %d overlay(s) placed\n", len(img), s.Overlays().Len())
}
