package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/dassagnik123/signdoc-easy-upload/recipient"
)

// RecipientsCommand manages the recipient list and signing order of a
// document session.
func RecipientsCommand() {
	recFlags := flag.NewFlagSet("recipients", flag.ExitOnError)
	storeDir, configPath := addCommonFlags(recFlags)

	addName := recFlags.String("add-name", "", "Name of a recipient to add")
	addEmail := recFlags.String("add-email", "", "Email of the recipient to add")
	remove := recFlags.String("remove", "", "Id of a recipient to remove")
	setOrder := recFlags.String("set-order", "", "Recipient id to reorder (with -order)")
	order := recFlags.Int("order", 0, "New order value for -set-order")
	mode := recFlags.String("mode", "", "Switch signing mode (sequential, simultaneous)")

	recFlags.Usage = func() {
		fmt.Printf("Usage: %s recipients [options] <document>\n\n", os.Args[0])
		fmt.Println("Manage recipients and their signing order")
		fmt.Println("\nOptions:")
		recFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s recipients -add-name Alice -add-email alice@example.com contract.pdf\n", os.Args[0])
		fmt.Printf("  %s recipients -mode simultaneous contract.pdf\n", os.Args[0])
	}

	if err := recFlags.Parse(os.Args[2:]); err != nil {
		fail(err)
	}
	if recFlags.NArg() < 1 {
		recFlags.Usage()
		osExit(1)
		return
	}

	s, err := openSession(*storeDir, *configPath, recFlags.Arg(0))
	if err != nil {
		fail(err)
		return
	}
	list := s.Recipients()

	switch *mode {
	case "":
	case "sequential":
		list.SwitchMode(recipient.Sequential)
	case "simultaneous":
		list.SwitchMode(recipient.Simultaneous)
	default:
		fail(fmt.Errorf("invalid mode %q (sequential, simultaneous)", *mode))
		return
	}

	if *addName != "" || *addEmail != "" {
		r, err := list.Add(*addName, *addEmail)
		if err != nil {
			fail(err)
			return
		}
		fmt.Printf("added %s <%s> as %s, signing round %d\n", r.Name, r.Email, r.ID, r.Order)
	}
	if *remove != "" {
		if !list.Remove(*remove) {
			fail(fmt.Errorf("no recipient %q", *remove))
			return
		}
	}
	if *setOrder != "" {
		list.SetOrder(*setOrder, *order)
	}

	if err := s.Save(); err != nil {
		fail(err)
		return
	}

	for _, round := range list.GroupedByRound() {
		fmt.Printf("round %d:\n", round.Order)
		for _, r := range round.Recipients {
			fmt.Printf("  %s <%s> [%s] (%s)\n", r.Name, r.Email, r.Status, r.ID)
		}
	}
}
