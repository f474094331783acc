package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/keyfold/keyfold/packet"
	"github.com/keyfold/keyfold/tpk"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [FILE]",
	Short: "Print the structure of a certificate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeIn, err := openInput(args)
		if err != nil {
			return err
		}
		defer closeIn()

		keyring, err := readCertificates(in)
		if err != nil {
			return err
		}
		if len(keyring) == 0 {
			return errors.New("input contains no certificates")
		}
		for i, t := range keyring {
			if i > 0 {
				fmt.Println()
			}
			printTPK(t)
		}
		return nil
	},
}

func printTPK(t *tpk.TPK) {
	kind := "Public key"
	if t.PrivateKey != nil {
		kind = "Secret key"
	}
	fmt.Printf("%s %s\n", kind, t.FingerprintHex())
	fmt.Printf("  created %s, algorithm %d, version %d\n",
		t.PrimaryKey.CreationTime.Format("2006-01-02"),
		t.PrimaryKey.PubKeyAlgo, t.PrimaryKey.Version)
	if n := len(t.PrimarySignatures); n > 0 {
		fmt.Printf("  %d direct signature(s)\n", n)
	}
	for _, b := range t.UserIDs {
		fmt.Printf("  uid  %s (%d signature(s))\n", uidName(b), len(b.Signatures))
	}
	for _, b := range t.UserAttributes {
		fmt.Printf("  uat  (%d signature(s))\n", len(b.Signatures))
	}
	for _, b := range t.Subkeys {
		fmt.Printf("  sub  %s (%d signature(s))\n", subkeyFingerprint(b), len(b.Signatures))
	}
	if n := len(t.Unknowns); n > 0 {
		fmt.Printf("  %d unrecognized component(s)\n", n)
	}
}

// openInput returns the file named in args, or stdin.
func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// readCertificates reads a keyring from r, transparently removing ASCII
// armor when present.
func readCertificates(r io.Reader) (tpk.TPKList, error) {
	br := bufio.NewReader(r)
	prefix, _ := br.Peek(5)
	if strings.HasPrefix(string(prefix), "-----") {
		block, err := armor.Decode(br)
		if err != nil {
			return nil, errors.Wrap(err, "dearmor")
		}
		return tpk.ReadKeyring(block.Body)
	}
	return tpk.ReadKeyring(br)
}

func uidName(b tpk.Binding) string {
	if uid, ok := b.Component.(*packet.UserID); ok {
		return uid.Id
	}
	return "(unreadable)"
}

func subkeyFingerprint(b tpk.Binding) string {
	switch k := b.Component.(type) {
	case *packet.PublicKey:
		return fmt.Sprintf("%X", k.Fingerprint)
	case *packet.PrivateKey:
		return fmt.Sprintf("%X", k.Fingerprint)
	}
	return "(unreadable)"
}
