package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/keyfold/keyfold/hkp"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Interact with the local certificate store",
}

var storeAddCmd = &cobra.Command{
	Use:   "add [FILE]",
	Short: "Import certificates into the store",
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
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		for _, t := range keyring {
			if err := st.Import(t); err != nil {
				return err
			}
			fmt.Println(t.FingerprintHex())
		}
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored certificates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		fps, err := st.Fingerprints()
		if err != nil {
			return err
		}
		for _, fp := range fps {
			t, err := st.ByFingerprint(fp)
			if err != nil {
				return err
			}
			uid := ""
			if u := t.PrimaryUserID(); u != nil {
				uid = u.Id
			}
			fmt.Printf("%s  %s\n", fp, uid)
		}
		return nil
	},
}

var storeExportCmd = &cobra.Command{
	Use:   "export <FINGERPRINT|LABEL>",
	Short: "Export a stored certificate as ASCII armor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		t, err := st.ByFingerprint(args[0])
		if err != nil {
			t, err = st.Lookup(args[0])
		}
		if err != nil {
			return err
		}

		w, err := armor.Encode(os.Stdout, hkp.PublicKeyType, nil)
		if err != nil {
			return err
		}
		if err := t.Serialize(w); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		_, err = os.Stdout.WriteString("\n")
		return err
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <FINGERPRINT>",
	Short: "Delete a stored certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Delete(args[0])
	},
}

var storeBindCmd = &cobra.Command{
	Use:   "bind <LABEL> <FINGERPRINT>",
	Short: "Bind a label to a stored certificate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Bind(args[0], args[1])
	},
}

func init() {
	storeCmd.AddCommand(storeAddCmd, storeListCmd, storeExportCmd, storeDeleteCmd, storeBindCmd)
}
