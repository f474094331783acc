package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/keyfold/keyfold/hkp"
)

var keyserverImport bool

var keyserverCmd = &cobra.Command{
	Use:   "keyserver",
	Short: "Interact with keyservers",
}

var keyserverGetCmd = &cobra.Command{
	Use:   "get <KEYID>",
	Short: "Fetch a certificate from the keyserver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := hkp.NewClient(cfg.KeyServer, nil)
		if err != nil {
			return err
		}
		t, err := client.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if keyserverImport {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Import(t)
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

var keyserverSendCmd = &cobra.Command{
	Use:   "send [FILE]",
	Short: "Submit a certificate to the keyserver",
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
		client, err := hkp.NewClient(cfg.KeyServer, nil)
		if err != nil {
			return err
		}
		for _, t := range keyring {
			if err := client.Send(cmd.Context(), t); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	keyserverGetCmd.Flags().BoolVar(&keyserverImport, "import", false,
		"import into the local store instead of printing")
	keyserverCmd.AddCommand(keyserverGetCmd, keyserverSendCmd)
}
