package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/keyfold/keyfold/hkp"
)

var enarmorCmd = &cobra.Command{
	Use:   "enarmor [FILE]",
	Short: "Apply ASCII armor to binary OpenPGP data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeIn, err := openInput(args)
		if err != nil {
			return err
		}
		defer closeIn()

		w, err := armor.Encode(os.Stdout, hkp.PublicKeyType, nil)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, in); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		_, err = os.Stdout.WriteString("\n")
		return err
	},
}

var dearmorCmd = &cobra.Command{
	Use:   "dearmor [FILE]",
	Short: "Remove ASCII armor from a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeIn, err := openInput(args)
		if err != nil {
			return err
		}
		defer closeIn()

		block, err := armor.Decode(in)
		if err != nil {
			return errors.Wrap(err, "dearmor")
		}
		_, err = io.Copy(os.Stdout, block.Body)
		return err
	},
}
