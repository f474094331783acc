// Package hkp speaks the OpenPGP HTTP Keyserver Protocol: a client for
// fetching and submitting certificates, and an http.Handler serving the
// same protocol from a local store.
package hkp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/keyfold/keyfold/tpk"
)

// PublicKeyType is the armor block type for public keys.
const PublicKeyType = "PGP PUBLIC KEY BLOCK"

// ErrKeyNotFound is returned by Get when the keyserver has no matching
// key.
var ErrKeyNotFound = errors.New("hkp: key not found")

// Client talks to a single HKP keyserver.
type Client struct {
	root *url.URL
	hc   *http.Client
}

// NewClient returns a client for the keyserver at uri. The hkp and hkps
// schemes are accepted alongside http and https; hkp maps to http on port
// 11371, hkps to https. If hc is nil, http.DefaultClient is used.
func NewClient(uri string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(err, "hkp: parse keyserver uri")
	}
	switch u.Scheme {
	case "hkp":
		u.Scheme = "http"
		if u.Port() == "" {
			u.Host = u.Host + ":11371"
		}
	case "hkps":
		u.Scheme = "https"
	case "http", "https":
	default:
		return nil, errors.Errorf("hkp: unsupported scheme %q", u.Scheme)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{root: u, hc: hc}, nil
}

// Get fetches the certificate matching search, which is a key ID or
// fingerprint in hex, with or without the 0x prefix.
func (c *Client) Get(ctx context.Context, search string) (*tpk.TPK, error) {
	if !strings.HasPrefix(search, "0x") {
		search = "0x" + strings.ToUpper(search)
	}
	u := *c.root
	u.Path = "/pks/lookup"
	u.RawQuery = url.Values{
		"op":      []string{"get"},
		"options": []string{"mr"},
		"search":  []string{search},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "hkp: build request")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "hkp: lookup")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrKeyNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("hkp: lookup returned %s", resp.Status)
	}

	block, err := armor.Decode(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "hkp: dearmor response")
	}
	keyring, err := tpk.ReadKeyring(block.Body)
	if err != nil {
		return nil, err
	}
	if len(keyring) == 0 {
		return nil, ErrKeyNotFound
	}
	return keyring[0], nil
}

// Send submits the certificate's public rendition to the keyserver.
func (c *Client) Send(ctx context.Context, t *tpk.TPK) error {
	var armored bytes.Buffer
	w, err := armor.Encode(&armored, PublicKeyType, nil)
	if err != nil {
		return errors.Wrap(err, "hkp: armor")
	}
	if err := t.Serialize(w); err != nil {
		return errors.Wrap(err, "hkp: serialize")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "hkp: armor")
	}

	u := *c.root
	u.Path = "/pks/add"
	form := url.Values{"keytext": []string{armored.String()}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "hkp: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "hkp: submit")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("hkp: submit returned %s", resp.Status)
	}
	return nil
}
