// Package store is an embedded certificate store. Certificates are keyed
// by the hex fingerprint of their primary key, indexed by the key IDs of
// every key they contain, and optionally bound to free-form labels
// (petnames). The store persists the raw packet representation; parsing
// and assembly are delegated to the tpk package on the way in and out.
package store

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/keyfold/keyfold/tpk"
)

// ErrNotFound is returned by lookups that match no certificate.
var ErrNotFound = errors.New("store: certificate not found")

var (
	bucketCerts  = []byte("certs")  // fingerprint -> packets
	bucketKeyIDs = []byte("keyids") // key id -> fingerprint
	bucketLabels = []byte("labels") // label -> fingerprint
)

// Store is a certificate store backed by a single bbolt database file. It
// is safe for concurrent use by multiple goroutines.
type Store struct {
	db  *bolt.DB
	log *logrus.Entry
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "store: open")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCerts, bucketKeyIDs, bucketLabels} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: initialize")
	}
	return &Store{
		db:  db,
		log: logrus.WithField("component", "store"),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import stores the certificate's public rendition and indexes it by
// fingerprint and by every key ID it contains. Importing a certificate
// that is already present overwrites it; merging certificates from
// multiple sources is a caller concern.
func (s *Store) Import(t *tpk.TPK) error {
	var buf bytes.Buffer
	if err := t.Serialize(&buf); err != nil {
		return errors.Wrap(err, "store: serialize")
	}
	fp := []byte(t.FingerprintHex())

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketCerts).Put(fp, buf.Bytes()); err != nil {
			return err
		}
		keyids := tx.Bucket(bucketKeyIDs)
		for _, id := range t.KeyIDs() {
			if err := keyids.Put(keyIDBytes(id), fp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "store: import")
	}
	s.log.WithFields(logrus.Fields{
		"fingerprint": t.FingerprintHex(),
		"subkeys":     len(t.Subkeys),
		"userids":     len(t.UserIDs),
	}).Debug("imported certificate")
	return nil
}

// ByFingerprint returns the certificate with the given hex fingerprint,
// or ErrNotFound.
func (s *Store) ByFingerprint(fp string) (*tpk.TPK, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCerts).Get([]byte(normalizeFingerprint(fp)))
		if v == nil {
			return ErrNotFound
		}
		raw = append(raw, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.assemble(raw)
}

// ByKeyID returns the certificate holding a key with the given key ID, or
// ErrNotFound.
func (s *Store) ByKeyID(id uint64) (*tpk.TPK, error) {
	var fp []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketKeyIDs).Get(keyIDBytes(id))
		if v == nil {
			return ErrNotFound
		}
		fp = append(fp, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ByFingerprint(string(fp))
}

// Bind associates a label with the certificate of the given fingerprint.
func (s *Store) Bind(label, fp string) error {
	fp = normalizeFingerprint(fp)
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketCerts).Get([]byte(fp)) == nil {
			return ErrNotFound
		}
		return tx.Bucket(bucketLabels).Put([]byte(label), []byte(fp))
	})
	return err
}

// Lookup returns the certificate bound to the given label, or
// ErrNotFound.
func (s *Store) Lookup(label string) (*tpk.TPK, error) {
	var fp []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLabels).Get([]byte(label))
		if v == nil {
			return ErrNotFound
		}
		fp = append(fp, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ByFingerprint(string(fp))
}

// Fingerprints returns the hex fingerprints of all stored certificates.
func (s *Store) Fingerprints() ([]string, error) {
	var fps []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCerts).ForEach(func(k, _ []byte) error {
			fps = append(fps, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: list")
	}
	return fps, nil
}

// Delete removes the certificate with the given fingerprint, its key ID
// index entries and any labels bound to it.
func (s *Store) Delete(fp string) error {
	fp = normalizeFingerprint(fp)
	err := s.db.Update(func(tx *bolt.Tx) error {
		certs := tx.Bucket(bucketCerts)
		if certs.Get([]byte(fp)) == nil {
			return ErrNotFound
		}
		if err := certs.Delete([]byte(fp)); err != nil {
			return err
		}
		if err := deleteValues(tx.Bucket(bucketKeyIDs), []byte(fp)); err != nil {
			return err
		}
		return deleteValues(tx.Bucket(bucketLabels), []byte(fp))
	})
	if err == ErrNotFound {
		return err
	}
	return errors.Wrap(err, "store: delete")
}

func (s *Store) assemble(raw []byte) (*tpk.TPK, error) {
	t, err := tpk.FromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "store: stored certificate unreadable")
	}
	if t == nil {
		return nil, errors.New("store: stored data is not a certificate")
	}
	return t, nil
}

// deleteValues removes every entry of b whose value equals v.
func deleteValues(b *bolt.Bucket, v []byte) error {
	var keys [][]byte
	err := b.ForEach(func(k, val []byte) error {
		if bytes.Equal(val, v) {
			keys = append(keys, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func keyIDBytes(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

func normalizeFingerprint(fp string) string {
	out := make([]byte, 0, len(fp))
	for i := 0; i < len(fp); i++ {
		c := fp[i]
		if c == ' ' {
			continue
		}
		if c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
